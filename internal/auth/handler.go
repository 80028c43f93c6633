package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-rbac/keystone/internal/platform/httpx"
	"github.com/keystone-rbac/keystone/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	authenticator *Authenticator
	validator     *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authenticator *Authenticator) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		authenticator: authenticator,
		validator:     validator.New(),
	}
}

// MountRoutes registers auth routes. Register and login are deliberately
// public; profile and logout require an authenticated principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.authenticator.Middleware)
		r.Get("/profile", h.handleProfile)
		r.Post("/logout", h.handleLogout)
	})
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Type     string `json:"type" validate:"required,oneof=candidate employee"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// userResponse is the external projection of a user; the password digest is
// never serialized.
type userResponse struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Type        string   `json:"type"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func newUserResponse(user *User) userResponse {
	return userResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Type:        string(user.Kind),
		Role:        user.Role.Name,
		Permissions: user.Role.PermissionNames(),
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if msg, ok := h.validate(req); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", msg)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, Kind(req.Type))
	if err != nil {
		h.logFailure("register", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if msg, ok := h.validate(req); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", msg)
		return
	}

	token, claims, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := tokenResponse{AccessToken: token}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	user, err := h.service.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		h.logFailure("profile", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if err := h.service.Logout(r.Context(), claims); err != nil {
		h.logFailure("logout", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (h *Handler) validate(req any) (string, bool) {
	if err := h.validator.Struct(req); err != nil {
		var fields []string
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fields = append(fields, strings.ToLower(fieldErr.Field()))
		}
		return "invalid fields: " + strings.Join(fields, ", "), false
	}
	return "", true
}

func (h *Handler) logFailure(op string, err error) {
	if h.logger != nil {
		h.logger.Warn(op+" failed", slog.Any("error", err))
	}
}
