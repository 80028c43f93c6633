package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keystone-rbac/keystone/internal/platform/httpx"
)

// Handler exposes read-only role and permission listings for administration.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
	guard  Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, guard Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, guard: guard}
}

// MountRoutes registers role and permission routes on the authenticated router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(PermRead, PermManageUsers))
		r.Get("/roles", h.listRoles)
		r.Get("/permissions", h.listPermissions)
	})
}

type roleResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.repo.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, len(roles))
	for i, role := range roles {
		out[i] = roleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			Permissions: role.PermissionNames(),
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.repo.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, len(perms))
	for i, p := range perms {
		out[i] = permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description}
	}
	httpx.JSON(w, http.StatusOK, out)
}
