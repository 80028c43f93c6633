package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-rbac/keystone/internal/auth"
	"github.com/keystone-rbac/keystone/internal/employees"
	"github.com/keystone-rbac/keystone/internal/observability"
	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Authenticator    *auth.Authenticator
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	EmployeesHandler *employees.Handler
	RBACHandler      *rbac.Handler
	Metrics          *observability.Metrics
	Pool             *pgxpool.Pool
}

// NewRouter assembles the HTTP router. Register and login stay outside the
// authenticated group; every other resource route authenticates first and
// authorizes second.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config}) {
		r.Use(mw)
	}
	if p.Metrics != nil {
		r.Use(p.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if p.Pool != nil {
			if err := p.Pool.Ping(req.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/auth", p.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(p.Authenticator.Middleware)
		r.Route("/users", p.UsersHandler.MountRoutes)
		r.Route("/employees", p.EmployeesHandler.MountRoutes)
		if p.RBACHandler != nil {
			p.RBACHandler.MountRoutes(r)
		}
	})

	return r
}
