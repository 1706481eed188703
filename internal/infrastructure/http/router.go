package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/handlers"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	HealthHandler     *handlers.HealthHandler
	WorkspacesHandler *handlers.WorkspacesHandler
	ProjectsHandler   *handlers.ProjectsHandler
	TasksHandler      *handlers.TasksHandler
	DocumentsHandler  *handlers.DocumentsHandler
	SearchHandler     *handlers.SearchHandler
	WebhooksHandler   *handlers.WebhooksHandler
	RequireJWT        func(http.Handler) http.Handler
	Log               zerolog.Logger
	Secure            func(http.Handler) http.Handler
	CORS              func(http.Handler) http.Handler
	IPRateLimit       func(http.Handler) http.Handler
	Metrics           bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	r.Use(chimid.AllowContentType("application/json"))
	r.Use(chimid.SetHeader("Content-Type", "application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Authenticated by signature, not session.
		if cfg.WebhooksHandler != nil {
			r.Post("/webhooks/clerk", cfg.WebhooksHandler.HandleClerk)
		}

		r.Group(func(r chi.Router) {
			r.Use(cfg.RequireJWT)

			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", cfg.WorkspacesHandler.List)
				r.Post("/", cfg.WorkspacesHandler.Create)
				r.Get("/{id}", cfg.WorkspacesHandler.Get)
				r.Patch("/{id}", cfg.WorkspacesHandler.Update)
				r.Delete("/{id}", cfg.WorkspacesHandler.Delete)
				r.Get("/{id}/references", cfg.WorkspacesHandler.ListReferences)
				r.Post("/{id}/references", cfg.WorkspacesHandler.CreateReference)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", cfg.ProjectsHandler.List)
				r.Post("/", cfg.ProjectsHandler.Create)
				r.Get("/{id}", cfg.ProjectsHandler.Get)
				r.Patch("/{id}", cfg.ProjectsHandler.Update)
				r.Delete("/{id}", cfg.ProjectsHandler.Delete)
				r.Get("/{id}/references", cfg.ProjectsHandler.ListReferences)
				r.Post("/{id}/references", cfg.ProjectsHandler.CreateReference)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", cfg.TasksHandler.List)
				r.Post("/", cfg.TasksHandler.Create)
			})

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", cfg.DocumentsHandler.List)
				r.Post("/", cfg.DocumentsHandler.Create)
				r.Get("/{id}", cfg.DocumentsHandler.Get)
				r.Patch("/{id}", cfg.DocumentsHandler.Update)
				r.Delete("/{id}", cfg.DocumentsHandler.Delete)
				r.Get("/{id}/versions", cfg.DocumentsHandler.ListVersions)
				r.Post("/{id}/lock", cfg.DocumentsHandler.AcquireLock)
				r.Get("/{id}/lock", cfg.DocumentsHandler.LockStatus)
				r.Delete("/{id}/lock", cfg.DocumentsHandler.ReleaseLock)
			})

			r.Get("/search", cfg.SearchHandler.Search)
		})
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
