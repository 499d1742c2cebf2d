package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	auth "github.com/tablero-fiscal/tablero/internal/auth"
	dashboardhttp "github.com/tablero-fiscal/tablero/internal/dashboard/http"
	"github.com/tablero-fiscal/tablero/internal/observability"
	"github.com/tablero-fiscal/tablero/internal/shared"
	"github.com/tablero-fiscal/tablero/jobs"
	"github.com/tablero-fiscal/tablero/report"
	"github.com/tablero-fiscal/tablero/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	DashboardHandler *dashboardhttp.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	stack := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	if params.AuthHandler != nil {
		stack.Activity = params.AuthHandler.Activity
	}
	for _, mw := range MiddlewareStack(stack) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}
	params.DashboardHandler.MountRoutes(r)

	if params.ReportHandler != nil || params.JobHandler != nil {
		r.Route("/ops", func(ops chi.Router) {
			if params.AuthHandler != nil {
				ops.Use(params.AuthHandler.RequireAuth)
			}
			if params.ReportHandler != nil {
				ops.Route("/report", params.ReportHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				ops.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(web.Static())))
	r.Handle("/static/*", staticCacheHandler(fileServer))

	return r
}

// staticCacheHandler lets browsers keep static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
