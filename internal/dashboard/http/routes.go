package dashboardhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/tablero-fiscal/tablero/internal/shared"
)

// MountRoutes registers the dashboard pages, exports and JSON API onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	for _, profile := range h.profiles {
		page := http.Handler(h.pageHandler(profile))
		if profile.RequiresAuth && h.guard != nil {
			page = h.guard.RequireAuth(page)
		}
		r.Method(http.MethodGet, profile.Path, page)
	}

	r.Route("/api/v1/pages/{page}", func(api chi.Router) {
		api.Get("/periods", h.handlePeriods)
		api.Get("/kpi", h.handleKPI)
	})

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/{page}/export.csv", h.handleCSV)
		gr.Get("/{page}/export.pdf", h.handlePDF)
		gr.Get("/{page}/charts/{chart}.png", h.handleChartPNG)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
