package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tablero-fiscal/tablero/internal/chart"
	"github.com/tablero-fiscal/tablero/internal/dashboard"
	"github.com/tablero-fiscal/tablero/internal/dashboard/export"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/internal/kpi"
	"github.com/tablero-fiscal/tablero/internal/platform/httpx"
	"github.com/tablero-fiscal/tablero/internal/shared"
	"github.com/tablero-fiscal/tablero/internal/view"
)

const requestTimeout = 10 * time.Second

const unavailableMessage = "Los datos no están disponibles en este momento. Intente nuevamente más tarde."

// DashboardService defines the page contract used by the handler.
type DashboardService interface {
	Page(ctx context.Context, pageID, periodID string) (*dashboard.Page, error)
	View(ctx context.Context, pageID, periodID string) (kpi.View, error)
	Periods(ctx context.Context, pageID string) ([]dashboard.Option, error)
	Export(ctx context.Context, pageID, periodID string) (*dashboard.Page, error)
	ChartPNG(ctx context.Context, pageID, periodID, chartID string) ([]byte, error)
}

// PDFService renders a dashboard page to PDF bytes.
type PDFService interface {
	RenderPage(ctx context.Context, page *dashboard.Page) ([]byte, error)
}

// Guard resolves the signed-in user and protects restricted pages.
type Guard interface {
	Viewer(sess *shared.Session) *view.Viewer
	RequireAuth(next http.Handler) http.Handler
}

// Handler serves the dashboard pages, their exports and the JSON API.
type Handler struct {
	logger    *slog.Logger
	service   DashboardService
	profiles  []dashboard.Profile
	byID      map[string]dashboard.Profile
	templates *view.Engine
	pdf       PDFService
	guard     Guard
	csrf      *shared.CSRFManager
	csvPool   sync.Pool
}

// NewHandler constructs the dashboard HTTP handler. pdf may be nil to disable PDF exports.
func NewHandler(logger *slog.Logger, service DashboardService, profiles []dashboard.Profile, templates *view.Engine, pdf PDFService, guard Guard, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		profiles:  profiles,
		byID:      make(map[string]dashboard.Profile, len(profiles)),
		templates: templates,
		pdf:       pdf,
		guard:     guard,
		csrf:      csrf,
	}
	for _, p := range profiles {
		h.byID[p.ID] = p
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// Nav lists the pages for the navigation bar.
func (h *Handler) Nav() []view.NavLink {
	out := make([]view.NavLink, 0, len(h.profiles))
	for _, p := range h.profiles {
		out = append(out, view.NavLink{Path: p.Path, Title: p.Title, Protected: p.RequiresAuth})
	}
	return out
}

func (h *Handler) pageHandler(profile dashboard.Profile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		period := strings.TrimSpace(r.URL.Query().Get("period"))
		page, err := h.service.Page(ctx, profile.ID, period)
		if err != nil {
			h.handlePageError(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, "pages/dashboard.html", page.Profile.Title, pageData{Page: page, PDF: h.pdf != nil})
	}
}

type pageData struct {
	Page *dashboard.Page
	PDF  bool
}

type errorData struct {
	Message string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	var flash *shared.FlashMessage
	csrfToken := ""
	if sess != nil {
		flash = sess.PopFlash()
		if h.csrf != nil {
			csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		}
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      h.viewer(sess),
		Nav:         h.Nav(),
		Data:        data,
	}
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logError("render template", err)
		if status == http.StatusOK {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func (h *Handler) viewer(sess *shared.Session) *view.Viewer {
	if h.guard == nil || sess == nil {
		return nil
	}
	return h.guard.Viewer(sess)
}

func (h *Handler) handlePageError(w http.ResponseWriter, r *http.Request, err error) {
	var fetchErr *dataset.FetchError
	switch {
	case errors.As(err, &fetchErr):
		h.logger.Warn("snapshot unavailable", slog.String("source", string(fetchErr.Source)), slog.Any("error", err))
		h.render(w, r, http.StatusBadGateway, "pages/error.html", "Datos no disponibles", errorData{Message: unavailableMessage})
	case errors.Is(err, dashboard.ErrUnknownPage), errors.Is(err, kpi.ErrNotFound):
		h.render(w, r, http.StatusNotFound, "pages/error.html", "Página no encontrada", errorData{Message: "La página solicitada no existe."})
	default:
		h.logError("build page", err)
		h.render(w, r, http.StatusInternalServerError, "pages/error.html", "Error", errorData{Message: "Ocurrió un error inesperado."})
	}
}

// protect runs next for public pages and behind the guard for restricted ones.
func (h *Handler) protect(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	profile, ok := h.byID[chi.URLParam(r, "page")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if profile.RequiresAuth && h.guard != nil {
		h.guard.RequireAuth(next).ServeHTTP(w, r)
		return
	}
	next(w, r)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	h.protect(w, r, func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "page")
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		page, err := h.service.Export(ctx, pageID, strings.TrimSpace(r.URL.Query().Get("period")))
		if err != nil {
			h.handleExportError(w, "export csv", err)
			return
		}

		buf := h.csvPool.Get().(*bytes.Buffer)
		buf.Reset()
		defer func() {
			buf.Reset()
			h.csvPool.Put(buf)
		}()
		if err := export.WritePageCSV(buf, page); err != nil {
			h.handleServerError(w, "write csv", err)
			return
		}

		filename := fmt.Sprintf("tablero-%s-%s.csv", pageID, page.PeriodID)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		if _, err := w.Write(buf.Bytes()); err != nil {
			h.logError("stream csv", err)
		}
	})
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	h.protect(w, r, func(w http.ResponseWriter, r *http.Request) {
		if h.pdf == nil {
			http.NotFound(w, r)
			return
		}
		pageID := chi.URLParam(r, "page")
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		page, err := h.service.Export(ctx, pageID, strings.TrimSpace(r.URL.Query().Get("period")))
		if err != nil {
			h.handleExportError(w, "export pdf", err)
			return
		}
		pdfBytes, err := h.pdf.RenderPage(ctx, page)
		if err != nil {
			h.logError("render pdf", err)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}

		filename := fmt.Sprintf("tablero-%s-%s.pdf", pageID, page.PeriodID)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		if _, err := w.Write(pdfBytes); err != nil {
			h.logError("stream pdf", err)
		}
	})
}

func (h *Handler) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	h.protect(w, r, func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "page")
		chartID := chi.URLParam(r, "chart")
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		png, err := h.service.ChartPNG(ctx, pageID, strings.TrimSpace(r.URL.Query().Get("period")), chartID)
		if err != nil {
			h.handleExportError(w, "render png", err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s-%s.png\"", pageID, chartID))
		if _, err := w.Write(png); err != nil {
			h.logError("stream png", err)
		}
	})
}

func (h *Handler) handleExportError(w http.ResponseWriter, op string, err error) {
	var fetchErr *dataset.FetchError
	switch {
	case errors.As(err, &fetchErr):
		h.logger.Warn(op, slog.Any("error", err))
		http.Error(w, unavailableMessage, http.StatusBadGateway)
	case errors.Is(err, dashboard.ErrUnknownPage), errors.Is(err, dashboard.ErrChartNotFound), errors.Is(err, kpi.ErrNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, chart.ErrNoData):
		http.Error(w, "No hay datos para graficar en el período", http.StatusNotFound)
	default:
		h.handleServerError(w, op, err)
	}
}

type periodResponse struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// apiGuard answers restricted API calls from anonymous clients with 401 instead of a redirect.
func (h *Handler) apiGuard(w http.ResponseWriter, r *http.Request) (string, bool) {
	pageID := chi.URLParam(r, "page")
	profile, ok := h.byID[pageID]
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: unknown page %q", httpx.ErrNotFound, pageID))
		return "", false
	}
	if profile.RequiresAuth && h.viewer(shared.SessionFromContext(r.Context())) == nil {
		httpx.RespondError(w, fmt.Errorf("%w: sign in required", httpx.ErrUnauthorized))
		return "", false
	}
	return pageID, true
}

func (h *Handler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	pageID, ok := h.apiGuard(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	opts, err := h.service.Periods(ctx, pageID)
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	out := make([]periodResponse, 0, len(opts))
	for _, o := range opts {
		out = append(out, periodResponse{ID: o.ID, Label: o.Label, Default: o.Selected})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleKPI(w http.ResponseWriter, r *http.Request) {
	pageID, ok := h.apiGuard(w, r)
	if !ok {
		return
	}
	period := strings.TrimSpace(r.URL.Query().Get("period"))
	if period != "" {
		if _, _, err := dataset.ParsePeriodID(period); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: period must be YYYY or YYYY-MM", httpx.ErrValidation))
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	v, err := h.service.View(ctx, pageID, period)
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) respondAPIError(w http.ResponseWriter, err error) {
	var fetchErr *dataset.FetchError
	switch {
	case errors.As(err, &fetchErr):
		h.logger.Warn("snapshot unavailable", slog.String("source", string(fetchErr.Source)), slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUnavailable, unavailableMessage))
	case errors.Is(err, kpi.ErrNotFound), errors.Is(err, dashboard.ErrUnknownPage):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	default:
		h.logError("api", err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(op string, err error) {
	h.logger.Error("dashboard "+op, slog.Any("error", err))
}
