package app

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablero-fiscal/tablero/internal/auth"
	"github.com/tablero-fiscal/tablero/internal/dashboard"
	dashboardhttp "github.com/tablero-fiscal/tablero/internal/dashboard/http"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/internal/observability"
	"github.com/tablero-fiscal/tablero/internal/shared"
	"github.com/tablero-fiscal/tablero/internal/view"
	testenv "github.com/tablero-fiscal/tablero/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "tablero_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf")

	templates, err := view.NewEngine()
	require.NoError(t, err)
	authHandler := auth.NewHandler(nil, auth.NewService(auth.NewStaticRepository(), time.Hour), templates, sessions, csrf)

	profiles, err := dashboard.LoadProfiles("")
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	loader := dataset.NewLoader(dataset.NewFileProvider(testenv.SnapshotFixtures()), nil, nil)
	svc := dashboard.NewService(loader, profiles, nil, metrics.ObserveResolve)
	t.Cleanup(svc.Close)

	return NewRouter(RouterParams{
		Logger:           NewLogger(nil),
		Config:           &Config{AppEnv: "development", AppRequestTimeout: 5 * time.Second},
		SessionManager:   sessions,
		CSRFManager:      csrf,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardhttp.NewHandler(nil, svc, profiles.List(), templates, nil, authHandler, csrf),
		Metrics:          metrics,
	})
}

func TestRouterServesPublicHome(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie expected")
}

func TestRouterProtectsPagesAndOps(t *testing.T) {
	r := newTestRouter(t)
	for _, target := range []string{"/monitor", "/anual", "/personal"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, auth.LoginPath, rec.Header().Get("Location"), target)
	}
}

func TestRouterRejectsPostWithoutCSRF(t *testing.T) {
	r := newTestRouter(t)
	form := url.Values{"username": {"admin"}, "password": {"x"}}
	req := httptest.NewRequest(http.MethodPost, auth.LoginPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tablero_http_requests_total")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}
