package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tablero-fiscal/tablero/internal/shared"
	"github.com/tablero-fiscal/tablero/internal/view"
)

// LoginPath is where protected pages send anonymous visitors.
const LoginPath = "/auth/login"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(LoginPath, h.showLogin)
	r.Post(LoginPath, h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

// Viewer describes the signed-in user for templates, or nil for anonymous visitors.
func (s *Service) Viewer(sess *shared.Session) *view.Viewer {
	user := s.CurrentUser(sess)
	if user == nil {
		return nil
	}
	return &view.Viewer{
		Name:        user.Name,
		Role:        user.Role,
		MinutesLeft: int(s.TimeRemaining(sess).Minutes()),
	}
}

// Viewer exposes the signed-in user to other handlers.
func (h *Handler) Viewer(sess *shared.Session) *view.Viewer {
	return h.service.Viewer(sess)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if h.service.IsAuthenticated(sess) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	form := loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = "Campo obligatorio"
		}
	}

	if len(errs) == 0 {
		user, err := h.service.Login(r.Context(), sess, form.Username, form.Password)
		if err == nil {
			expiresAt := h.service.now().Add(h.service.ttl)
			if err := h.service.RegisterSession(r.Context(), sess.ID, user.Username, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			target := safeRedirect(sess.Get(RedirectKey))
			sess.Delete(RedirectKey)
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Bienvenido, " + user.Name})
			h.logger.Info("login", slog.String("user", user.Username))
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		errs["general"] = "Usuario o contraseña incorrectos"
	}

	form.Password = ""
	h.renderLogin(w, r, http.StatusBadRequest, loginPageData{Form: form, Errors: errs})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Iniciar sesión",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		if status == http.StatusOK {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.service.Logout(sess)
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RequireAuth sends anonymous visitors to the login page, remembering where they were going.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if h.service.IsAuthenticated(sess) {
			next.ServeHTTP(w, r)
			return
		}
		if sess != nil && r.Method == http.MethodGet {
			sess.Set(RedirectKey, r.URL.RequestURI())
		}
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	})
}

// Activity renews the session of signed-in users on every request.
func (h *Handler) Activity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			h.service.Extend(sess)
		}
		next.ServeHTTP(w, r)
	})
}

// safeRedirect accepts only same-site absolute paths.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	if strings.HasPrefix(target, LoginPath) {
		return "/"
	}
	return target
}
