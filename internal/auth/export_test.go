package auth

import "net/http"

// ShowLoginForTest exposes the login form handler to external tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) { h.showLogin(w, r) }

// HandleLoginForTest exposes the login submission handler to external tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) { h.handleLogin(w, r) }
