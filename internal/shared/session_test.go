package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "tablero_session", "secret", time.Hour, false), mr
}

func requestWith(value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: "tablero_session", Value: value})
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWith(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.SetUser("admin")
	sess.Set("auth_name", "Administrador")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Bienvenido"})

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, requestWith(""), sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != sm.CookieValue(sess) {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if ttl := mr.TTL(sessionKeyPrefix + sess.ID); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}

	loaded, err := sm.Load(ctx, requestWith(cookies[0].Value))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.ID != sess.ID || loaded.User() != "admin" || loaded.Get("auth_name") != "Administrador" {
		t.Fatalf("session not restored: %+v", loaded)
	}
	flash := loaded.PopFlash()
	if flash == nil || flash.Message != "Bienvenido" {
		t.Fatalf("expected flash, got %+v", flash)
	}
	if loaded.PopFlash() != nil {
		t.Fatalf("flash must be consumed once")
	}
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	sm, _ := newManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWith(""))
	sess.SetUser("admin")
	if err := sm.Commit(ctx, httptest.NewRecorder(), requestWith(""), sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	for _, value := range []string{sess.ID, sess.ID + ".forged", "." + sm.sign("")} {
		loaded, err := sm.Load(ctx, requestWith(value))
		if err != nil {
			t.Fatalf("load %q: %v", value, err)
		}
		if loaded.ID == sess.ID || loaded.User() != "" {
			t.Fatalf("cookie %q must not resume the session", value)
		}
	}
}

func TestSessionSlidingExpiry(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWith(""))
	if err := sm.Commit(ctx, httptest.NewRecorder(), requestWith(""), sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	mr.FastForward(40 * time.Minute)

	loaded, err := sm.Load(ctx, requestWith(sm.CookieValue(sess)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := sm.Commit(ctx, httptest.NewRecorder(), requestWith(""), loaded); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL(sessionKeyPrefix + sess.ID); ttl != time.Hour {
		t.Fatalf("expected expiry to slide back to 1h, got %s", ttl)
	}
}

func TestSessionDestroy(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWith(""))
	_ = sm.Commit(ctx, httptest.NewRecorder(), requestWith(""), sess)
	sm.Destroy(sess)

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, requestWith(""), sess); err != nil {
		t.Fatalf("commit destroy: %v", err)
	}
	if mr.Exists(sessionKeyPrefix + sess.ID) {
		t.Fatalf("session key must be deleted")
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", c)
	}
}

func TestCSRFToken(t *testing.T) {
	sm, _ := newManager(t)
	csrf := NewCSRFManager("csrf")
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWith(""))
	token, err := csrf.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	again, _ := csrf.EnsureToken(ctx, sess)
	if again != token {
		t.Fatalf("token must be stable within a session")
	}
	if err := csrf.VerifyToken(ctx, sess, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := csrf.VerifyToken(ctx, sess, ""); !errors.Is(err, ErrCSRFTokenMissing) {
		t.Fatalf("expected missing, got %v", err)
	}
	if err := csrf.VerifyToken(ctx, sess, token+"x"); !errors.Is(err, ErrCSRFTokenMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}

	other, _ := sm.Load(ctx, requestWith(""))
	other.Set(CSRFSessionKey, token)
	if err := csrf.VerifyToken(ctx, other, token); !errors.Is(err, ErrCSRFTokenMismatch) {
		t.Fatalf("token copied to another session must fail, got %v", err)
	}
}
