package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablero-fiscal/tablero/internal/shared"
)

func newSession(t *testing.T) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	manager := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "s", "secret", time.Hour, false)
	sess, err := manager.Load(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	return sess
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	repo := NewStaticRepository(
		User{Username: "admin", Name: "Administrador", Role: RoleAdmin, PasswordHash: hashed(t, "admin123"), IsActive: true},
		User{Username: "baja", Name: "Usuario de baja", Role: RoleUser, PasswordHash: hashed(t, "clave"), IsActive: false},
	)
	c := &clock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, 8*time.Hour)
	svc.WithClock(c.Now)
	return svc, c
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, " admin ", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "Administrador", user.Name)

	for _, tc := range []struct{ username, password string }{
		{"admin", "nope"},
		{"ghost", "admin123"},
		{"baja", "clave"},
		{"", ""},
	} {
		_, err := svc.Authenticate(ctx, tc.username, tc.password)
		assert.True(t, errors.Is(err, shared.ErrInvalidCredentials), "%s/%s", tc.username, tc.password)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, c := newTestService(t)
	sess := newSession(t)

	_, err := svc.Login(context.Background(), sess, "admin", "admin123")
	require.NoError(t, err)
	user := svc.CurrentUser(sess)
	require.NotNil(t, user)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, 8*time.Hour, svc.TimeRemaining(sess))

	c.now = c.now.Add(2*time.Hour + 30*time.Second)
	assert.Equal(t, 5*time.Hour+59*time.Minute, svc.TimeRemaining(sess))

	viewer := svc.Viewer(sess)
	require.NotNil(t, viewer)
	assert.Equal(t, 359, viewer.MinutesLeft)

	c.now = c.now.Add(6 * time.Hour)
	assert.Nil(t, svc.CurrentUser(sess))
	assert.Empty(t, sess.User())
	assert.Zero(t, svc.TimeRemaining(sess))
}

func TestExtend(t *testing.T) {
	svc, c := newTestService(t)
	sess := newSession(t)
	_, err := svc.Login(context.Background(), sess, "admin", "admin123")
	require.NoError(t, err)

	c.now = c.now.Add(2 * time.Minute)
	assert.False(t, svc.Extend(sess), "recent sessions are not rewritten")

	c.now = c.now.Add(time.Hour)
	assert.True(t, svc.Extend(sess))
	assert.Equal(t, 8*time.Hour, svc.TimeRemaining(sess))

	svc.Logout(sess)
	assert.False(t, svc.Extend(sess))
	assert.False(t, svc.IsAuthenticated(sess))
}

func TestParseStaticRepository(t *testing.T) {
	repo, err := ParseStaticRepository([]byte(`
[[user]]
username = "admin"
name = "Administrador"
role = "admin"
password_hash = "$2a$10$abcdefghijklmnopqrstuu"
active = true
`))
	require.NoError(t, err)
	u, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, err = ParseStaticRepository([]byte(`
[[user]]
username = "x"
name = "X"
role = "superuser"
password_hash = "h"
`))
	assert.Error(t, err)
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()
	ctx := context.Background()

	_, err = repo.FindByUsername(ctx, "admin")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.UpsertUser(ctx, User{Username: "admin", Name: "Admin", Role: RoleAdmin, PasswordHash: hashed(t, "x"), IsActive: true}))
	require.NoError(t, repo.UpsertUser(ctx, User{Username: "admin", Name: "Administrador", Role: RoleAdmin, PasswordHash: hashed(t, "x"), IsActive: true}))
	u, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Administrador", u.Name)

	svc := NewService(repo, time.Hour)
	require.NoError(t, svc.RegisterSession(ctx, "sess-1", "admin", time.Now().Add(time.Hour), "10.0.0.1", "curl"))
	n, err := repo.SessionCount(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, svc.RemoveSession(ctx, "sess-1"))
	n, err = repo.SessionCount(ctx, "admin")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/monitor", safeRedirect("/monitor"))
	assert.Equal(t, "/", safeRedirect("https://evil.example"))
	assert.Equal(t, "/", safeRedirect("//evil.example"))
	assert.Equal(t, "/", safeRedirect(LoginPath+"?x=1"))
	assert.Equal(t, "/", safeRedirect(""))
}
