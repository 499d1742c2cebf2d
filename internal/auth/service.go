package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tablero-fiscal/tablero/internal/shared"
)

// Session keys holding the authenticated identity.
const (
	keyUser    = "auth_user"
	keyName    = "auth_name"
	keyRole    = "auth_role"
	keyLoginAt = "auth_login_at"
	keyExpires = "auth_expires_at"

	// RedirectKey stores the page a visitor asked for before being sent to login.
	RedirectKey = "redirect_after_login"
)

// extendAfter is how long a session must have been idle before Extend rewrites its expiry.
const extendAfter = 5 * time.Minute

// Service wraps authentication business rules.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewService constructs a new Service. A zero ttl uses SessionDuration.
func NewService(repo Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &Service{repo: repo, ttl: ttl, now: time.Now}
}

// WithClock overrides the service clock for testing.
func (s *Service) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, shared.ErrInvalidCredentials
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the credentials and binds the user to sess.
func (s *Service) Login(ctx context.Context, sess *shared.Session, username, password string) (*User, error) {
	if sess == nil {
		return nil, errors.New("auth: session missing")
	}
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess.SetUser(user.Username)
	sess.Set(keyUser, user.Username)
	sess.Set(keyName, user.Name)
	sess.Set(keyRole, user.Role)
	sess.Set(keyLoginAt, strconv.FormatInt(now.Unix(), 10))
	sess.Set(keyExpires, strconv.FormatInt(now.Add(s.ttl).Unix(), 10))
	return user, nil
}

// Logout clears the identity from sess.
func (s *Service) Logout(sess *shared.Session) {
	if sess == nil {
		return
	}
	for _, key := range []string{keyUser, keyName, keyRole, keyLoginAt, keyExpires} {
		sess.Delete(key)
	}
	sess.SetUser("")
}

// CurrentUser returns the identity bound to sess, or nil when absent or expired. An
// expired identity is cleared.
func (s *Service) CurrentUser(sess *shared.Session) *CurrentUser {
	if sess == nil || sess.Get(keyUser) == "" {
		return nil
	}
	expires := unixValue(sess.Get(keyExpires))
	if expires.IsZero() || !s.now().Before(expires) {
		s.Logout(sess)
		return nil
	}
	return &CurrentUser{
		Username:  sess.Get(keyUser),
		Name:      sess.Get(keyName),
		Role:      sess.Get(keyRole),
		LoginAt:   unixValue(sess.Get(keyLoginAt)),
		ExpiresAt: expires,
	}
}

// IsAuthenticated reports whether sess holds a live identity.
func (s *Service) IsAuthenticated(sess *shared.Session) bool {
	return s.CurrentUser(sess) != nil
}

// Extend pushes the expiry of a live session to a full ttl from now. Sessions renewed
// within the last few minutes are left untouched.
func (s *Service) Extend(sess *shared.Session) bool {
	user := s.CurrentUser(sess)
	if user == nil {
		return false
	}
	now := s.now()
	next := now.Add(s.ttl)
	if next.Sub(user.ExpiresAt) < extendAfter {
		return false
	}
	sess.Set(keyExpires, strconv.FormatInt(next.Unix(), 10))
	return true
}

// TimeRemaining returns how long the session stays valid, truncated to whole minutes.
func (s *Service) TimeRemaining(sess *shared.Session) time.Duration {
	user := s.CurrentUser(sess)
	if user == nil {
		return 0
	}
	return user.ExpiresAt.Sub(s.now()).Truncate(time.Minute)
}

// RegisterSession records the login in the repository for auditing.
func (s *Service) RegisterSession(ctx context.Context, id, username string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, username, expiresAt, ip, ua)
}

// RemoveSession deletes the audit record of a session.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func unixValue(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
