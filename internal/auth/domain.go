package auth

import "time"

// SessionDuration is the default lifetime of an authenticated session.
const SessionDuration = 8 * time.Hour

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a dashboard account.
type User struct {
	Username     string `toml:"username" validate:"required"`
	Name         string `toml:"name" validate:"required"`
	Role         string `toml:"role" validate:"required,oneof=admin user"`
	PasswordHash string `toml:"password_hash" validate:"required"`
	IsActive     bool   `toml:"active"`
}

// CurrentUser is the identity stored in an authenticated session.
type CurrentUser struct {
	Username  string
	Name      string
	Role      string
	LoginAt   time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *CurrentUser) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
