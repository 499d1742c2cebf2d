package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablero-fiscal/tablero/internal/auth"
)

// UserStore persists dashboard accounts.
type UserStore interface {
	UpsertUser(ctx context.Context, u auth.User) error
}

// UserAddOptions defines the flags of the users add command.
type UserAddOptions struct {
	Username string
	Name     string
	Role     string
	Password string
	Stdout   io.Writer
	Stderr   io.Writer
}

// UsersCLI manages dashboard accounts from the command line.
type UsersCLI struct {
	store    UserStore
	validate *validator.Validate
	cost     int
}

// NewUsersCLI constructs the helper. store may be nil when only hashing is needed.
func NewUsersCLI(store UserStore) *UsersCLI {
	return &UsersCLI{store: store, validate: validator.New(), cost: bcrypt.DefaultCost}
}

// Hash returns the bcrypt hash for a password, for use in the users TOML file.
func (c *UsersCLI) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// HashCommand prints the bcrypt hash of password.
func (c *UsersCLI) HashCommand(password string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	hash, err := c.Hash(password)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "users hash: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, hash)
	return 0
}

// AddCommand creates or replaces an account in the store.
func (c *UsersCLI) AddCommand(ctx context.Context, opts UserAddOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if c.store == nil {
		_, _ = fmt.Fprintln(opts.Stderr, "users add: no user store configured")
		return 1
	}
	hash, err := c.Hash(opts.Password)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "users add: %v\n", err)
		return 1
	}
	role := strings.TrimSpace(opts.Role)
	if role == "" {
		role = auth.RoleUser
	}
	user := auth.User{
		Username:     strings.TrimSpace(opts.Username),
		Name:         strings.TrimSpace(opts.Name),
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := c.validate.Struct(user); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "users add: %v\n", err)
		return 1
	}
	if err := c.store.UpsertUser(ctx, user); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "users add: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "user %s saved (%s)\n", user.Username, user.Role)
	return 0
}
