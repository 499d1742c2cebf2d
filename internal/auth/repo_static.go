package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/tablero-fiscal/tablero/internal/shared"
)

// StaticRepository serves a fixed user table loaded from TOML. Sessions are not audited.
type StaticRepository struct {
	users map[string]User
}

type usersFile struct {
	Users []User `toml:"user" validate:"required,min=1,dive"`
}

// LoadStaticRepository reads the user table from path.
func LoadStaticRepository(path string) (*StaticRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users %s: %w", path, err)
	}
	return ParseStaticRepository(raw)
}

// ParseStaticRepository decodes and validates a TOML user table.
func ParseStaticRepository(data []byte) (*StaticRepository, error) {
	var file usersFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse users: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("validate users: %w", err)
	}
	return NewStaticRepository(file.Users...), nil
}

// NewStaticRepository builds a repository over users.
func NewStaticRepository(users ...User) *StaticRepository {
	repo := &StaticRepository{users: make(map[string]User, len(users))}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	return repo
}

// FindByUsername returns the user with the given username.
func (r *StaticRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

// CreateSession is a no-op.
func (r *StaticRepository) CreateSession(ctx context.Context, id, username string, expiresAt time.Time, ip, ua string) error {
	return nil
}

// DeleteSession is a no-op.
func (r *StaticRepository) DeleteSession(ctx context.Context, id string) error {
	return nil
}

var _ Repository = (*StaticRepository)(nil)
