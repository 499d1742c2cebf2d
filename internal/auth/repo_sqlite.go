package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tablero-fiscal/tablero/internal/shared"
)

// SQLiteRepository keeps users and session audit rows in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS dashboard_users (
			username TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		);
		CREATE TABLE IF NOT EXISTS dashboard_sessions (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			ip TEXT,
			ua TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// UpsertUser creates or replaces a user.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboard_users (username, name, role, password_hash, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			password_hash = excluded.password_hash,
			is_active = excluded.is_active
	`, u.Username, u.Name, u.Role, u.PasswordHash, u.IsActive)
	return err
}

// FindByUsername fetches a user by username.
func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT username, name, role, password_hash, is_active
		FROM dashboard_users WHERE username = ?
	`, username).Scan(&u.Username, &u.Name, &u.Role, &u.PasswordHash, &u.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateSession records a login session.
func (r *SQLiteRepository) CreateSession(ctx context.Context, id, username string, expiresAt time.Time, ip, ua string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboard_sessions (id, username, created_at, expires_at, ip, ua)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, expires_at = excluded.expires_at
	`, id, username, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_sessions WHERE id = ?`, id)
	return err
}

// SessionCount returns the number of recorded sessions for username.
func (r *SQLiteRepository) SessionCount(ctx context.Context, username string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dashboard_sessions WHERE username = ?`, username).Scan(&n)
	return n, err
}

var _ Repository = (*SQLiteRepository)(nil)
