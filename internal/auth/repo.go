package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablero-fiscal/tablero/internal/platform/db"
	"github.com/tablero-fiscal/tablero/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	CreateSession(ctx context.Context, id, username string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const pgFindUser = `SELECT username, name, role, password_hash, is_active
FROM dashboard_users
WHERE username = $1`

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, pgFindUser, username).Scan(&user.Username, &user.Name, &user.Role, &user.PasswordHash, &user.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

const pgCreateSession = `INSERT INTO dashboard_sessions (id, username, created_at, expires_at, ip, ua)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, expires_at = EXCLUDED.expires_at`

const pgPurgeSessions = `DELETE FROM dashboard_sessions WHERE username = $1 AND expires_at < $2`

// CreateSession persists a login session for auditing and drops the user's expired ones.
func (r *PGRepository) CreateSession(ctx context.Context, id, username string, expiresAt time.Time, ip, ua string) error {
	now := pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pgPurgeSessions, username, now); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, pgCreateSession,
			id,
			username,
			now,
			pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
			pgtype.Text{String: ip, Valid: ip != ""},
			pgtype.Text{String: ua, Valid: ua != ""},
		)
		return err
	})
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM dashboard_sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
