package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tablero-fiscal/tablero/internal/auth"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/internal/platform/cache"
	"github.com/tablero-fiscal/tablero/internal/platform/db"
)

// AsynqRedis derives the asynq connection from REDIS_ADDR, which may be a redis:// URL.
func AsynqRedis(cfg *Config) (asynq.RedisClientOpt, error) {
	opts, err := cache.Options(cfg.RedisAddr)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

// NewSnapshotProvider builds the upstream snapshot provider selected by SNAPSHOT_SOURCE.
func NewSnapshotProvider(cfg *Config, logger *slog.Logger) (dataset.Provider, error) {
	switch cfg.SnapshotSource {
	case SnapshotFile:
		return dataset.NewFileProvider(cfg.SnapshotDir), nil
	case SnapshotHTTP:
		return dataset.NewHTTPProvider(cfg.SnapshotBaseURL, nil, 15*time.Second, logger), nil
	default:
		return nil, fmt.Errorf("unknown SNAPSHOT_SOURCE %q", cfg.SnapshotSource)
	}
}

// OpenAuthRepository opens the account store selected by AUTH_BACKEND. The returned func
// releases it.
func OpenAuthRepository(ctx context.Context, cfg *Config) (auth.Repository, func(), error) {
	switch cfg.AuthBackend {
	case AuthStatic:
		repo, err := auth.LoadStaticRepository(cfg.AuthUsersFile)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	case AuthPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return auth.NewRepository(pool), pool.Close, nil
	case AuthSQLite:
		repo, err := auth.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown AUTH_BACKEND %q", cfg.AuthBackend)
	}
}
