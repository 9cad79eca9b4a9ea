package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/activity-log/internal/config"
)

// Open builds the KeyValueStore selected by cfg.SlotBackend. The returned
// close func releases whatever connection the backend holds. Postgres
// migrations are applied before the pool is handed out.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (KeyValueStore, func(), error) {
	if log == nil {
		log = slog.Default()
	}

	switch cfg.SlotBackend {
	case config.BackendMemory:
		log.WarnContext(ctx, "using in-memory slot; activities will not survive a restart")
		return NewMemoryKV(), func() {}, nil

	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("repo.Open: postgres backend needs DATABASE_URL")
		}
		// goose drives migrations through database/sql; the pool serves requests.
		sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("repo.Open: open migration connection: %w", err)
		}
		defer sqlDB.Close()
		if err := Migrate(ctx, sqlDB); err != nil {
			return nil, nil, err
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("repo.Open: create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("repo.Open: connect to database: %w", err)
		}
		log.InfoContext(ctx, "database connection established")
		return NewPostgresKV(pool), pool.Close, nil

	case config.BackendRedis:
		if cfg.RedisURL == "" {
			return nil, nil, errors.New("repo.Open: redis backend needs REDIS_URL")
		}
		client, err := OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.InfoContext(ctx, "redis connection established")
		return NewRedisKV(client), func() { _ = client.Close() }, nil

	case config.BackendSQLite, "":
		kv, err := NewSQLiteKV(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.InfoContext(ctx, "sqlite slot opened", "path", kv.Path())
		return kv, func() { _ = kv.Close() }, nil
	}
	return nil, nil, fmt.Errorf("repo.Open: unknown slot backend %q", cfg.SlotBackend)
}
