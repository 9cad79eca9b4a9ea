package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/activity-log/migrations"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgKV is the Postgres implementation of KeyValueStore.
type pgKV struct {
	db db
}

// NewPostgresKV constructs a KeyValueStore backed by the kv_slots table.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
// The schema must already be applied with Migrate.
func NewPostgresKV(db db) KeyValueStore {
	return &pgKV{db: db}
}

// Get reads the slot stored under key.
func (r *pgKV) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM kv_slots WHERE key = @key`

	var value string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("repo.PostgresKV.Get: %w", err)
	}
	return value, true, nil
}

// Set upserts the slot stored under key in a single statement.
func (r *pgKV) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES (@key, @value, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"key": key, "value": value}); err != nil {
		return fmt.Errorf("repo.PostgresKV.Set: %w", err)
	}
	return nil
}

// Migrate applies all pending migrations from migrations.FS to the database.
// goose needs database/sql, so callers open a *sql.DB with the pgx stdlib driver.
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("repo.Migrate: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("repo.Migrate: up: %w", err)
	}
	return nil
}
