package repo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/activity-log/internal/config"
	"github.com/pkordes/activity-log/internal/repo"
)

func TestOpen_SQLiteAndMemory(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"sqlite", config.Config{SlotBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "slot.db")}},
		{"memory", config.Config{SlotBackend: config.BackendMemory}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, closeFn, err := repo.Open(ctx, tt.cfg, nil)
			require.NoError(t, err)
			t.Cleanup(closeFn)

			require.NoError(t, kv.Set(ctx, repo.DefaultKey, "[]"))
			got, ok, err := kv.Get(ctx, repo.DefaultKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "[]", got)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"postgres without url", config.Config{SlotBackend: config.BackendPostgres}, "DATABASE_URL"},
		{"redis without url", config.Config{SlotBackend: config.BackendRedis}, "REDIS_URL"},
		{"unknown", config.Config{SlotBackend: "etcd"}, "unknown slot backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := repo.Open(context.Background(), tt.cfg, nil)
			require.ErrorContains(t, err, tt.want)
		})
	}
}
