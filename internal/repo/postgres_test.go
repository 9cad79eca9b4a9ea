package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/activity-log/internal/repo"
	"github.com/pkordes/activity-log/testutil"
)

// newTestPostgresKV opens a transaction against the test database and returns
// a KeyValueStore backed by that transaction. The transaction is rolled back
// when the test finishes, giving free per-test isolation.
func newTestPostgresKV(t *testing.T) repo.KeyValueStore {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewPostgresKV(tx)
}

func TestPostgresKV(t *testing.T) {
	kvContract(t, newTestPostgresKV(t))
}
