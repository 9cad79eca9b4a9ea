package repo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/activity-log/internal/domain"
	"github.com/pkordes/activity-log/internal/repo"
)

func intPtr(v int) *int { return &v }

func activitiesFixture() []domain.Activity {
	return []domain.Activity{
		{ID: 1731024000000, Name: "Run", Date: "2025-11-08", Category: domain.CategoryHobby},
		{ID: 1731024000001, Name: "Exam", Description: "Maths", Date: "2025-11-10", Duration: intPtr(90), Category: domain.CategorySchool},
		{ID: 1731024000002, Name: "Read", Category: "Books"},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	raw, err := repo.EncodeActivities(activitiesFixture())
	require.NoError(t, err)

	got, err := repo.DecodeActivities(raw)
	require.NoError(t, err)

	if diff := cmp.Diff(activitiesFixture(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeActivities_OmitsAbsentOptionalFields(t *testing.T) {
	raw, err := repo.EncodeActivities([]domain.Activity{{ID: 7, Name: "Read", Category: "Books"}})
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id":7,"name":"Read","description":"","category":"Books"}]`, raw)
}

func TestEncodeActivities_NilIsEmptyArray(t *testing.T) {
	raw, err := repo.EncodeActivities(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestDecodeActivities_EmptyDateIsUndated(t *testing.T) {
	got, err := repo.DecodeActivities(`[{"id":1,"name":"Run","description":"","date":"","category":"Hobby"}]`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].HasDate())
	assert.Nil(t, got[0].Duration)
}

func TestDecodeActivities_BlankAndNull(t *testing.T) {
	for _, raw := range []string{"", "   ", "null"} {
		got, err := repo.DecodeActivities(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Empty(t, got, "input %q", raw)
		assert.NotNil(t, got, "input %q", raw)
	}
}

func TestDecodeActivities_Malformed(t *testing.T) {
	_, err := repo.DecodeActivities(`{not json`)
	assert.Error(t, err)
}

// kvContract exercises the behaviour every KeyValueStore backend must share.
func kvContract(t *testing.T, kv repo.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "absent key must report ok=false")

	require.NoError(t, kv.Set(ctx, repo.DefaultKey, `[{"id":1}]`))
	v, ok, err := kv.Get(ctx, repo.DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, kv.Set(ctx, repo.DefaultKey, `[]`))
	v, _, err = kv.Get(ctx, repo.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "Set must overwrite")
}

func TestMemoryKV(t *testing.T) {
	kvContract(t, repo.NewMemoryKV())
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activities.db")
	kv, err := repo.NewSQLiteKV(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	assert.Equal(t, path, kv.Path())
	kvContract(t, kv)
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "activities.db")

	first, err := repo.NewSQLiteKV(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, repo.DefaultKey, `[{"id":42}]`))
	require.NoError(t, first.Close())

	second, err := repo.NewSQLiteKV(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	v, ok, err := second.Get(ctx, repo.DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":42}]`, v)
}
