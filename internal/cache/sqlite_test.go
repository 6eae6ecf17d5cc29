package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mathschool/sync-core/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	payload := map[string]string{"theme": "dark", "lang": "id"}
	require.NoError(t, store.Backup(ctx, models.CollectionPreferences, payload))

	var restored map[string]string
	hit, err := store.Restore(ctx, models.CollectionPreferences, &restored)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, payload, restored)
}

func TestSQLiteStoreOverwriteAndClear(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Backup(ctx, models.CollectionOfflineMode, false))
	require.NoError(t, store.Backup(ctx, models.CollectionOfflineMode, true))

	var offline bool
	hit, err := store.Restore(ctx, models.CollectionOfflineMode, &offline)
	require.NoError(t, err)
	require.True(t, hit)
	require.True(t, offline)

	require.NoError(t, store.ClearAll(ctx))
	require.NoError(t, store.ClearAll(ctx))

	hit, err = store.Restore(ctx, models.CollectionOfflineMode, &offline)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestSQLiteStoreUsage(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	usage, err := store.Usage(ctx)
	require.NoError(t, err)
	require.Zero(t, usage.Used)

	require.NoError(t, store.Backup(ctx, models.CollectionMaterials, []models.LearningMaterial{{ID: "m1", Title: "Fractions"}}))

	usage, err = store.Usage(ctx)
	require.NoError(t, err)
	require.Positive(t, usage.Used)
}

func TestSQLiteStoreMissingIsAbsent(t *testing.T) {
	store := newTestSQLiteStore(t)

	var dest []models.PendingOp
	hit, err := store.Restore(context.Background(), models.CollectionPendingSync, &dest)
	require.NoError(t, err)
	require.False(t, hit)
}
