package resultstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework/ctest"
)

func openTempSQLite(t *testing.T) *SQLiteStore {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteSaveAndReadBack(t *testing.T) {
	store := openTempSQLite(t)
	ctx := context.Background()

	rec := NewRunRecord("go-widgets", sampleResults(), runStart, runEnd)
	require.NoError(t, store.SaveRun(ctx, rec))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec, runs[0])
}

func TestSQLiteRecentRunsNewestFirst(t *testing.T) {
	store := openTempSQLite(t)
	ctx := context.Background()

	var saved []RunRecord
	for i := 0; i < 3; i++ {
		start := runStart.Add(time.Duration(i) * time.Hour)
		rec := NewRunRecord("go-widgets", ctest.Results{}, start, start.Add(time.Minute))
		require.NoError(t, store.SaveRun(ctx, rec))
		saved = append(saved, rec)
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, saved[2].RunID, runs[0].RunID)
	assert.Equal(t, saved[1].RunID, runs[1].RunID)
	assert.Nil(t, runs[0].Failures)
}

func TestSQLiteDuplicateRunIsRejected(t *testing.T) {
	store := openTempSQLite(t)
	ctx := context.Background()
	rec := NewRunRecord("go-widgets", sampleResults(), runStart, runEnd)
	require.NoError(t, store.SaveRun(ctx, rec))
	assert.Error(t, store.SaveRun(ctx, rec))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].Failures, 2)
}

func TestSQLiteReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	rec := NewRunRecord("go-widgets", ctest.Results{}, runStart, runEnd)
	require.NoError(t, store.SaveRun(context.Background(), rec))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	runs, err := reopened.RecentRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.RunID, runs[0].RunID)
}
