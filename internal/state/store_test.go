package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Run{TransactionID: "tx-1", Step: "generate", Outcome: "success", Duration: 120 * time.Millisecond}))
	require.NoError(t, s.Record(ctx, Run{TransactionID: "tx-2", Step: "build-prepare", Outcome: "failed", Duration: 40 * time.Millisecond}))

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Most recent first.
	assert.Equal(t, "tx-2", runs[0].TransactionID)
	assert.Equal(t, "failed", runs[0].Outcome)
	assert.Equal(t, 40*time.Millisecond, runs[0].Duration)
	assert.Equal(t, "tx-1", runs[1].TransactionID)
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Run{TransactionID: "tx", Step: "doctor", Outcome: "success"}))
	}

	runs, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestByTransaction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Run{TransactionID: "tx-a", Step: "build-prepare", Outcome: "success"}))
	require.NoError(t, s.Record(ctx, Run{TransactionID: "tx-a", Step: "build-finalize", Outcome: "success"}))
	require.NoError(t, s.Record(ctx, Run{TransactionID: "tx-b", Step: "clean", Outcome: "success"}))

	runs, err := s.ByTransaction(ctx, "tx-a")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Ordered by insertion.
	assert.Equal(t, "build-prepare", runs[0].Step)
	assert.Equal(t, "build-finalize", runs[1].Step)
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
