package recent

import (
	"context"
	"fmt"
	"testing"

	"papalote-market/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrdersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(storage.NewMemoryStore())

	tracker.Add(ctx, "p1")
	tracker.Add(ctx, "p2")
	tracker.Add(ctx, "p3")

	assert.Equal(t, []string{"p3", "p2", "p1"}, tracker.IDs(ctx))
}

func TestAddMovesExistingToFront(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(storage.NewMemoryStore())

	tracker.Add(ctx, "p1")
	tracker.Add(ctx, "p2")
	tracker.Add(ctx, "p1")

	ids := tracker.IDs(ctx)
	assert.Equal(t, []string{"p1", "p2"}, ids, "re-view should move, not duplicate")
}

func TestAddCapsAtMaxEntries(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(storage.NewMemoryStore())

	for i := 0; i < MaxEntries+5; i++ {
		tracker.Add(ctx, fmt.Sprintf("p%d", i))
	}

	ids := tracker.IDs(ctx)
	require.Len(t, ids, MaxEntries)
	assert.Equal(t, fmt.Sprintf("p%d", MaxEntries+4), ids[0], "newest entry kept")
	assert.NotContains(t, ids, "p0", "oldest entries dropped")
}

func TestIDsExcluding(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(storage.NewMemoryStore())

	tracker.Add(ctx, "p1")
	tracker.Add(ctx, "p2")
	tracker.Add(ctx, "p3")

	ids, err := tracker.IDsExcluding(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, ids)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	tracker := NewTracker(store)

	tracker.Add(ctx, "p1")
	tracker.Clear(ctx)

	assert.Empty(t, tracker.IDs(ctx))
	_, found, err := store.Get(ctx, "papalote-recently-viewed")
	require.NoError(t, err)
	assert.False(t, found, "key deleted, not emptied")
}

func TestCorruptPayloadTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "papalote-recently-viewed", "not-valid-json"))

	tracker := NewTracker(store)
	assert.Empty(t, tracker.IDs(ctx))

	// A fresh view replaces the corrupt payload.
	tracker.Add(ctx, "p1")
	assert.Equal(t, []string{"p1"}, tracker.IDs(ctx))
}

func TestNilStoreIsNoOp(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil)

	tracker.Add(ctx, "p1")
	tracker.Clear(ctx)

	assert.Empty(t, tracker.IDs(ctx))
	ids, err := tracker.IDsExcluding(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
