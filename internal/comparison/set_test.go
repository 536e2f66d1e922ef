package comparison

import (
	"context"
	"fmt"
	"testing"

	"papalote-market/internal/models"
	"papalote-market/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string) models.Product {
	return models.Product{ID: id, Name: "Producto " + id, Price: 100, InStock: true}
}

func TestAddAndDerivedReads(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	assert.True(t, s.IsEmpty())
	assert.False(t, s.IsFull())
	assert.Equal(t, DefaultMaxProducts, s.MaxProducts())

	assert.True(t, s.Add(ctx, product("p1")))
	assert.True(t, s.Contains("p1"))
	assert.Equal(t, 1, s.Count())
	assert.False(t, s.IsEmpty())
}

func TestAddDuplicateIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	require.True(t, s.Add(ctx, product("p1")))
	assert.False(t, s.Add(ctx, product("p1")))
	assert.Equal(t, 1, s.Count())
}

func TestAddBeyondCapacityRejectsAndNotifies(t *testing.T) {
	ctx := context.Background()
	calls := 0
	s := New(Options{OnLimitReached: func() { calls++ }})

	for i := 1; i <= 4; i++ {
		require.True(t, s.Add(ctx, product(fmt.Sprintf("p%d", i))))
	}
	require.True(t, s.IsFull())

	assert.False(t, s.Add(ctx, product("p5")))
	assert.Equal(t, 1, calls, "exactly one notification per rejected add")
	assert.Equal(t, 4, s.Count(), "set unchanged")
	assert.False(t, s.Contains("p5"))

	products := s.Products()
	require.Len(t, products, 4)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "p4", products[3].ID)
}

func TestDuplicateAddWhenFullDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	calls := 0
	s := New(Options{OnLimitReached: func() { calls++ }})

	for i := 1; i <= 4; i++ {
		s.Add(ctx, product(fmt.Sprintf("p%d", i)))
	}

	assert.False(t, s.Add(ctx, product("p1")), "already present")
	assert.Equal(t, 0, calls)
}

func TestConfigurableCapacity(t *testing.T) {
	ctx := context.Background()
	s := New(Options{MaxProducts: 2})

	assert.True(t, s.Add(ctx, product("p1")))
	assert.True(t, s.Add(ctx, product("p2")))
	assert.True(t, s.IsFull())
	assert.False(t, s.Add(ctx, product("p3")))
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	s.Add(ctx, product("p1"))
	s.Add(ctx, product("p2"))

	s.Remove(ctx, "p1")
	assert.False(t, s.Contains("p1"))
	assert.Equal(t, 1, s.Count())

	s.Remove(ctx, "ghost")
	assert.Equal(t, 1, s.Count())

	s.Clear(ctx)
	assert.True(t, s.IsEmpty())
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	assert.True(t, s.Toggle(ctx, product("p1")), "absent: toggled in")
	assert.False(t, s.Toggle(ctx, product("p1")), "present: toggled out")
	assert.False(t, s.Contains("p1"))
}

func TestToggleRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	calls := 0
	s := New(Options{OnLimitReached: func() { calls++ }})

	for i := 1; i <= 4; i++ {
		s.Add(ctx, product(fmt.Sprintf("p%d", i)))
	}

	assert.False(t, s.Toggle(ctx, product("p5")))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 4, s.Count())
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := New(Options{Store: store, Persist: true})
	first.Add(ctx, product("p1"))
	first.Add(ctx, product("p2"))

	second := New(Options{Store: store, Persist: true})
	assert.Equal(t, 2, second.Count())

	products := second.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "p2", products[1].ID)
}

func TestCorruptPayloadStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "product-comparison", "{{{"))

	s := New(Options{Store: store, Persist: true})
	assert.True(t, s.IsEmpty())
}

func TestRehydrateTruncatesToCapacity(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	wide := New(Options{Store: store, Persist: true, MaxProducts: 6})
	for i := 1; i <= 6; i++ {
		wide.Add(ctx, product(fmt.Sprintf("p%d", i)))
	}

	narrow := New(Options{Store: store, Persist: true, MaxProducts: 4})
	assert.Equal(t, 4, narrow.Count())
	assert.True(t, narrow.IsFull())
}

func TestPersistDisabledWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	s := New(Options{Store: store, Persist: false})
	s.Add(ctx, product("p1"))

	_, found, err := store.Get(ctx, "product-comparison")
	require.NoError(t, err)
	assert.False(t, found)
}
