package recent

import (
	"context"
	"encoding/json"
	"time"

	"papalote-market/internal/models"
	"papalote-market/internal/storage"
	"papalote-market/internal/util"

	"go.uber.org/zap"
)

const (
	storageKey = "papalote-recently-viewed"

	// MaxEntries bounds the persisted view history
	MaxEntries = 10
)

// Tracker keeps the capped, most-recent-first list of viewed product ids.
// A nil store means no durable medium is available; every operation then
// degrades to a no-op rather than an error.
type Tracker struct {
	store  storage.Store
	logger *zap.Logger
}

// NewTracker creates a recently-viewed tracker backed by store
func NewTracker(store storage.Store) *Tracker {
	return &Tracker{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Add records a product view. An id already in the list moves to the front
// with a fresh timestamp; the list is truncated to MaxEntries.
func (t *Tracker) Add(ctx context.Context, productID string) {
	if t.store == nil || productID == "" {
		return
	}

	entries := t.load(ctx)

	kept := make([]models.RecentlyViewedEntry, 0, len(entries)+1)
	kept = append(kept, models.RecentlyViewedEntry{ID: productID, ViewedAt: time.Now()})
	for _, e := range entries {
		if e.ID != productID {
			kept = append(kept, e)
		}
	}
	if len(kept) > MaxEntries {
		kept = kept[:MaxEntries]
	}

	t.save(ctx, kept)
	util.RecentlyViewedTrackedTotal.Inc()
}

// Entries returns the persisted view history, most recent first
func (t *Tracker) Entries(ctx context.Context) []models.RecentlyViewedEntry {
	if t.store == nil {
		return nil
	}
	return t.load(ctx)
}

// IDs returns just the ordered product ids
func (t *Tracker) IDs(ctx context.Context) []string {
	entries := t.Entries(ctx)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// IDsExcluding returns the ordered ids with one id filtered out. The error
// is always nil; read failures degrade to an empty list. The signature
// satisfies the recommendation engine's recent-source contract.
func (t *Tracker) IDsExcluding(ctx context.Context, excludeID string) ([]string, error) {
	ids := t.IDs(ctx)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != excludeID {
			out = append(out, id)
		}
	}
	return out, nil
}

// Clear deletes the persisted history entirely
func (t *Tracker) Clear(ctx context.Context) {
	if t.store == nil {
		return
	}
	if err := t.store.Delete(ctx, storageKey); err != nil {
		t.logger.Error("Failed to clear recently viewed", zap.Error(err))
	}
}

func (t *Tracker) load(ctx context.Context) []models.RecentlyViewedEntry {
	raw, found, err := t.store.Get(ctx, storageKey)
	if err != nil {
		t.logger.Error("Failed to read recently viewed", zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	var entries []models.RecentlyViewedEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.logger.Warn("Discarding corrupt recently viewed payload", zap.Error(err))
		util.StorageCorruptionTotal.WithLabelValues(storageKey).Inc()
		return nil
	}
	return entries
}

func (t *Tracker) save(ctx context.Context, entries []models.RecentlyViewedEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		t.logger.Error("Failed to marshal recently viewed", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, storageKey, string(data)); err != nil {
		t.logger.Error("Failed to persist recently viewed", zap.Error(err))
	}
}
