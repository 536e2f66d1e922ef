package worker

import (
	"context"
	"testing"
	"time"

	"papalote-market/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type fakeRecorder struct {
	seen       map[string]bool
	popularity map[string]float64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		seen:       make(map[string]bool),
		popularity: make(map[string]float64),
	}
}

func (f *fakeRecorder) MarkEventProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *fakeRecorder) IncrPopularity(_ context.Context, productID string, delta float64) error {
	f.popularity[productID] += delta
	return nil
}

func addEvent(eventID string) *models.AddToCartEvent {
	return &models.AddToCartEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			Event:     models.EventAddToCart,
			Timestamp: time.Now(),
		},
		Currency: "MXN",
		Value:    3000,
		Items: []models.CartLine{
			{ItemID: "p1", ItemName: "Alebrije", Price: 1500, Quantity: 2},
		},
	}
}

func TestHandleAddToCartBumpsPopularity(t *testing.T) {
	recorder := newFakeRecorder()
	w := &AnalyticsWorker{recorder: recorder, logger: testLogger()}

	require.NoError(t, w.handleAddToCart(context.Background(), addEvent("e1")))
	assert.Equal(t, 2.0, recorder.popularity["p1"], "popularity weighted by quantity")
}

func TestHandleAddToCartDeduplicates(t *testing.T) {
	recorder := newFakeRecorder()
	w := &AnalyticsWorker{recorder: recorder, logger: testLogger()}

	ctx := context.Background()
	require.NoError(t, w.handleAddToCart(ctx, addEvent("e1")))
	require.NoError(t, w.handleAddToCart(ctx, addEvent("e1")))

	assert.Equal(t, 2.0, recorder.popularity["p1"], "redelivery counted once")
}
