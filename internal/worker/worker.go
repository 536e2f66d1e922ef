package worker

import (
	"context"
	"time"

	"papalote-market/internal/broker"
	"papalote-market/internal/models"
	"papalote-market/internal/util"

	"go.uber.org/zap"
)

// processedTTL bounds how long event ids are remembered for deduplication.
const processedTTL = 24 * time.Hour

// Recorder is the slice of the Redis store the worker needs: event
// deduplication and the popularity ranking.
type Recorder interface {
	MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IncrPopularity(ctx context.Context, productID string, delta float64) error
}

// AnalyticsWorker consumes cart analytics events and maintains the product
// popularity ranking. Duplicate deliveries are dropped by event id.
type AnalyticsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	recorder     Recorder
	logger       *zap.Logger
}

// NewAnalyticsWorker creates a new analytics worker
func NewAnalyticsWorker(consumer *broker.Consumer, recorder Recorder) *AnalyticsWorker {
	w := &AnalyticsWorker{
		consumer: consumer,
		recorder: recorder,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnAddToCart(w.handleAddToCart)
	eventHandler.OnCartCleared(w.handleCartCleared)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AnalyticsWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting analytics worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AnalyticsWorker) Stop() error {
	w.logger.Info("Stopping analytics worker")
	return w.consumer.Close()
}

func (w *AnalyticsWorker) handleAddToCart(ctx context.Context, event *models.AddToCartEvent) error {
	fresh, err := w.recorder.MarkEventProcessed(ctx, event.EventID, processedTTL)
	if err != nil {
		util.AnalyticsEventsProcessedTotal.WithLabelValues("error").Inc()
		return err
	}
	if !fresh {
		w.logger.Debug("Skipping duplicate event", zap.String("event_id", event.EventID))
		util.AnalyticsEventsProcessedTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	for _, line := range event.Items {
		if err := w.recorder.IncrPopularity(ctx, line.ItemID, float64(line.Quantity)); err != nil {
			w.logger.Error("Failed to bump product popularity",
				zap.String("product_id", line.ItemID),
				zap.Error(err))
		}
	}

	util.AnalyticsEventsProcessedTotal.WithLabelValues("ok").Inc()
	return nil
}

func (w *AnalyticsWorker) handleCartCleared(ctx context.Context, event *models.CartClearedEvent) error {
	fresh, err := w.recorder.MarkEventProcessed(ctx, event.EventID, processedTTL)
	if err != nil {
		util.AnalyticsEventsProcessedTotal.WithLabelValues("error").Inc()
		return err
	}
	if !fresh {
		util.AnalyticsEventsProcessedTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	w.logger.Info("Cart cleared", zap.Int("item_count", event.ItemCount))
	util.AnalyticsEventsProcessedTotal.WithLabelValues("ok").Inc()
	return nil
}
