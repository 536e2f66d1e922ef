package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"papalote-market/internal/models"
	"papalote-market/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher publishes cart analytics events. It satisfies the cart
// container's AnalyticsPublisher contract.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishAddToCart publishes an add_to_cart event, keyed by the first line's
// product id so per-product aggregation sees events in order.
func (ep *EventPublisher) PublishAddToCart(ctx context.Context, event *models.AddToCartEvent) error {
	key := event.EventID
	if len(event.Items) > 0 {
		key = fmt.Sprintf("product-%s", event.Items[0].ItemID)
	}
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCartCleared publishes a cart_cleared event
func (ep *EventPublisher) PublishCartCleared(ctx context.Context, event *models.CartClearedEvent) error {
	return ep.producer.PublishEvent(ctx, event.EventID, event)
}

// EventHandler routes incoming analytics events to registered callbacks
type EventHandler struct {
	logger        *zap.Logger
	onAddToCart   func(context.Context, *models.AddToCartEvent) error
	onCartCleared func(context.Context, *models.CartClearedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnAddToCart registers a handler for add_to_cart events
func (eh *EventHandler) OnAddToCart(handler func(context.Context, *models.AddToCartEvent) error) {
	eh.onAddToCart = handler
}

// OnCartCleared registers a handler for cart_cleared events
func (eh *EventHandler) OnCartCleared(handler func(context.Context, *models.CartClearedEvent) error) {
	eh.onCartCleared = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event", baseEvent.Event),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.Event {
	case models.EventAddToCart:
		if eh.onAddToCart != nil {
			var event models.AddToCartEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal add_to_cart event: %w", err)
			}
			return eh.onAddToCart(ctx, &event)
		}

	case models.EventCartCleared:
		if eh.onCartCleared != nil {
			var event models.CartClearedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal cart_cleared event: %w", err)
			}
			return eh.onCartCleared(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event", baseEvent.Event))
	}

	return nil
}
