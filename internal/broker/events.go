package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/TRY-X-CARE/Shaastrayog/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes domain events onto the fulfillment topic.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishFulfillmentRequested publishes the post-commit fulfillment event
// for an order. It must only be called once the payment/COD decision is
// final.
func (ep *EventPublisher) PublishFulfillmentRequested(ctx context.Context, event *models.FulfillmentRequestedEvent) error {
	key := fmt.Sprintf("order-%s", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming messages to registered handlers.
type EventHandler struct {
	onFulfillmentRequested func(context.Context, *models.FulfillmentRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnFulfillmentRequested registers a handler for fulfillment events
func (eh *EventHandler) OnFulfillmentRequested(handler func(context.Context, *models.FulfillmentRequestedEvent) error) {
	eh.onFulfillmentRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeFulfillmentRequested:
		if eh.onFulfillmentRequested != nil {
			var event models.FulfillmentRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal FulfillmentRequested event: %w", err)
			}
			return eh.onFulfillmentRequested(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
