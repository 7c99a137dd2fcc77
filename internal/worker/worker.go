package worker

import (
	"context"
	"log"

	"github.com/TRY-X-CARE/Shaastrayog/internal/broker"
	"github.com/TRY-X-CARE/Shaastrayog/internal/service"
)

// FulfillmentWorker consumes fulfillment events and runs the post-commit
// tasks (shipment creation, confirmation mail) for each finalized order.
type FulfillmentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewFulfillmentWorker creates a new fulfillment worker
func NewFulfillmentWorker(consumer *broker.Consumer, fulfillment *service.FulfillmentService) *FulfillmentWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnFulfillmentRequested(fulfillment.Handle)

	return &FulfillmentWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *FulfillmentWorker) Start(ctx context.Context) error {
	log.Println("Starting fulfillment worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *FulfillmentWorker) Stop() error {
	log.Println("Stopping fulfillment worker...")
	return w.consumer.Close()
}
