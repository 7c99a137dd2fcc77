package service

import (
	"context"
	"strings"
	"time"

	"github.com/TRY-X-CARE/Shaastrayog/internal/mailer"
	"github.com/TRY-X-CARE/Shaastrayog/internal/models"
	"github.com/TRY-X-CARE/Shaastrayog/internal/shipping"
	"github.com/TRY-X-CARE/Shaastrayog/internal/util"

	"go.uber.org/zap"
)

const (
	taskShipment = "shipment"
	taskMail     = "confirmation_mail"

	taskMarkerTTL = 24 * time.Hour
)

// Shipper creates carrier shipments.
type Shipper interface {
	CreateShipment(ctx context.Context, req shipping.ShipmentRequest) (string, error)
}

// OrderNotifier sends order confirmation mail.
type OrderNotifier interface {
	SendOrderConfirmation(ctx context.Context, conf mailer.OrderConfirmation) error
}

// TaskTracker provides per-task idempotency markers so client retries and
// event redeliveries do not duplicate shipments or mail.
type TaskTracker interface {
	MarkTaskDone(ctx context.Context, orderID, task string, ttl time.Duration) (bool, error)
	ClearTaskMarker(ctx context.Context, orderID, task string) error
}

// FulfillmentService runs the best-effort post-commit tasks for a finalized
// order: shipment creation, then the confirmation mail. Task failures are
// logged and never reach the customer-facing response.
type FulfillmentService struct {
	shipper     Shipper
	notifier    OrderNotifier
	tasks       TaskTracker
	maxAttempts int
	retryDelay  time.Duration
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewFulfillmentService creates a fulfillment runner.
func NewFulfillmentService(shipper Shipper, notifier OrderNotifier, tasks TaskTracker, maxAttempts int, retryDelay, callTimeout time.Duration) *FulfillmentService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if retryDelay < 0 {
		retryDelay = 0
	}
	return &FulfillmentService{
		shipper:     shipper,
		notifier:    notifier,
		tasks:       tasks,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		callTimeout: callTimeout,
		logger:      util.GetLogger(),
	}
}

// runTask executes one idempotency-guarded task with retries. The marker is
// cleared on final failure so a redelivered event can try again.
func (fs *FulfillmentService) runTask(ctx context.Context, orderID, task string, fn func(ctx context.Context) error) {
	claimed, err := fs.tasks.MarkTaskDone(ctx, orderID, task, taskMarkerTTL)
	if err != nil {
		fs.logger.Warn("Task marker unavailable, running task anyway",
			zap.String("order_id", orderID), zap.String("task", task), zap.Error(err))
	} else if !claimed {
		util.FulfillmentTasksSkippedTotal.Inc()
		fs.logger.Info("Task already done, skipping",
			zap.String("order_id", orderID), zap.String("task", task))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= fs.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, fs.callTimeout)
		lastErr = fn(callCtx)
		cancel()
		if lastErr == nil {
			return
		}
		fs.logger.Warn("Fulfillment task attempt failed",
			zap.String("order_id", orderID),
			zap.String("task", task),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < fs.maxAttempts {
			time.Sleep(fs.retryDelay)
		}
	}

	if err == nil {
		if clearErr := fs.tasks.ClearTaskMarker(ctx, orderID, task); clearErr != nil {
			fs.logger.Error("Failed to clear task marker",
				zap.String("order_id", orderID), zap.String("task", task), zap.Error(clearErr))
		}
	}
	fs.logger.Error("Fulfillment task exhausted retries",
		zap.String("order_id", orderID),
		zap.String("task", task),
		zap.Error(lastErr))
}

func productSummary(event *models.FulfillmentRequestedEvent) (name string, quantity int) {
	if len(event.Items) == 0 {
		return "Order " + event.OrderID, 1
	}
	names := make([]string, 0, len(event.Items))
	for _, item := range event.Items {
		names = append(names, item.Name)
		quantity += item.Quantity
	}
	return strings.Join(names, ", "), quantity
}

// Handle runs the fulfillment tasks for one event, in order: shipment first,
// then the confirmation mail. Both are best-effort; the order is already
// final by the time this runs.
func (fs *FulfillmentService) Handle(ctx context.Context, event *models.FulfillmentRequestedEvent) error {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.Handle")
	defer span.End()

	var trackingRef string

	if event.Shipping != nil {
		fs.runTask(ctx, event.OrderID, taskShipment, func(ctx context.Context) error {
			name, quantity := productSummary(event)
			awb, err := fs.shipper.CreateShipment(ctx, shipping.ShipmentRequest{
				ConsigneeName:     event.CustomerName,
				Address:           event.Shipping.Address,
				City:              event.Shipping.City,
				State:             event.Shipping.State,
				Pincode:           event.Shipping.Pincode,
				Phone:             event.CustomerPhone,
				OrderNumber:       event.OrderID,
				ProductName:       name,
				Quantity:          quantity,
				Price:             event.Total,
				PaymentMode:       event.PaymentMode,
				CollectableAmount: event.CollectableTotal,
			})
			if err != nil {
				return err
			}
			trackingRef = awb
			return nil
		})
	}

	if event.CustomerEmail != "" {
		fs.runTask(ctx, event.OrderID, taskMail, func(ctx context.Context) error {
			address := ""
			if event.Shipping != nil {
				address = strings.Join([]string{
					event.Shipping.Address, event.Shipping.City,
					event.Shipping.State, event.Shipping.Pincode,
				}, ", ")
			}

			invoiceHTML, err := mailer.RenderInvoice(mailer.InvoiceData{
				OrderID:         event.OrderID,
				CustomerName:    event.CustomerName,
				Items:           event.Items,
				Total:           event.Total,
				Date:            time.Now().Format("02/01/2006"),
				ShippingAddress: address,
				PaymentMethod:   event.PaymentMethod,
			})
			if err != nil {
				return err
			}

			return fs.notifier.SendOrderConfirmation(ctx, mailer.OrderConfirmation{
				Email:       event.CustomerEmail,
				OrderID:     event.OrderID,
				TrackingRef: trackingRef,
				InvoiceHTML: invoiceHTML,
			})
		})
	}

	return nil
}
