package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TRY-X-CARE/Shaastrayog/internal/gateway"
	"github.com/TRY-X-CARE/Shaastrayog/internal/models"
	"github.com/TRY-X-CARE/Shaastrayog/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSignatureMismatch is returned when a payment-completion signature does
// not verify. The order record is left untouched and no side effects run.
var ErrSignatureMismatch = errors.New("payment signature mismatch")

// ErrOrderNotFound is returned when a verification callback references an
// order id with no pending record.
var ErrOrderNotFound = errors.New("no payment record for order")

// ValidationError reports a missing or malformed required input.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Gateway is the payment-provider surface the orchestrator needs.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMajor int64, currency string) (*gateway.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// PaymentStore persists order payment records.
type PaymentStore interface {
	SavePayment(ctx context.Context, p *models.Payment) error
	UpdatePaymentStatus(ctx context.Context, orderID, paymentID, status string) (*models.Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
}

// FulfillmentQueue accepts post-commit fulfillment events.
type FulfillmentQueue interface {
	PublishFulfillmentRequested(ctx context.Context, event *models.FulfillmentRequestedEvent) error
}

// PaymentNotifier sends the payment-received mail.
type PaymentNotifier interface {
	SendPaymentConfirmation(ctx context.Context, transactionID, email string) error
}

// CheckoutService drives the place-order flow for both the hosted-payment
// and cash-on-delivery paths.
type CheckoutService struct {
	gateway  Gateway
	store    PaymentStore
	queue    FulfillmentQueue
	notifier PaymentNotifier
	currency string
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout orchestrator.
func NewCheckoutService(gw Gateway, store PaymentStore, queue FulfillmentQueue, notifier PaymentNotifier, currency string) *CheckoutService {
	return &CheckoutService{
		gateway:  gw,
		store:    store,
		queue:    queue,
		notifier: notifier,
		currency: currency,
		logger:   util.GetLogger(),
	}
}

// CreateOrderRequest is the client's place-order submission.
type CreateOrderRequest struct {
	Amount        int64               `json:"amount"` // major units
	PaymentMethod string              `json:"paymentMethod,omitempty"`
	CustomerInfo  models.CustomerInfo `json:"customerInfo"`
	Items         []models.CartItem   `json:"items,omitempty"`
}

// CreateOrderResponse mirrors what the hosted payment widget needs.
type CreateOrderResponse struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"` // minor units
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Key      string `json:"key,omitempty"`
	Status   string `json:"status,omitempty"`
}

func (cs *CheckoutService) validateOrder(req *CreateOrderRequest) error {
	switch {
	case req.CustomerInfo.FirstName == "":
		return &ValidationError{Field: "firstName"}
	case req.CustomerInfo.Email == "":
		return &ValidationError{Field: "email"}
	case req.CustomerInfo.Phone == "":
		return &ValidationError{Field: "phone"}
	case req.Amount <= 0:
		return &ValidationError{Field: "amount"}
	}
	return nil
}

func customerFullName(info models.CustomerInfo) string {
	return strings.TrimSpace(info.FirstName + " " + info.LastName)
}

// CreateOrder creates a remote gateway order and persists the pending
// payment record. The record must exist in pending state before any
// verification callback can reference it.
func (cs *CheckoutService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateOrder")
	defer span.End()

	if err := cs.validateOrder(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	order, err := cs.gateway.CreateOrder(ctx, req.Amount, cs.currency)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("gateway").Inc()
		return nil, err
	}

	record := &models.Payment{
		OrderID:       order.ID,
		Amount:        order.Amount,
		Status:        models.PaymentStatusPending,
		CustomerName:  req.CustomerInfo.FirstName,
		CustomerPhone: req.CustomerInfo.Phone,
		CustomerEmail: req.CustomerInfo.Email,
	}
	if err := cs.store.SavePayment(ctx, record); err != nil {
		util.OrdersFailedTotal.WithLabelValues("store").Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.WithLabelValues("prepaid").Inc()
	cs.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount))

	return &CreateOrderResponse{
		ID:       order.ID,
		Currency: order.Currency,
		Amount:   order.Amount,
		Name:     req.CustomerInfo.FirstName,
		Phone:    req.CustomerInfo.Phone,
		Email:    req.CustomerInfo.Email,
		Key:      cs.gateway.KeyID(),
	}, nil
}

// ConfirmPaymentRequest is the gateway's client-posted completion payload,
// optionally carrying the checkout context so fulfillment can run
// server-side.
type ConfirmPaymentRequest struct {
	OrderID      string                  `json:"razorpay_order_id"`
	PaymentID    string                  `json:"razorpay_payment_id"`
	Signature    string                  `json:"razorpay_signature"`
	Email        string                  `json:"email"`
	CustomerName string                  `json:"customerName,omitempty"`
	Shipping     *models.ShippingAddress `json:"shipping,omitempty"`
	Items        []models.CartItem       `json:"items,omitempty"`
	Total        int64                   `json:"total,omitempty"` // major units
}

// ConfirmPayment verifies the completion signature, marks the order
// completed, and hands the best-effort side effects (confirmation mail,
// shipment) to the post-commit task list. A mismatched signature leaves the
// record untouched and triggers nothing.
func (cs *CheckoutService) ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.ConfirmPayment")
	defer span.End()

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, &ValidationError{Field: "razorpay callback fields"}
	}

	if !cs.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		util.PaymentsRejectedTotal.Inc()
		cs.logger.Warn("Payment signature rejected", zap.String("order_id", req.OrderID))
		return nil, ErrSignatureMismatch
	}

	record, err := cs.store.UpdatePaymentStatus(ctx, req.OrderID, req.PaymentID, models.PaymentStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if record == nil {
		cs.logger.Warn("Verification for unknown order", zap.String("order_id", req.OrderID))
		return nil, ErrOrderNotFound
	}

	util.PaymentsVerifiedTotal.Inc()
	cs.logger.Info("Payment verified",
		zap.String("order_id", req.OrderID),
		zap.String("payment_id", req.PaymentID))

	email := req.Email
	if email == "" {
		email = record.CustomerEmail
	}
	// The record only holds the first name; the consignee needs the full
	// name submitted with the confirmation.
	customerName := req.CustomerName
	if customerName == "" {
		customerName = record.CustomerName
	}
	if email != "" {
		if err := cs.notifier.SendPaymentConfirmation(ctx, req.PaymentID, email); err != nil {
			cs.logger.Error("Failed to send payment confirmation",
				zap.String("order_id", req.OrderID), zap.Error(err))
		}
	}

	event := &models.FulfillmentRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeFulfillmentRequested,
			Timestamp: time.Now(),
		},
		OrderID:          req.OrderID,
		PaymentMode:      models.PaymentModePrepaid,
		PaymentMethod:    "Razorpay",
		CustomerName:     customerName,
		CustomerEmail:    email,
		CustomerPhone:    record.CustomerPhone,
		Shipping:         req.Shipping,
		Items:            req.Items,
		Total:            req.Total,
		CollectableTotal: 0,
	}
	if err := cs.queue.PublishFulfillmentRequested(ctx, event); err != nil {
		cs.logger.Error("Failed to publish fulfillment event",
			zap.String("order_id", req.OrderID), zap.Error(err))
	}

	return record, nil
}

// PlaceCODOrder persists a pending cash-on-delivery order under a synthetic
// order id and hands fulfillment (shipment with collectable amount, invoice
// mail) to the post-commit task list. No gateway call is made.
func (cs *CheckoutService) PlaceCODOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceCODOrder")
	defer span.End()

	if err := cs.validateOrder(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	orderID := fmt.Sprintf("cod_%s", uuid.New().String()[:13])

	record := &models.Payment{
		OrderID:       orderID,
		Amount:        req.Amount * 100,
		Status:        models.PaymentStatusPending,
		CustomerName:  req.CustomerInfo.FirstName,
		CustomerPhone: req.CustomerInfo.Phone,
		CustomerEmail: req.CustomerInfo.Email,
	}
	if err := cs.store.SavePayment(ctx, record); err != nil {
		util.OrdersFailedTotal.WithLabelValues("store").Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.WithLabelValues("cod").Inc()
	cs.logger.Info("COD order placed",
		zap.String("order_id", orderID),
		zap.Int64("amount", record.Amount))

	event := &models.FulfillmentRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeFulfillmentRequested,
			Timestamp: time.Now(),
		},
		OrderID:       orderID,
		PaymentMode:   models.PaymentModeCOD,
		PaymentMethod: "Cash on Delivery",
		CustomerName:  customerFullName(req.CustomerInfo),
		CustomerEmail: req.CustomerInfo.Email,
		CustomerPhone: req.CustomerInfo.Phone,
		Shipping: &models.ShippingAddress{
			Address: req.CustomerInfo.Address,
			City:    req.CustomerInfo.City,
			State:   req.CustomerInfo.State,
			Pincode: req.CustomerInfo.PostalCode,
		},
		Items:            req.Items,
		Total:            req.Amount,
		CollectableTotal: req.Amount,
	}
	if err := cs.queue.PublishFulfillmentRequested(ctx, event); err != nil {
		cs.logger.Error("Failed to publish fulfillment event",
			zap.String("order_id", orderID), zap.Error(err))
	}

	return &CreateOrderResponse{
		ID:     orderID,
		Amount: record.Amount,
		Name:   req.CustomerInfo.FirstName,
		Phone:  req.CustomerInfo.Phone,
		Email:  req.CustomerInfo.Email,
		Status: models.PaymentStatusPending,
	}, nil
}

// GetOrder retrieves the payment record for an order id.
func (cs *CheckoutService) GetOrder(ctx context.Context, orderID string) (*models.Payment, error) {
	record, err := cs.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrOrderNotFound
	}
	return record, nil
}
