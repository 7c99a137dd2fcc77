package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/TRY-X-CARE/Shaastrayog/internal/util"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

// GatewayError wraps a failed payment-provider call. Handlers surface it as
// a 500 with a generic message; the original error is only logged.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Order is the remote order as created by the gateway.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units (paise)
	Currency string `json:"currency"`
}

// Razorpay wraps the Razorpay SDK client.
type Razorpay struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
	logger    *zap.Logger
}

// NewRazorpay creates a gateway adapter for the given key pair.
func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
		logger:    util.GetLogger(),
	}
}

// KeyID returns the public key id handed to the hosted payment widget.
func (r *Razorpay) KeyID() string {
	return r.keyID
}

// CreateOrder creates a remote payment order. The amount is given in major
// currency units and converted to paise before the call.
func (r *Razorpay) CreateOrder(ctx context.Context, amountMajor int64, currency string) (*Order, error) {
	ctx, span := util.StartSpan(ctx, "Razorpay.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.GatewayOrderLatency.Observe(time.Since(start).Seconds())
	}()

	data := map[string]interface{}{
		"amount":          amountMajor * 100,
		"currency":        currency,
		"payment_capture": 1,
	}

	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		r.logger.Error("Gateway order creation failed", zap.Error(err))
		return nil, &GatewayError{Op: "create order", Err: err}
	}

	order := &Order{Currency: currency}
	if id, ok := body["id"].(string); ok {
		order.ID = id
	}
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if cur, ok := body["currency"].(string); ok {
		order.Currency = cur
	}
	if order.ID == "" {
		return nil, &GatewayError{Op: "create order", Err: fmt.Errorf("response missing order id")}
	}

	r.logger.Info("Gateway order created",
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount))
	return order, nil
}

// VerifySignature recomputes the callback signature over
// orderID + "|" + paymentID and compares it to the supplied one in constant
// time.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, r.keySecret)
}

// VerifySignature checks a payment-completion signature against the secret.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
