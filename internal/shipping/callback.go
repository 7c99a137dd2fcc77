package shipping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TRY-X-CARE/Shaastrayog/internal/models"
)

// ShipmentCallback is the internal view of a carrier status webhook.
type ShipmentCallback struct {
	OrderID         string
	TrackingNumber  string
	Email           string
	CustomerName    string
	Items           []models.CartItem
	Total           int64
	ShippingAddress string
	PaymentMethod   string
}

// IncompleteCallbackError reports which required webhook fields were absent.
// The receiver rejects such payloads instead of substituting placeholders.
type IncompleteCallbackError struct {
	Missing []string
}

func (e *IncompleteCallbackError) Error() string {
	return fmt.Sprintf("carrier callback missing required fields: %s", strings.Join(e.Missing, ", "))
}

// callbackPayload covers the known carrier payload shapes. The carrier has
// shipped both snake_case and camelCase variants of the same fields.
type callbackPayload struct {
	OrderID         string            `json:"order_id"`
	OrderNumber     string            `json:"orderNumber"`
	AWBNumber       string            `json:"awb_number"`
	TrackingNumber  string            `json:"tracking_number"`
	CustomerEmail   string            `json:"customer_email"`
	Email           string            `json:"email"`
	CustomerName    string            `json:"customer_name"`
	Items           []models.CartItem `json:"items"`
	Total           int64             `json:"total"`
	ShippingAddress string            `json:"shipping_address"`
	CustomerAddress string            `json:"customer_address"`
	PaymentMethod   string            `json:"payment_method"`
	PaymentMode     string            `json:"paymentMode"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseCallback maps a carrier webhook payload into a ShipmentCallback. It
// fails closed: a payload missing the order id, tracking number, or customer
// email is rejected rather than filled with dummy data.
func ParseCallback(payload []byte) (*ShipmentCallback, error) {
	var p callbackPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid carrier callback: %w", err)
	}

	cb := &ShipmentCallback{
		OrderID:         firstNonEmpty(p.OrderID, p.OrderNumber),
		TrackingNumber:  firstNonEmpty(p.AWBNumber, p.TrackingNumber),
		Email:           firstNonEmpty(p.CustomerEmail, p.Email),
		CustomerName:    p.CustomerName,
		Items:           p.Items,
		Total:           p.Total,
		ShippingAddress: firstNonEmpty(p.ShippingAddress, p.CustomerAddress),
		PaymentMethod:   firstNonEmpty(p.PaymentMethod, p.PaymentMode),
	}

	var missing []string
	if cb.OrderID == "" {
		missing = append(missing, "order id")
	}
	if cb.TrackingNumber == "" {
		missing = append(missing, "tracking number")
	}
	if cb.Email == "" {
		missing = append(missing, "customer email")
	}
	if len(missing) > 0 {
		return nil, &IncompleteCallbackError{Missing: missing}
	}

	if cb.CustomerName == "" {
		cb.CustomerName = "Customer"
	}
	if cb.Total == 0 {
		for _, item := range cb.Items {
			cb.Total += item.Price * int64(item.Quantity)
		}
	}

	return cb, nil
}
