package models

import "time"

// Event types
const (
	EventTypeFulfillmentRequested = "FULFILLMENT_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// FulfillmentRequestedEvent is published once the payment/COD decision for an
// order is final. It carries everything the fulfillment tasks need so they
// can run without touching the request that produced them.
type FulfillmentRequestedEvent struct {
	BaseEvent
	OrderID          string           `json:"order_id"`
	PaymentMode      string           `json:"payment_mode"` // Prepaid or COD
	PaymentMethod    string           `json:"payment_method,omitempty"`
	CustomerName     string           `json:"customer_name"`
	CustomerEmail    string           `json:"customer_email,omitempty"`
	CustomerPhone    string           `json:"customer_phone"`
	Shipping         *ShippingAddress `json:"shipping,omitempty"`
	Items            []CartItem       `json:"items,omitempty"`
	Total            int64            `json:"total"` // major units
	CollectableTotal int64            `json:"collectable_total"`
}
