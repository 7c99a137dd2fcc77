package models

import "time"

// Payment represents the payment/order record kept for every checkout
// attempt. OrderID is assigned by the payment gateway (or synthesized for
// COD orders) and is the correlation key across the whole flow.
type Payment struct {
	ID            int64     `db:"id" json:"id"`
	OrderID       string    `db:"order_id" json:"order_id"`
	PaymentID     string    `db:"payment_id" json:"payment_id,omitempty"`
	Amount        int64     `db:"amount" json:"amount"` // minor units (paise)
	Status        string    `db:"status" json:"status"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerPhone string    `db:"customer_phone" json:"customer_phone"`
	CustomerEmail string    `db:"customer_email" json:"customer_email,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Payment statuses. Transitions are forward-only: pending may move to
// completed or failed, and neither terminal state moves again.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment modes as the carrier expects them.
const (
	PaymentModePrepaid = "Prepaid"
	PaymentModeCOD     = "COD"
)

// CartItem is one line item of a checkout, as submitted by the client.
type CartItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"` // major units (rupees)
}

// ShippingAddress is the consignee address for shipment creation.
type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// CustomerInfo is the customer detail block submitted with an order.
type CustomerInfo struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}
