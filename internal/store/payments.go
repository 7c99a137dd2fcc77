package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TRY-X-CARE/Shaastrayog/internal/models"

	"github.com/lib/pq"
)

// ErrDuplicateOrder is returned when a payment record already exists for the
// order id. The existing record is left untouched.
var ErrDuplicateOrder = errors.New("payment record already exists for order")

// SavePayment inserts a pending payment record for a freshly created gateway
// order. Amount is in minor units.
func (s *Store) SavePayment(ctx context.Context, p *models.Payment) error {
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}

	query := `
		INSERT INTO payments (order_id, payment_id, amount, status, customer_name, customer_phone, customer_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, p, query,
		p.OrderID, p.PaymentID, p.Amount, p.Status, p.CustomerName, p.CustomerPhone, p.CustomerEmail)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// UpdatePaymentStatus records the gateway payment id and the new status for
// an order. Returns (nil, nil) when no record matches the order id; callers
// must treat that as nothing-to-update, not as success.
func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID, paymentID, status string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET payment_id = $1, status = $2, updated_at = NOW()
		WHERE order_id = $3
		RETURNING *`

	var p models.Payment
	err := s.db.GetContext(ctx, &p, query, paymentID, status, orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	return &p, nil
}

// GetPaymentByOrderID retrieves the payment record for an order, or
// (nil, nil) when none exists.
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p, "SELECT * FROM payments WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
