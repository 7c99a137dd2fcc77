package mailer

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/TRY-X-CARE/Shaastrayog/internal/util"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailError wraps a mail-relay failure. Callers log it and never surface it
// to the end customer.
type MailError struct {
	Op  string
	Err error
}

func (e *MailError) Error() string {
	return fmt.Sprintf("mail %s failed: %v", e.Op, e.Err)
}

func (e *MailError) Unwrap() error {
	return e.Err
}

// ErrMissingTransactionID is returned when a payment confirmation is
// requested without a transaction id.
var ErrMissingTransactionID = errors.New("missing transaction id for payment confirmation")

// OrderConfirmation is the input for an order confirmation mail.
type OrderConfirmation struct {
	Email       string
	OrderID     string
	TrackingRef string
	InvoiceHTML string
}

// Mailer dispatches HTML mail over an authenticated SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// New creates a Mailer for the given relay credentials.
func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: util.GetLogger(),
	}
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return &MailError{Op: "send", Err: err}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return &MailError{Op: "send", Err: err}
	}

	m.logger.Info("Mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px; line-height: 1.5;">
  <p>Dear Customer,</p>
  <p>Your order has been confirmed.</p>
  <p><strong>Order ID:</strong> {{.OrderID}}</p>
  {{if .TrackingRef}}<p><strong>Tracking Number:</strong> {{.TrackingRef}}</p>{{end}}
  {{.Invoice}}
  <br>
  <p>Thank you for your purchase! If you have any questions or need support, feel free to reach out to us.</p>
  <br>
  <p>Warm regards,</p>
  <p><strong>Team ShaastraYog</strong></p>
</div>`))

// SendOrderConfirmation dispatches the invoice/confirmation document for a
// placed order.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, conf OrderConfirmation) error {
	var sb strings.Builder
	err := orderConfirmationTmpl.Execute(&sb, struct {
		OrderID     string
		TrackingRef string
		Invoice     template.HTML
	}{conf.OrderID, conf.TrackingRef, template.HTML(conf.InvoiceHTML)})
	if err != nil {
		return &MailError{Op: "render order confirmation", Err: err}
	}

	if err := m.send(ctx, conf.Email, "Order Confirmation - ShaastraYog", sb.String()); err != nil {
		util.MailsFailedTotal.WithLabelValues("order_confirmation").Inc()
		return err
	}
	util.MailsSentTotal.WithLabelValues("order_confirmation").Inc()
	return nil
}

var paymentConfirmationTmpl = template.Must(template.New("payment_confirmation").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px; line-height: 1.5;">
  <p>Dear Customer,</p>
  <p>We have successfully received your payment.</p>
  <h2 style="color: #28a745;">Payment Confirmed</h2>
  <p><strong>Transaction ID:</strong> {{.TransactionID}}</p>
  <br>
  <p>Thank you for your purchase! If you have any questions or need support, feel free to reach out to us.</p>
  <br>
  <p>Warm regards,</p>
  <p><strong>Team ShaastraYog</strong></p>
</div>`))

// SendPaymentConfirmation dispatches the payment-received mail for a
// captured transaction.
func (m *Mailer) SendPaymentConfirmation(ctx context.Context, transactionID, email string) error {
	if transactionID == "" {
		return ErrMissingTransactionID
	}

	var sb strings.Builder
	err := paymentConfirmationTmpl.Execute(&sb, struct{ TransactionID string }{transactionID})
	if err != nil {
		return &MailError{Op: "render payment confirmation", Err: err}
	}

	if err := m.send(ctx, email, "Payment Confirmation - ShaastraYog", sb.String()); err != nil {
		util.MailsFailedTotal.WithLabelValues("payment_confirmation").Inc()
		return err
	}
	util.MailsSentTotal.WithLabelValues("payment_confirmation").Inc()
	return nil
}
