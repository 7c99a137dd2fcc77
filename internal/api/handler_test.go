package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TRY-X-CARE/Shaastrayog/internal/gateway"
	"github.com/TRY-X-CARE/Shaastrayog/internal/mailer"
	"github.com/TRY-X-CARE/Shaastrayog/internal/models"
	"github.com/TRY-X-CARE/Shaastrayog/internal/service"
	"github.com/TRY-X-CARE/Shaastrayog/internal/shipping"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type stubGateway struct {
	createCalls int
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountMajor int64, currency string) (*gateway.Order, error) {
	g.createCalls++
	return &gateway.Order{ID: "order_test1", Amount: amountMajor * 100, Currency: currency}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(orderID, paymentID, signature, testSecret)
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

type stubStore struct {
	records map[string]*models.Payment
}

func (s *stubStore) SavePayment(ctx context.Context, p *models.Payment) error {
	s.records[p.OrderID] = p
	return nil
}

func (s *stubStore) UpdatePaymentStatus(ctx context.Context, orderID, paymentID, status string) (*models.Payment, error) {
	record, ok := s.records[orderID]
	if !ok {
		return nil, nil
	}
	record.PaymentID = paymentID
	record.Status = status
	return record, nil
}

func (s *stubStore) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return s.records[orderID], nil
}

type stubQueue struct {
	events []*models.FulfillmentRequestedEvent
}

func (q *stubQueue) PublishFulfillmentRequested(ctx context.Context, event *models.FulfillmentRequestedEvent) error {
	q.events = append(q.events, event)
	return nil
}

type stubPaymentNotifier struct{ sent int }

func (n *stubPaymentNotifier) SendPaymentConfirmation(ctx context.Context, transactionID, email string) error {
	n.sent++
	return nil
}

type stubShipper struct {
	configured bool
	awb        string
	err        error
	requests   []shipping.ShipmentRequest
}

func (s *stubShipper) CreateShipment(ctx context.Context, req shipping.ShipmentRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.awb, nil
}

func (s *stubShipper) Configured() bool { return s.configured }

type stubOrderNotifier struct {
	confirmations []mailer.OrderConfirmation
	sendErr       error
}

func (n *stubOrderNotifier) SendOrderConfirmation(ctx context.Context, conf mailer.OrderConfirmation) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.confirmations = append(n.confirmations, conf)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	gateway  *stubGateway
	store    *stubStore
	queue    *stubQueue
	shipper  *stubShipper
	notifier *stubOrderNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		gateway:  &stubGateway{},
		store:    &stubStore{records: make(map[string]*models.Payment)},
		queue:    &stubQueue{},
		shipper:  &stubShipper{configured: true, awb: "AWB0012345"},
		notifier: &stubOrderNotifier{},
	}
	checkout := service.NewCheckoutService(env.gateway, env.store, env.queue, &stubPaymentNotifier{}, "INR")

	env.router = gin.New()
	NewHandler(checkout, env.shipper, env.notifier).SetupRoutes(env.router)
	return env
}

func (env *testEnv) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func orderBody() map[string]any {
	return map[string]any{
		"amount": 500,
		"customerInfo": map[string]any{
			"firstName":  "Ravi",
			"lastName":   "Kumar",
			"email":      "ravi@example.com",
			"phone":      "9999999999",
			"address":    "12 MG Road",
			"city":       "Pune",
			"state":      "Maharashtra",
			"postalCode": "411001",
		},
		"items": []map[string]any{{"name": "Ashwagandha", "quantity": 1, "price": 500}},
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/order", orderBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order_test1", resp["id"])
	assert.Equal(t, float64(50000), resp["amount"])
	assert.Equal(t, "rzp_test_key", resp["key"])
	assert.NotNil(t, env.store.records["order_test1"])
}

func TestCreateOrderEndpointMissingFields(t *testing.T) {
	env := newTestEnv(t)

	body := orderBody()
	body["customerInfo"].(map[string]any)["email"] = ""

	w := env.post(t, "/order", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing required fields")
	assert.Zero(t, env.gateway.createCalls)
}

func TestCreateOrderEndpointInvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	w := env.post(t, "/order", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderEndpointCOD(t *testing.T) {
	env := newTestEnv(t)

	body := orderBody()
	body["paymentMethod"] = "cod"
	body["amount"] = 1500

	w := env.post(t, "/order", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["id"], "cod_")
	assert.Equal(t, "pending", resp["status"])
	assert.Zero(t, env.gateway.createCalls)
	require.Len(t, env.queue.events, 1)
	assert.Equal(t, models.PaymentModeCOD, env.queue.events[0].PaymentMode)
}

func TestConfirmPaymentEndpoint(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.post(t, "/order", orderBody()).Code)

	w := env.post(t, "/payment", map[string]any{
		"razorpay_order_id":   "order_test1",
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  sign("order_test1", "pay_abc"),
		"email":               "ravi@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Equal(t, models.PaymentStatusCompleted, env.store.records["order_test1"].Status)
	assert.Len(t, env.queue.events, 1)
}

func TestConfirmPaymentEndpointInvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.post(t, "/order", orderBody()).Code)

	w := env.post(t, "/payment", map[string]any{
		"razorpay_order_id":   "order_test1",
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  "deadbeef",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid signature")
	assert.Equal(t, models.PaymentStatusPending, env.store.records["order_test1"].Status)
	assert.Empty(t, env.queue.events)
}

func TestConfirmPaymentEndpointUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/payment", map[string]any{
		"razorpay_order_id":   "order_ghost",
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  sign("order_ghost", "pay_abc"),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown order")
}

func TestGetOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.records["order_test1"] = &models.Payment{
		OrderID: "order_test1", Amount: 50000, Status: models.PaymentStatusPending, CreatedAt: time.Now(),
	}

	req := httptest.NewRequest(http.MethodGet, "/order/order_test1", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order_test1")

	req = httptest.NewRequest(http.MethodGet, "/order/nope", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateShipmentEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/nimbus/create-shipment", map[string]any{
		"customer_name":      "Ravi Kumar",
		"customer_address":   "12 MG Road",
		"customer_city":      "Pune",
		"customer_state":     "Maharashtra",
		"customer_pincode":   "411001",
		"customer_phone":     "9999999999",
		"order_number":       "order_test1",
		"product_name":       "Ashwagandha",
		"quantity":           1,
		"price":              500,
		"payment_mode":       "COD",
		"collectable_amount": 500,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AWB0012345")

	require.Len(t, env.shipper.requests, 1)
	assert.Equal(t, "COD", env.shipper.requests[0].PaymentMode)
	assert.Equal(t, int64(500), env.shipper.requests[0].CollectableAmount)
}

func TestCreateShipmentEndpointMissingAPIKey(t *testing.T) {
	env := newTestEnv(t)
	env.shipper.configured = false

	w := env.post(t, "/nimbus/create-shipment", map[string]any{"order_number": "order_test1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Missing Nimbus API Key")
	assert.Empty(t, env.shipper.requests)
}

func TestCreateShipmentEndpointCarrierRejection(t *testing.T) {
	env := newTestEnv(t)
	env.shipper.err = &shipping.ShipmentError{Message: "Pincode not serviceable"}

	w := env.post(t, "/nimbus/create-shipment", map[string]any{"order_number": "order_test1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Pincode not serviceable")
}

func TestSendCODConfirmationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/send-cod-confirmation", map[string]any{
		"email":         "ravi@example.com",
		"orderId":       "cod_123",
		"customerName":  "Ravi Kumar",
		"items":         []map[string]any{{"name": "Ashwagandha", "quantity": 1, "price": 500}},
		"total":         500,
		"paymentMethod": "Cash on Delivery",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	require.Len(t, env.notifier.confirmations, 1)
	assert.Equal(t, "cod_123", env.notifier.confirmations[0].OrderID)
	assert.Contains(t, env.notifier.confirmations[0].InvoiceHTML, "Ashwagandha")
}

func TestSendCODConfirmationEndpointMailFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.sendErr = fmt.Errorf("relay down")

	w := env.post(t, "/send-cod-confirmation", map[string]any{
		"email":   "ravi@example.com",
		"orderId": "cod_123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestCarrierWebhookEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/nimbus/webhook", map[string]any{
		"order_id":      "order_test1",
		"awb_number":    "AWB0012345",
		"email":         "ravi@example.com",
		"customer_name": "Ravi Kumar",
		"items":         []map[string]any{{"name": "Ashwagandha", "quantity": 1, "price": 500}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)

	require.Len(t, env.notifier.confirmations, 1)
	conf := env.notifier.confirmations[0]
	assert.Equal(t, "order_test1", conf.OrderID)
	assert.Equal(t, "AWB0012345", conf.TrackingRef)
	assert.Equal(t, "ravi@example.com", conf.Email)
}

func TestCarrierWebhookEndpointRejectsIncompletePayload(t *testing.T) {
	env := newTestEnv(t)

	tests := []map[string]any{
		{"awb_number": "AWB0012345", "email": "ravi@example.com"},
		{"order_id": "order_test1", "email": "ravi@example.com"},
		{"order_id": "order_test1", "awb_number": "AWB0012345"},
		{},
	}
	for i, payload := range tests {
		w := env.post(t, "/nimbus/webhook", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
		assert.Contains(t, w.Body.String(), "Invalid webhook data", "case %d", i)
	}
	assert.Empty(t, env.notifier.confirmations)
}
