package shipping

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		full  string
		first string
		last  string
	}{
		{"Ravi Kumar Sharma", "Ravi", "Kumar Sharma"},
		{"Ravi", "Ravi", "NA"},
		{"Ravi Kumar", "Ravi", "Kumar"},
		{"  Ravi  ", "Ravi", "NA"},
		{"", "", "NA"},
	}

	for _, tt := range tests {
		first, last := SplitName(tt.full)
		assert.Equal(t, tt.first, first, "full=%q", tt.full)
		assert.Equal(t, tt.last, last, "full=%q", tt.full)
	}
}

func TestFormValuesCOD(t *testing.T) {
	n := NewNimbus("key", "https://api.example.com/v1", time.Second)

	form := n.FormValues(ShipmentRequest{
		ConsigneeName:     "Ravi Kumar",
		Address:           "12 MG Road",
		City:              "Pune",
		State:             "Maharashtra",
		Pincode:           "411001",
		Phone:             "9999999999",
		OrderNumber:       "cod_abc123",
		ProductName:       "Ashwagandha, Triphala",
		Quantity:          3,
		Price:             1500,
		PaymentMode:       "COD",
		CollectableAmount: 1500,
	})

	assert.Equal(t, "Ravi", form.Get("fname"))
	assert.Equal(t, "Kumar", form.Get("lname"))
	assert.Equal(t, "COD", form.Get("payment_mode"))
	assert.Equal(t, "1500", form.Get("collectable_amount"))
	assert.Equal(t, "Ashwagandha, Triphala", form.Get("products[0][name]"))
	assert.Equal(t, "3", form.Get("products[0][qty]"))
	assert.Equal(t, "1500", form.Get("products[0][price]"))

	// Package defaults apply when the request carries no dimensions.
	assert.Equal(t, "15", form.Get("length"))
	assert.Equal(t, "10", form.Get("breadth"))
	assert.Equal(t, "10", form.Get("height"))
	assert.Equal(t, "0.1", form.Get("weight"))
}

func TestFormValuesPrepaid(t *testing.T) {
	n := NewNimbus("key", "https://api.example.com/v1", time.Second)

	form := n.FormValues(ShipmentRequest{
		ConsigneeName:     "Ravi",
		OrderNumber:       "order_xyz",
		PaymentMode:       "Prepaid",
		CollectableAmount: 0,
	})

	assert.Equal(t, "Prepaid", form.Get("payment_mode"))
	assert.Equal(t, "0", form.Get("collectable_amount"))
	assert.Equal(t, "NA", form.Get("lname"))
}

func TestCreateShipmentSuccess(t *testing.T) {
	var received url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		received = r.PostForm
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"status":true,"message":"Shipment created","data":{"awb_number":"AWB0012345"}}`))
	}))
	defer srv.Close()

	n := NewNimbus("test-key", srv.URL, time.Second)
	awb, err := n.CreateShipment(context.Background(), ShipmentRequest{
		ConsigneeName:     "Ravi Kumar Sharma",
		OrderNumber:       "order_abc",
		ProductName:       "Ashwagandha",
		Quantity:          1,
		Price:             500,
		PaymentMode:       "Prepaid",
		CollectableAmount: 0,
	})

	require.NoError(t, err)
	assert.Equal(t, "AWB0012345", awb)
	assert.Equal(t, "Ravi", received.Get("fname"))
	assert.Equal(t, "Kumar Sharma", received.Get("lname"))
	assert.Equal(t, "order_abc", received.Get("order_number"))
}

func TestCreateShipmentCarrierRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Pincode not serviceable"}`))
	}))
	defer srv.Close()

	n := NewNimbus("test-key", srv.URL, time.Second)
	_, err := n.CreateShipment(context.Background(), ShipmentRequest{
		ConsigneeName: "Ravi",
		OrderNumber:   "order_bad",
		PaymentMode:   "Prepaid",
	})

	var shipErr *ShipmentError
	require.ErrorAs(t, err, &shipErr)
	assert.Equal(t, "Pincode not serviceable", shipErr.Message)
}

func TestCreateShipmentTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	n := NewNimbus("test-key", srv.URL, time.Second)
	_, err := n.CreateShipment(context.Background(), ShipmentRequest{
		ConsigneeName: "Ravi",
		OrderNumber:   "order_down",
		PaymentMode:   "COD",
	})

	var shipErr *ShipmentError
	require.ErrorAs(t, err, &shipErr)
}
