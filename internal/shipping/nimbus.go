package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TRY-X-CARE/Shaastrayog/internal/util"

	"go.uber.org/zap"
)

// ShipmentError carries the carrier's failure message. The orchestrator logs
// it and moves on; shipment failure never fails a placed order.
type ShipmentError struct {
	Message string
	Err     error
}

func (e *ShipmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("shipment creation failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("shipment creation failed: %s", e.Message)
}

func (e *ShipmentError) Unwrap() error {
	return e.Err
}

// PackageDefaults are the fixed parcel dimensions used when the request does
// not override them. The carrier account is calibrated for one standard box
// rather than per-cart measurements.
type PackageDefaults struct {
	Length  int
	Breadth int
	Height  int
	Weight  float64 // kg
}

// DefaultPackage is the standard 15x10x10 cm, 100 g parcel.
var DefaultPackage = PackageDefaults{Length: 15, Breadth: 10, Height: 10, Weight: 0.1}

// ShipmentRequest describes one shipment to hand to the carrier. The cart is
// flattened into a single product line: concatenated names, summed quantity.
type ShipmentRequest struct {
	ConsigneeName     string
	Address           string
	City              string
	State             string
	Pincode           string
	Phone             string
	OrderNumber       string
	ProductName       string
	Quantity          int
	Price             int64 // major units
	Length            int
	Breadth           int
	Height            int
	Weight            float64
	PaymentMode       string // Prepaid or COD
	CollectableAmount int64  // 0 for Prepaid, order total for COD
}

// Nimbus submits shipment-creation requests to the NimbusPost API.
type Nimbus struct {
	apiKey     string
	baseURL    string
	pkg        PackageDefaults
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNimbus creates a shipment adapter. Every outbound call is bounded by
// the given timeout.
func NewNimbus(apiKey, baseURL string, timeout time.Duration) *Nimbus {
	return &Nimbus{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pkg:        DefaultPackage,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

// Configured reports whether a carrier API key is present.
func (n *Nimbus) Configured() bool {
	return n.apiKey != ""
}

// SplitName splits a consignee full name on the first space: everything
// before it is the first name, everything after is the last name. A name
// with no space gets the literal "NA" as last name.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	idx := strings.Index(full, " ")
	if idx < 0 {
		return full, "NA"
	}
	return full[:idx], full[idx+1:]
}

type carrierResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AWBNumber string `json:"awb_number"`
	} `json:"data"`
}

// FormValues shapes a request into the carrier's flat form-encoded scheme.
// Zero-valued dimensions fall back to the adapter's package defaults.
func (n *Nimbus) FormValues(req ShipmentRequest) url.Values {
	fname, lname := SplitName(req.ConsigneeName)

	length, breadth, height, weight := req.Length, req.Breadth, req.Height, req.Weight
	if length == 0 {
		length = n.pkg.Length
	}
	if breadth == 0 {
		breadth = n.pkg.Breadth
	}
	if height == 0 {
		height = n.pkg.Height
	}
	if weight == 0 {
		weight = n.pkg.Weight
	}

	form := url.Values{}
	form.Set("fname", fname)
	form.Set("lname", lname)
	form.Set("address", req.Address)
	form.Set("city", req.City)
	form.Set("state", req.State)
	form.Set("pincode", req.Pincode)
	form.Set("phone", req.Phone)
	form.Set("order_number", req.OrderNumber)
	form.Set("products[0][name]", req.ProductName)
	form.Set("products[0][qty]", strconv.Itoa(req.Quantity))
	form.Set("products[0][price]", strconv.FormatInt(req.Price, 10))
	form.Set("length", strconv.Itoa(length))
	form.Set("breadth", strconv.Itoa(breadth))
	form.Set("height", strconv.Itoa(height))
	form.Set("weight", strconv.FormatFloat(weight, 'f', -1, 64))
	form.Set("payment_mode", req.PaymentMode)
	form.Set("collectable_amount", strconv.FormatInt(req.CollectableAmount, 10))
	return form
}

// CreateShipment submits the request to the carrier and returns the assigned
// tracking reference (AWB number).
func (n *Nimbus) CreateShipment(ctx context.Context, req ShipmentRequest) (string, error) {
	ctx, span := util.StartSpan(ctx, "Nimbus.CreateShipment")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ShipmentLatency.Observe(time.Since(start).Seconds())
	}()

	form := n.FormValues(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.baseURL+"/shipments", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &ShipmentError{Message: "building request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Token "+n.apiKey)

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		util.ShipmentsFailedTotal.WithLabelValues("transport").Inc()
		return "", &ShipmentError{Message: "carrier unreachable", Err: err}
	}
	defer resp.Body.Close()

	var carrier carrierResponse
	if err := json.NewDecoder(resp.Body).Decode(&carrier); err != nil {
		util.ShipmentsFailedTotal.WithLabelValues("bad_response").Inc()
		return "", &ShipmentError{Message: "decoding carrier response", Err: err}
	}

	if resp.StatusCode != http.StatusOK || !carrier.Status {
		util.ShipmentsFailedTotal.WithLabelValues("carrier_rejected").Inc()
		msg := carrier.Message
		if msg == "" {
			msg = fmt.Sprintf("carrier returned HTTP %d", resp.StatusCode)
		}
		return "", &ShipmentError{Message: msg}
	}

	util.ShipmentsCreatedTotal.WithLabelValues(req.PaymentMode).Inc()
	n.logger.Info("Shipment created",
		zap.String("order_number", req.OrderNumber),
		zap.String("awb_number", carrier.Data.AWBNumber),
		zap.String("payment_mode", req.PaymentMode))
	return carrier.Data.AWBNumber, nil
}
