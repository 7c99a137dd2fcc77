package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/TRY-X-CARE/Shaastrayog/internal/mailer"
	"github.com/TRY-X-CARE/Shaastrayog/internal/models"
	"github.com/TRY-X-CARE/Shaastrayog/internal/service"
	"github.com/TRY-X-CARE/Shaastrayog/internal/shipping"
	"github.com/TRY-X-CARE/Shaastrayog/internal/store"
	"github.com/TRY-X-CARE/Shaastrayog/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ShipmentCreator is the carrier surface the HTTP layer needs.
type ShipmentCreator interface {
	CreateShipment(ctx context.Context, req shipping.ShipmentRequest) (string, error)
	Configured() bool
}

// Handler contains HTTP handlers
type Handler struct {
	checkout *service.CheckoutService
	shipper  ShipmentCreator
	notifier service.OrderNotifier
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(checkout *service.CheckoutService, shipper ShipmentCreator, notifier service.OrderNotifier) *Handler {
	return &Handler{
		checkout: checkout,
		shipper:  shipper,
		notifier: notifier,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/order", h.createOrder)
	router.POST("/payment", h.confirmPayment)
	router.GET("/order/:id", h.getOrder)

	router.POST("/nimbus/create-shipment", h.createShipment)
	router.POST("/nimbus/webhook", h.carrierWebhook)
	router.POST("/send-cod-confirmation", h.sendCODConfirmation)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles the place-order request for both payment paths.
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var (
		resp *service.CreateOrderResponse
		err  error
	)
	if req.PaymentMethod == "cod" {
		resp, err = h.checkout.PlaceCODOrder(c.Request.Context(), &req)
	} else {
		resp, err = h.checkout.CreateOrder(c.Request.Context(), &req)
	}

	if err != nil {
		var validation *service.ValidationError
		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		case errors.Is(err, store.ErrDuplicateOrder):
			c.JSON(http.StatusConflict, gin.H{"error": "Order already exists"})
		default:
			h.logger.Error("Error creating order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// confirmPayment handles the gateway completion callback posted by the
// client after the hosted widget closes.
func (h *Handler) confirmPayment(c *gin.Context) {
	var req service.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if _, err := h.checkout.ConfirmPayment(c.Request.Context(), &req); err != nil {
		var validation *service.ValidationError
		switch {
		case errors.Is(err, service.ErrSignatureMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order"})
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		default:
			h.logger.Error("Error verifying payment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified successfully",
	})
}

// getOrder returns the payment record for an order id.
func (h *Handler) getOrder(c *gin.Context) {
	record, err := h.checkout.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.logger.Error("Error fetching order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, record)
}

type createShipmentRequest struct {
	CustomerName      string  `json:"customer_name"`
	CustomerAddress   string  `json:"customer_address"`
	CustomerCity      string  `json:"customer_city"`
	CustomerState     string  `json:"customer_state"`
	CustomerPincode   string  `json:"customer_pincode"`
	CustomerPhone     string  `json:"customer_phone"`
	OrderNumber       string  `json:"order_number"`
	ProductName       string  `json:"product_name"`
	Quantity          int     `json:"quantity"`
	Price             int64   `json:"price"`
	Length            int     `json:"length"`
	Breadth           int     `json:"breadth"`
	Height            int     `json:"height"`
	Weight            float64 `json:"weight"`
	PaymentMode       string  `json:"payment_mode"`
	CollectableAmount int64   `json:"collectable_amount"`
}

// createShipment hands a client-shaped shipment request to the carrier.
func (h *Handler) createShipment(c *gin.Context) {
	if !h.shipper.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Missing Nimbus API Key"})
		return
	}

	var req createShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	awb, err := h.shipper.CreateShipment(c.Request.Context(), shipping.ShipmentRequest{
		ConsigneeName:     req.CustomerName,
		Address:           req.CustomerAddress,
		City:              req.CustomerCity,
		State:             req.CustomerState,
		Pincode:           req.CustomerPincode,
		Phone:             req.CustomerPhone,
		OrderNumber:       req.OrderNumber,
		ProductName:       req.ProductName,
		Quantity:          req.Quantity,
		Price:             req.Price,
		Length:            req.Length,
		Breadth:           req.Breadth,
		Height:            req.Height,
		Weight:            req.Weight,
		PaymentMode:       req.PaymentMode,
		CollectableAmount: req.CollectableAmount,
	})
	if err != nil {
		var shipErr *shipping.ShipmentError
		msg := "Internal Server Error"
		if errors.As(err, &shipErr) {
			msg = shipErr.Message
		}
		h.logger.Error("Error creating shipment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Shipment created",
		"data":    gin.H{"awb_number": awb},
	})
}

type codConfirmationRequest struct {
	Email         string            `json:"email"`
	OrderID       string            `json:"orderId"`
	CustomerName  string            `json:"customerName"`
	Items         []models.CartItem `json:"items"`
	Total         int64             `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
}

// sendCODConfirmation renders the invoice and mails it. Mail failures are
// logged only; the response contract is always {success:true}.
func (h *Handler) sendCODConfirmation(c *gin.Context) {
	var req codConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	invoiceHTML, err := mailer.RenderInvoice(mailer.InvoiceData{
		OrderID:       req.OrderID,
		CustomerName:  req.CustomerName,
		Items:         req.Items,
		Total:         req.Total,
		Date:          time.Now().Format("02/01/2006"),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.logger.Error("Error rendering invoice", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if err := h.notifier.SendOrderConfirmation(c.Request.Context(), mailer.OrderConfirmation{
		Email:       req.Email,
		OrderID:     req.OrderID,
		InvoiceHTML: invoiceHTML,
	}); err != nil {
		h.logger.Error("Error sending COD confirmation", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// carrierWebhook accepts carrier status callbacks. The payload parser fails
// closed: payloads missing the order id, tracking number, or email are
// rejected instead of being padded with placeholders.
func (h *Handler) carrierWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	}

	cb, err := shipping.ParseCallback(payload)
	if err != nil {
		util.WebhooksReceivedTotal.WithLabelValues("rejected").Inc()
		h.logger.Warn("Rejected carrier webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	}

	invoiceHTML, err := mailer.RenderInvoice(mailer.InvoiceData{
		OrderID:         cb.OrderID,
		CustomerName:    cb.CustomerName,
		Items:           cb.Items,
		Total:           cb.Total,
		Date:            time.Now().Format("02/01/2006"),
		ShippingAddress: cb.ShippingAddress,
		PaymentMethod:   cb.PaymentMethod,
	})
	if err != nil {
		h.logger.Error("Error rendering invoice", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.notifier.SendOrderConfirmation(c.Request.Context(), mailer.OrderConfirmation{
		Email:       cb.Email,
		OrderID:     cb.OrderID,
		TrackingRef: cb.TrackingNumber,
		InvoiceHTML: invoiceHTML,
	}); err != nil {
		h.logger.Error("Error sending webhook confirmation", zap.Error(err))
	}

	util.WebhooksReceivedTotal.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
