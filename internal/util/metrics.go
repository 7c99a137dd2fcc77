package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Total number of gateway orders created",
	}, []string{"mode"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_failed_total",
		Help: "Total number of failed order creations",
	}, []string{"reason"})

	PaymentsVerifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_payments_verified_total",
		Help: "Total number of payments with a valid signature",
	})

	PaymentsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_payments_rejected_total",
		Help: "Total number of payments rejected on signature mismatch",
	})

	GatewayOrderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_gateway_order_latency_seconds",
		Help:    "Latency of gateway order creation calls",
		Buckets: prometheus.DefBuckets,
	})

	ShipmentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_shipments_created_total",
		Help: "Total number of carrier shipments created",
	}, []string{"payment_mode"})

	ShipmentsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_shipments_failed_total",
		Help: "Total number of failed shipment creations",
	}, []string{"reason"})

	ShipmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_shipment_latency_seconds",
		Help:    "Latency of carrier shipment creation calls",
		Buckets: prometheus.DefBuckets,
	})

	MailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_mails_sent_total",
		Help: "Total number of mails dispatched",
	}, []string{"kind"})

	MailsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_mails_failed_total",
		Help: "Total number of mail dispatch failures",
	}, []string{"kind"})

	FulfillmentTasksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_fulfillment_tasks_skipped_total",
		Help: "Total number of fulfillment tasks skipped as already done",
	})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_webhooks_received_total",
		Help: "Total number of carrier webhooks received",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
