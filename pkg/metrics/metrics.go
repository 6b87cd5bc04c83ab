package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Orders committed by the order engine
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ravello_orders_placed_total",
		Help: "Total number of orders committed",
	})

	// Orders rejected before commit, by error kind
	OrdersRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ravello_orders_rejected_total",
		Help: "Total number of order placements rolled back",
	}, []string{"reason"})

	OrderPlacementLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ravello_order_placement_latency_seconds",
		Help:    "Latency of the order placement transaction",
		Buckets: prometheus.DefBuckets,
	})

	PaymentsConfirmed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ravello_payments_confirmed_total",
		Help: "Total number of orders moved to paid",
	})

	FulfillmentUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ravello_fulfillment_updates_total",
		Help: "Store side order status changes",
	}, []string{"status"})

	OTPIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ravello_otp_issued_total",
		Help: "One time codes issued, by purpose",
	}, []string{"purpose"})

	NotificationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ravello_notification_failures_total",
		Help: "Best effort notifications that failed after commit",
	})
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			OrdersPlaced,
			OrdersRejected,
			OrderPlacementLatency,
			PaymentsConfirmed,
			FulfillmentUpdates,
			OTPIssued,
			NotificationFailures,
		)
	})
}
