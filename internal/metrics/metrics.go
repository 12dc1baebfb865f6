package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "autoassist"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created by vehicle type and service category.",
		},
		[]string{"vehicle_type", "category"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_transitions_total",
			Help:      "Booking status changes.",
		},
		[]string{"from", "to"},
	)

	stockAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_adjustments_total",
			Help:      "Inventory adjustments by reason and result.",
		},
		[]string{"reason", "result"},
	)

	lowStockItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "low_stock_items",
			Help:      "Items below their reorder threshold at the last report.",
		},
	)

	advisoryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisory_requests_total",
			Help:      "AI advisory calls by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			bookingsCreated,
			statusTransitions,
			stockAdjustments,
			lowStockItems,
			advisoryRequests,
		)
	})
}

// ObserveHTTP records one served request.
func ObserveHTTP(route string, code int, dur time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(dur.Seconds())
}

func IncBookingCreated(vehicleType, category string) {
	bookingsCreated.WithLabelValues(vehicleType, category).Inc()
}

func IncStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

// IncStockAdjustment counts an adjustment; result is "ok" or "rejected".
func IncStockAdjustment(reason, result string) {
	stockAdjustments.WithLabelValues(reason, result).Inc()
}

func SetLowStockItems(n int) {
	lowStockItems.Set(float64(n))
}

// IncAdvisory counts an advisory call; outcome is "ok", "failed" or "disabled".
func IncAdvisory(kind, outcome string) {
	advisoryRequests.WithLabelValues(kind, outcome).Inc()
}
