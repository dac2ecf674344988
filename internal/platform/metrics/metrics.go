package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. Methods are nil-safe
// so wiring metrics stays optional in tests.
type Metrics struct {
	RequestsApproved     prometheus.Counter
	RequestsRejected     prometheus.Counter
	RequestsReturned     prometheus.Counter
	TransfersCompleted   prometheus.Counter
	TransfersRejected    prometheus.Counter
	InsufficientQuantity prometheus.Counter
	StockAlerts          prometheus.Counter
	HTTPDuration         *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stokri_requests_approved_total",
			Help: "Total number of borrow requests approved and fulfilled",
		}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stokri_requests_rejected_total",
			Help: "Total number of borrow requests rejected",
		}),
		RequestsReturned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stokri_requests_returned_total",
			Help: "Total number of issued assets returned",
		}),
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stokri_transfers_completed_total",
			Help: "Total number of transfers approved and completed",
		}),
		TransfersRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stokri_transfers_rejected_total",
			Help: "Total number of transfers rejected",
		}),
		InsufficientQuantity: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stokri_insufficient_quantity_total",
			Help: "Total number of approvals refused for lack of available quantity",
		}),
		StockAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stokri_stock_alerts_total",
			Help: "Total number of low-stock alerts emitted",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stokri_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncRequestsApproved() {
	if m != nil {
		m.RequestsApproved.Inc()
	}
}

func (m *Metrics) IncRequestsRejected() {
	if m != nil {
		m.RequestsRejected.Inc()
	}
}

func (m *Metrics) IncRequestsReturned() {
	if m != nil {
		m.RequestsReturned.Inc()
	}
}

func (m *Metrics) IncTransfersCompleted() {
	if m != nil {
		m.TransfersCompleted.Inc()
	}
}

func (m *Metrics) IncTransfersRejected() {
	if m != nil {
		m.TransfersRejected.Inc()
	}
}

func (m *Metrics) IncInsufficientQuantity() {
	if m != nil {
		m.InsufficientQuantity.Inc()
	}
}

func (m *Metrics) IncStockAlerts() {
	if m != nil {
		m.StockAlerts.Inc()
	}
}

func (m *Metrics) ObserveHTTPDuration(route, status string, seconds float64) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(route, status).Observe(seconds)
	}
}
