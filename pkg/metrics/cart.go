package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Outcome labels for cart operations.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// CartMetrics counts cart operations and records cart totals. A nil
// *CartMetrics is valid and records nothing.
type CartMetrics struct {
	operations *prometheus.CounterVec
	totals     prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on reg. A nil reg yields a no-op
// value.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by name and outcome.",
	}, []string{"operation", "outcome"})
	totals := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_total_amount",
		Help:    "Cart total after each successful mutation.",
		Buckets: []float64{0, 25, 50, 100, 200, 400, 800, 1600},
	})
	reg.MustRegister(operations, totals)
	return &CartMetrics{operations: operations, totals: totals}
}

// ObserveOperation counts op. Errors wrapping a rejection sentinel are
// counted as rejected, anything else as error.
func (m *CartMetrics) ObserveOperation(op string, err error, rejections ...error) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op), outcome(err, rejections)).Inc()
}

func (m *CartMetrics) ObserveTotal(total decimal.Decimal) {
	if m == nil || m.totals == nil {
		return
	}
	m.totals.Observe(total.InexactFloat64())
}

func outcome(err error, rejections []error) string {
	if err == nil {
		return OutcomeOK
	}
	for _, target := range rejections {
		if errors.Is(err, target) {
			return OutcomeRejected
		}
	}
	return OutcomeError
}
