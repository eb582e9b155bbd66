package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry engine.
type Metrics struct {
	// Applied operations by kind
	Applied *prometheus.CounterVec

	// Rejected operations by kind and error code
	Rejected *prometheus.CounterVec

	ApplyLatency *prometheus.HistogramVec

	Airlines       prometheus.Gauge
	FundedAirlines prometheus.Gauge
	Policies       prometheus.Gauge
	LogHeight      prometheus.Gauge
}

// New registers the engine metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Applied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "surety_operations_applied_total",
			Help: "Total operations committed to the log by kind",
		}, []string{"kind"}),

		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "surety_operations_rejected_total",
			Help: "Total operations rejected and rolled back by kind and error code",
		}, []string{"kind", "code"}),

		ApplyLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surety_apply_duration_seconds",
			Help:    "Duration of Apply including the log append",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"kind"}),

		Airlines: f.NewGauge(prometheus.GaugeOpts{
			Name: "surety_airlines_registered",
			Help: "Number of registered airlines",
		}),
		FundedAirlines: f.NewGauge(prometheus.GaugeOpts{
			Name: "surety_airlines_funded",
			Help: "Number of funded airlines",
		}),
		Policies: f.NewGauge(prometheus.GaugeOpts{
			Name: "surety_policies",
			Help: "Number of insurance policies",
		}),
		LogHeight: f.NewGauge(prometheus.GaugeOpts{
			Name: "surety_log_height",
			Help: "Height of the last committed operation",
		}),
	}
}

func (m *Metrics) IncrementApplied(kind string) {
	if m != nil {
		m.Applied.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementRejected(kind, code string) {
	if m != nil {
		m.Rejected.WithLabelValues(kind, code).Inc()
	}
}

func (m *Metrics) ObserveApplyLatency(kind string, d time.Duration) {
	if m != nil {
		m.ApplyLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// SetState records registry sizes after a commit or restore.
func (m *Metrics) SetState(airlines, funded, policies int, height uint64) {
	if m == nil {
		return
	}
	m.Airlines.Set(float64(airlines))
	m.FundedAirlines.Set(float64(funded))
	m.Policies.Set(float64(policies))
	m.LogHeight.Set(float64(height))
}
