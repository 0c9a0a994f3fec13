package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/pointledger/internal/domain"
)

// Metrics holds all Prometheus metrics of the point engine.
// It implements usecase.Metrics.
type Metrics struct {
	// Mutation engine metrics
	Operations       *prometheus.CounterVec
	LockWait         prometheus.Histogram
	CriticalSection  prometheus.Histogram
	LockRegistrySize prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Idempotency metrics
	IdempotentReplays prometheus.Counter
}

// New creates the metrics and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pointledger_operations_total",
				Help: "Total charge and use operations by outcome",
			},
			[]string{"kind", "outcome"},
		),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pointledger_lock_wait_seconds",
			Help:    "Time spent waiting for an account lock",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		CriticalSection: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pointledger_critical_section_seconds",
			Help:    "Time an account lock is held",
			Buckets: prometheus.DefBuckets,
		}),
		LockRegistrySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pointledger_lock_registry_size",
			Help: "Accounts with an operation holding or awaiting their lock",
		}),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),

		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "pointledger_idempotent_replays_total",
			Help: "Total requests answered from a stored idempotent response",
		}),
	}
}

func (m *Metrics) ObserveOperation(kind domain.TransactionKind, outcome string) {
	m.Operations.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) ObserveLockWait(d time.Duration) {
	m.LockWait.Observe(d.Seconds())
}

func (m *Metrics) ObserveCriticalSection(d time.Duration) {
	m.CriticalSection.Observe(d.Seconds())
}

func (m *Metrics) SetLockRegistrySize(n int) {
	m.LockRegistrySize.Set(float64(n))
}
