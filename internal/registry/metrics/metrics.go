package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics provides observability for the registry module.
// Tracks operation outcomes and durations, and mirrors the ledger size and
// finality flag as gauges.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Beneficiaries     prometheus.Gauge
	DeathConfirmed    prometheus.Gauge
	AuditEmitFailures prometheus.Counter
}

// New creates a Metrics instance registered with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inheritx_registry_operations_total",
			Help: "Registry operations by name and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inheritx_registry_operation_duration_seconds",
			Help:    "Duration of registry operations including the store round trip",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		Beneficiaries: f.NewGauge(prometheus.GaugeOpts{
			Name: "inheritx_registry_beneficiaries",
			Help: "Number of beneficiary records after the last committed mutation",
		}),
		DeathConfirmed: f.NewGauge(prometheus.GaugeOpts{
			Name: "inheritx_registry_death_confirmed",
			Help: "1 once death has been confirmed, 0 before",
		}),
		AuditEmitFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "inheritx_registry_audit_emit_failures_total",
			Help: "Audit events that could not be emitted after a committed mutation",
		}),
	}
}

// ObserveOperation records the outcome and duration of one operation.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SetState mirrors the committed registry state.
func (m *Metrics) SetState(beneficiaries int, confirmed bool) {
	m.Beneficiaries.Set(float64(beneficiaries))
	if confirmed {
		m.DeathConfirmed.Set(1)
	} else {
		m.DeathConfirmed.Set(0)
	}
}

func (m *Metrics) IncrementAuditEmitFailure() {
	m.AuditEmitFailures.Inc()
}
