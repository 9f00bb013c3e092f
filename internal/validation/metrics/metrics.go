package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the validation module.
// Tracks run outcomes, auto-pass rate, checker actions and critical path durations.
type Metrics struct {
	ValidationsTotal  *prometheus.CounterVec
	AutoPassedTotal   prometheus.Counter
	CheckerActions    *prometheus.CounterVec
	ValidateDuration  prometheus.Histogram
	MachineConfidence prometheus.Histogram
}

// New creates a new Metrics instance with all validation module metrics registered.
func New() *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "affirm_validations_total",
			Help: "Total validation runs by machine status",
		}, []string{"status"}),
		AutoPassedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "affirm_validations_auto_passed_total",
			Help: "Total validation runs that bypassed human review",
		}),
		CheckerActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "affirm_checker_actions_total",
			Help: "Total checker actions by type",
		}, []string{"action"}),
		ValidateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "affirm_validate_duration_seconds",
			Help:    "Duration of full validation runs (resolve + compare + persist)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		MachineConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "affirm_machine_confidence",
			Help:    "Distribution of machine confidence across validation runs",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		}),
	}
}

// RecordValidation records one completed validation run.
func (m *Metrics) RecordValidation(status string, confidence float64, autoPassed bool) {
	m.ValidationsTotal.WithLabelValues(status).Inc()
	m.MachineConfidence.Observe(confidence)
	if autoPassed {
		m.AutoPassedTotal.Inc()
	}
}

// RecordCheckerAction records one applied checker action.
func (m *Metrics) RecordCheckerAction(action string) {
	m.CheckerActions.WithLabelValues(action).Inc()
}

// ObserveValidate records the duration of a validation run.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveValidate(start time.Time) {
	m.ValidateDuration.Observe(time.Since(start).Seconds())
}
