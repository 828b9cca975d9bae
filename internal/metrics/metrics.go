package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the policy engine collectors.
type Metrics struct {
	Decisions           *prometheus.CounterVec
	Attempts            *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	CASConflicts        prometheus.Counter
	SweptOperations     prometheus.Counter
	ExpiredProfiles     prometheus.Counter
	DecisionDuration    prometheus.Histogram
	OperationDurationMs *prometheus.HistogramVec
}

// New registers the collectors on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faceverify_decisions_total",
			Help: "Policy decisions by business type and whether verification was required",
		}, []string{"business_type", "required"}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faceverify_attempts_total",
			Help: "Verification attempts recorded by result",
		}, []string{"result"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faceverify_operation_transitions_total",
			Help: "Operation log transitions by target status",
		}, []string{"status"}),
		CASConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "faceverify_operation_cas_conflicts_total",
			Help: "Optimistic concurrency conflicts on operation logs",
		}),
		SweptOperations: factory.NewCounter(prometheus.CounterOpts{
			Name: "faceverify_sweep_timed_out_operations_total",
			Help: "Operations failed by the timeout sweep",
		}),
		ExpiredProfiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "faceverify_sweep_expired_profiles_total",
			Help: "Face profiles moved to expired by the sweep",
		}),
		DecisionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "faceverify_decision_duration_seconds",
			Help:    "Latency of strategy resolution plus rule evaluation",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		OperationDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "faceverify_operation_duration_ms",
			Help:    "Time from operation start to its terminal state",
			Buckets: []float64{100, 500, 1000, 5000, 15000, 30000, 60000, 300000},
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveDecision(businessType string, required bool, took time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if required {
		label = "true"
	}
	m.Decisions.WithLabelValues(businessType, label).Inc()
	m.DecisionDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveAttempt(result string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(result).Inc()
}

// ObserveTransition counts a status change. duration is recorded only for
// terminal states.
func (m *Metrics) ObserveTransition(status string, duration time.Duration, terminal bool) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
	if terminal {
		m.OperationDurationMs.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
	}
}

func (m *Metrics) IncrementCASConflicts() {
	if m == nil {
		return
	}
	m.CASConflicts.Inc()
}

func (m *Metrics) AddSweptOperations(n int) {
	if m == nil {
		return
	}
	m.SweptOperations.Add(float64(n))
}

func (m *Metrics) AddExpiredProfiles(n int64) {
	if m == nil {
		return
	}
	m.ExpiredProfiles.Add(float64(n))
}
