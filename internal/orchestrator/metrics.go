package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts attempts and session outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	Attempts        *prometheus.CounterVec
	Sessions        *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studypilot_generation_attempts_total",
				Help: "Generation requests sent to the backend, by artifact kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Sessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studypilot_generation_sessions_total",
				Help: "Generation sessions by artifact kind and final status",
			},
			[]string{"kind", "status"},
		),
		AttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studypilot_generation_attempt_duration_seconds",
				Help:    "Duration of single generation requests",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) recordAttempt(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(kind, outcome).Inc()
	if outcome != outcomeDiscarded {
		m.AttemptDuration.WithLabelValues(kind).Observe(seconds)
	}
}

func (m *Metrics) recordSession(kind, status string) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(kind, status).Inc()
}
