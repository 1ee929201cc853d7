package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for document lifecycle activity.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	DelaysFlagged prometheus.Counter
	StageHours    prometheus.Histogram
}

// New creates and registers document metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doctrack_transitions_total",
			Help: "Lifecycle transitions applied, by routing action",
		}, []string{"action"}),
		DelaysFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doctrack_delays_flagged_total",
			Help: "Documents newly flagged as delayed by the delay check",
		}),
		StageHours: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "doctrack_stage_hours",
			Help:    "Hours a document spent at a stage, recorded when the stage closes",
			Buckets: []float64{1, 4, 8, 24, 48, 96, 168},
		}),
	}
}

// RecordTransition counts one applied transition.
func (m *Metrics) RecordTransition(action string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action).Inc()
}

// RecordDelayFlagged counts one newly delayed document.
func (m *Metrics) RecordDelayFlagged() {
	if m == nil {
		return
	}
	m.DelaysFlagged.Inc()
}

// RecordStageHours observes a closed stage duration.
func (m *Metrics) RecordStageHours(hours float64) {
	if m == nil {
		return
	}
	m.StageHours.Observe(hours)
}
