package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for notification fan-out.
type Metrics struct {
	Created         *prometheus.CounterVec
	ResolutionMiss  prometheus.Counter
	PersistFailures prometheus.Counter
}

// New creates and registers notification metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doctrack_notifications_created_total",
			Help: "Notifications persisted by fan-out, by event type",
		}, []string{"type"}),
		ResolutionMiss: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doctrack_notification_resolution_misses_total",
			Help: "Fan-out recipients skipped because identity resolution missed",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doctrack_notification_persist_failures_total",
			Help: "Fan-out batches that failed to persist",
		}),
	}
}

// RecordCreated counts persisted notifications for an event type.
func (m *Metrics) RecordCreated(eventType string, n int) {
	if m == nil {
		return
	}
	m.Created.WithLabelValues(eventType).Add(float64(n))
}

// RecordResolutionMiss counts one skipped recipient.
func (m *Metrics) RecordResolutionMiss() {
	if m == nil {
		return
	}
	m.ResolutionMiss.Inc()
}

// RecordPersistFailure counts one failed batch write.
func (m *Metrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}
