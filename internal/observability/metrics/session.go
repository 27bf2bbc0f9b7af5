package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// SessionMetrics tracks session teardowns and rejected duplicate actions
type SessionMetrics struct {
	teardowns      prometheus.Counter
	busyRejections *prometheus.CounterVec
	watchedGauge   prometheus.Gauge
}

// NewSessionMetrics creates and registers session metrics
func NewSessionMetrics(registry prometheus.Registerer) (*SessionMetrics, error) {
	m := &SessionMetrics{
		teardowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_teardowns_total",
			Help:      "Sessions ended by an unauthorized response",
		}),
		busyRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "busy_rejections_total",
				Help:      "Actions rejected because the same item was already pending",
			},
			[]string{"action"},
		),
		watchedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "watched_analyses",
			Help:      "Analyses still being refreshed by the watch loop",
		}),
	}
	for _, c := range []prometheus.Collector{m.teardowns, m.busyRejections, m.watchedGauge} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordTeardown counts one 401 teardown
func (m *SessionMetrics) RecordTeardown() {
	m.teardowns.Inc()
}

// RecordBusyRejection implements repository.RejectionRecorder
func (m *SessionMetrics) RecordBusyRejection(action string) {
	m.busyRejections.WithLabelValues(action).Inc()
}

// SetWatched sets the number of analyses the watch loop is waiting on
func (m *SessionMetrics) SetWatched(n int) {
	m.watchedGauge.Set(float64(n))
}

// Watched returns the current watch gauge value
func (m *SessionMetrics) Watched() float64 {
	metric := &dto.Metric{}
	if err := m.watchedGauge.Write(metric); err != nil {
		return 0
	}
	if metric.Gauge != nil && metric.Gauge.Value != nil {
		return *metric.Gauge.Value
	}
	return 0
}
