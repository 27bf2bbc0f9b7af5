package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics tracks scan uploads
type UploadMetrics struct {
	uploadsTotal   *prometheus.CounterVec
	uploadBytes    *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
}

// NewUploadMetrics creates and registers upload metrics
func NewUploadMetrics(registry prometheus.Registerer) (*UploadMetrics, error) {
	m := &UploadMetrics{
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "uploads_total",
				Help:      "Upload attempts by destination and outcome",
			},
			[]string{"destination", "outcome"}, // outcome: success, failure, rejected
		),
		uploadBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "upload_bytes_total",
				Help:      "Bytes of successfully uploaded scan files",
			},
			[]string{"destination"},
		),
		uploadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "upload_duration_seconds",
				Help:      "Time from first byte sent to server response",
				Buckets:   prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor3, BucketCount10),
			},
			[]string{"destination", "outcome"},
		),
	}
	for _, c := range []prometheus.Collector{m.uploadsTotal, m.uploadBytes, m.uploadDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordUpload implements upload.Recorder. Rejected submissions have no duration.
func (m *UploadMetrics) RecordUpload(destination, outcome string, bytes int64, elapsed time.Duration) {
	m.uploadsTotal.WithLabelValues(destination, outcome).Inc()
	if bytes > 0 {
		m.uploadBytes.WithLabelValues(destination).Add(float64(bytes))
	}
	if elapsed > 0 {
		m.uploadDuration.WithLabelValues(destination, outcome).Observe(elapsed.Seconds())
	}
}
