package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dentalscan/scanctl/internal/errors"
)

// ClientMetrics tracks backend requests
type ClientMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

// NewClientMetrics creates and registers backend request metrics
func NewClientMetrics(registry prometheus.Registerer) (*ClientMetrics, error) {
	m := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "api_requests_total",
				Help:      "Backend requests by endpoint and response status",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Time until the backend response headers arrived",
				Buckets:   prometheus.ExponentialBuckets(BucketStart5ms, BucketFactor2, BucketCount14),
			},
			[]string{"method", "endpoint"},
		),
		requestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "api_request_errors_total",
				Help:      "Backend requests that got no response",
			},
			[]string{"method", "endpoint", "error_type"}, // error_type: network, timeout, cancellation
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ClientMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requestsTotal, m.requestDuration, m.requestErrors}
}

// Describe implements the Collector interface
func (m *ClientMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *ClientMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// ObserveResponse has the signature of an httpclient after-response hook
func (m *ClientMetrics) ObserveResponse(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	endpoint := Endpoint(req.URL.Path)
	if err != nil {
		m.requestErrors.WithLabelValues(req.Method, endpoint, errorType(err)).Inc()
		return
	}
	m.requestsTotal.WithLabelValues(req.Method, endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	m.requestDuration.WithLabelValues(req.Method, endpoint).Observe(elapsed.Seconds())
}

// Endpoint normalizes a request path into a low-cardinality label: the path after
// "/api/" with numeric segments replaced by ":id"
func Endpoint(path string) string {
	if _, rest, ok := strings.Cut(path, "/api/"); ok {
		path = rest
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if _, err := strconv.ParseUint(seg, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancellation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "network"
	}
}
