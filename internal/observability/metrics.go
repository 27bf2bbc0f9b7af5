// Package observability owns the Prometheus registry and writes it out in the
// node-exporter textfile format when a path is configured.
package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Client   *metrics.ClientMetrics
	Upload   *metrics.UploadMetrics
	Session  *metrics.SessionMetrics
}

// NewMetrics creates a registry and registers every collector on it.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	clientMetrics, err := metrics.NewClientMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create client metrics: %w", err)
	}

	uploadMetrics, err := metrics.NewUploadMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload metrics: %w", err)
	}

	sessionMetrics, err := metrics.NewSessionMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create session metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Client:   clientMetrics,
		Upload:   uploadMetrics,
		Session:  sessionMetrics,
	}, nil
}

// Registry exposes the underlying registry as a Gatherer
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics to path atomically. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	GetLogger().Debug("metrics written", logger.String("path", path))
	return nil
}
