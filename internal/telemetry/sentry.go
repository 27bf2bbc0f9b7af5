// Package telemetry provides opt-in, privacy-filtered error reporting to Sentry.
package telemetry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/privacy"
)

// DefaultFlushTimeout bounds how long shutdown waits for queued events
const DefaultFlushTimeout = 2 * time.Second

// Config controls Sentry initialization
type Config struct {
	Enabled     bool
	DSN         string
	Version     string
	Environment string

	// Transport replaces the HTTP transport; tests inject MockTransport here
	Transport sentry.Transport
}

var initialized atomic.Bool

// GetLogger returns the telemetry module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// Init initializes Sentry when telemetry is enabled. Disabled telemetry still
// installs a disabled reporter so the errors package never reaches the SDK.
func Init(cfg Config) error {
	if !cfg.Enabled {
		InitializeErrorIntegration(false)
		GetLogger().Debug("telemetry is disabled (opt-in required)")
		return nil
	}

	if cfg.DSN == "" {
		return errors.Newf("telemetry enabled without a DSN").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	environment := cfg.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          fmt.Sprintf("scanctl@%s", cfg.Version),
		Transport:        cfg.Transport,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetContext("application", map[string]any{
			"name":    "scanctl",
			"version": cfg.Version,
		})
	})

	InitializeErrorIntegration(true)
	initialized.Store(true)

	GetLogger().Info("telemetry initialized",
		logger.String("version", cfg.Version),
		logger.String("environment", environment))

	return nil
}

// Enabled reports whether Init completed with telemetry on and errors are
// being reported
func Enabled() bool {
	if !initialized.Load() {
		return false
	}
	reporter := errors.GetTelemetryReporter()
	return reporter != nil && reporter.IsEnabled()
}

// Flush waits up to timeout for queued events. It is a no-op when telemetry is off.
func Flush(timeout time.Duration) bool {
	if !initialized.Load() {
		return true
	}
	return sentry.Flush(timeout)
}

// Shutdown flushes pending events and detaches the SDK client.
func Shutdown() {
	if !initialized.Swap(false) {
		return
	}
	if !sentry.Flush(DefaultFlushTimeout) {
		GetLogger().Warn("telemetry flush timed out")
	}
	InitializeErrorIntegration(false)
	sentry.CurrentHub().BindClient(nil)
}

// applyPrivacyFilters strips anything that identifies the user or the machine
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	// request data carries the bearer token
	event.Request = nil

	return event
}
