package telemetry

import (
	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/privacy"
)

// InitializeErrorIntegration points the errors package at Sentry and installs
// the privacy scrubber used for every reported message.
func InitializeErrorIntegration(enabled bool) {
	errors.SetTelemetryReporter(errors.NewSentryReporter(enabled))
	errors.SetPrivacyScrubber(privacy.ScrubMessage)
}
