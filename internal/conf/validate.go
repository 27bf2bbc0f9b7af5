// conf/validate.go

package conf

import (
	"fmt"
	"strings"

	"github.com/dentalscan/scanctl/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateBaseURL(settings.API.BaseURL); err != nil {
		ve.Errors = append(ve.Errors, "api.base_url: "+err.Error())
	}
	if err := validateBaseURL(settings.Viewer.BaseURL); err != nil {
		ve.Errors = append(ve.Errors, "viewer.base_url: "+err.Error())
	}

	if settings.HTTP.Timeout <= 0 {
		ve.Errors = append(ve.Errors, "http.timeout must be positive")
	}
	if settings.HTTP.UploadTimeout <= 0 {
		ve.Errors = append(ve.Errors, "http.upload_timeout must be positive")
	}
	if settings.Busy.TTL < settings.HTTP.UploadTimeout {
		// a live request must never lose its busy flag
		ve.Errors = append(ve.Errors, "busy.ttl must not be shorter than http.upload_timeout")
	}

	if settings.Poll.Interval <= 0 {
		ve.Errors = append(ve.Errors, "poll.interval must be positive")
	}
	if settings.Poll.Burst < 1 {
		ve.Errors = append(ve.Errors, "poll.burst must be at least 1")
	}

	if !IsSupportedLocale(settings.Locale) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("locale must be one of %s", strings.Join(SupportedLocales, ", ")))
	}

	if settings.Session.Path == "" {
		ve.Errors = append(ve.Errors, "session.path must be set")
	}

	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry.dsn is required when telemetry is enabled")
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityHigh).
			Build()
	}

	return nil
}
