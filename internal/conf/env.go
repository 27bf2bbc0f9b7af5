// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"api.base_url", "SCANCTL_API_URL", validateEnvURL},
		{"viewer.base_url", "SCANCTL_VIEWER_URL", validateEnvURL},
		{"http.timeout", "SCANCTL_HTTP_TIMEOUT", validateEnvDuration},
		{"http.upload_timeout", "SCANCTL_UPLOAD_TIMEOUT", validateEnvDuration},
		{"session.path", "SCANCTL_SESSION_PATH", nil},
		{"busy.ttl", "SCANCTL_BUSY_TTL", validateEnvDuration},
		{"poll.interval", "SCANCTL_POLL_INTERVAL", validateEnvDuration},
		{"locale", "SCANCTL_LOCALE", validateEnvLocale},
		{"debug", "SCANCTL_DEBUG", validateEnvBool},
		{"telemetry.enabled", "SCANCTL_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.dsn", "SCANCTL_TELEMETRY_DSN", nil},
		{"metrics.textfile", "SCANCTL_METRICS_TEXTFILE", nil},
	}
}

// bindEnvVars binds every variable and validates the ones that are set
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("must be a boolean (true/false/1/0)")
	}
	return nil
}

// validateEnvDuration validates Go duration strings such as "30s" or "10m"
func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("must be a duration like 30s or 10m")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// validateEnvURL validates absolute http(s) URLs
func validateEnvURL(value string) error {
	return validateBaseURL(strings.TrimSpace(value))
}

// validateEnvLocale validates the UI locale
func validateEnvLocale(value string) error {
	if !IsSupportedLocale(strings.TrimSpace(value)) {
		return fmt.Errorf("must be one of %s", strings.Join(SupportedLocales, ", "))
	}
	return nil
}

// validateBaseURL accepts absolute http and https URLs
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}
