// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values shared with validation and tests
const (
	DefaultAPIBaseURL    = "http://localhost:8000/api"
	DefaultViewerBaseURL = "http://localhost:8042"
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultUploadTimeout = 10 * time.Minute
	DefaultBusyTTL       = 15 * time.Minute
	DefaultPollInterval  = 10 * time.Second
	DefaultPollBurst     = 1
	DefaultLocale        = "en"
	DefaultUserAgent     = "scanctl"
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("locale", DefaultLocale)

	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("viewer.base_url", DefaultViewerBaseURL)

	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.upload_timeout", DefaultUploadTimeout)
	v.SetDefault("http.user_agent", DefaultUserAgent)

	v.SetDefault("session.path", DefaultSessionPath())
	v.SetDefault("busy.ttl", DefaultBusyTTL)

	v.SetDefault("poll.interval", DefaultPollInterval)
	v.SetDefault("poll.burst", DefaultPollBurst)

	v.SetDefault("logging.default_level", "warn")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "warn")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/scanctl.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")

	v.SetDefault("metrics.textfile", "")
}
