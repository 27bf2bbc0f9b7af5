package observability

import "github.com/dentalscan/scanctl/internal/logger"

// GetLogger returns the module logger for metrics export
func GetLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
