package conf

import "github.com/dentalscan/scanctl/internal/logger"

// GetLogger returns the config package logger. It is resolved on each call because
// configuration is read before the central logger exists.
func GetLogger() logger.Logger {
	return logger.Global().Module("conf")
}
