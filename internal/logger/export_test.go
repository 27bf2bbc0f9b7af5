package logger

// NewSlogLogger exposes the standalone logger to the external test package
var NewSlogLogger = newSlogLogger
