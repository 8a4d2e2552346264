// Package logger declares the logging contract the pipeline depends on, so
// core packages stay free of a concrete logging backend.
package logger

// Logger is implemented by the infra adapters. Debugw carries structured
// fields for events worth querying later, the printf variants cover the rest.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
