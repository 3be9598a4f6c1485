// Package log provides a logger interface decoupled from any concrete
// logging library, plus a default implementation backed by Logrus.
package log

// Logger serves as an adapter interface for logger libraries so that
// callers never depend on a concrete logging library directly.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
