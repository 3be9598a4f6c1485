package log

// nopLogger discards every log entry. Nothing in this module installs it
// implicitly; oauth2.Server treats a nil Logger as "no logging" instead.
type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything written to it.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(args ...interface{})                 {}
func (nopLogger) Info(args ...interface{})                  {}
func (nopLogger) Warn(args ...interface{})                  {}
func (nopLogger) Error(args ...interface{})                 {}
func (nopLogger) Debugf(format string, args ...interface{}) {}
func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Warnf(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}
