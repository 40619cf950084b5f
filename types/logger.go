package types

// Logger is the structured logger accepted by every component. Fields added
// with WithField or WithFields are attached to all subsequent log lines of the
// returned Logger; the receiver is never modified.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...any)
	Info(msg string)
	Infof(format string, args ...any)
	Warn(msg string)
	Warnf(format string, args ...any)
	Error(msg string)
	Errorf(format string, args ...any)
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
}
