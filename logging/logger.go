package logging

// Logger is a leveled logger with a sugared, zap-like API. Entries go to every appender.
type Logger interface {
	SetLevel(level Level)
	GetLevel() Level
	// Sublogger returns the registered logger named "<name>.<subname>", creating it on first use.
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	Sync() error

	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Fatal logs at error level and exits the process.
	Fatal(args ...interface{})
}
