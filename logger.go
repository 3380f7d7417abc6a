package khub

import "log"

// Logger is the minimal logging surface this package needs; plug in any
// framework via SetLogger.
type Logger interface {
	Printf(fmt string, args ...interface{})
}

type stdLogger struct{}

func (l *stdLogger) Printf(fmt string, args ...interface{}) {
	log.Printf(fmt, args...)
}

// NopLogger discards everything; handy for tests.
type NopLogger struct{}

func (NopLogger) Printf(fmt string, args ...interface{}) {
}

var defaultLogger Logger = &stdLogger{}

func SetLogger(logger Logger) {
	defaultLogger = logger
}
