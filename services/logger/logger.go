package logger

import (
	"log"
	"strings"
)

// Level is a log severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is the logging surface every service receives through its options.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// DefaultLogger writes through the standard log package, filtered by level.
type DefaultLogger struct {
	level  Level
	logger *log.Logger
}

// NewDefaultLogger creates a DefaultLogger writing to the standard logger.
func NewDefaultLogger(level Level) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		logger: log.Default(),
	}
}

// New creates a DefaultLogger writing to l.
func New(l *log.Logger, level Level) *DefaultLogger {
	if l == nil {
		l = log.Default()
	}
	return &DefaultLogger{level: level, logger: l}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level. Unknown
// values fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l *DefaultLogger) Debug(format string, v ...interface{}) {
	l.write(DebugLevel, "[DEBUG] ", format, v...)
}

func (l *DefaultLogger) Info(format string, v ...interface{}) {
	l.write(InfoLevel, "[INFO] ", format, v...)
}

func (l *DefaultLogger) Warn(format string, v ...interface{}) {
	l.write(WarnLevel, "[WARN] ", format, v...)
}

func (l *DefaultLogger) Error(format string, v ...interface{}) {
	l.write(ErrorLevel, "[ERROR] ", format, v...)
}

func (l *DefaultLogger) write(level Level, prefix, format string, v ...interface{}) {
	if l.level > level {
		return
	}
	l.logger.Printf(prefix+format, v...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
