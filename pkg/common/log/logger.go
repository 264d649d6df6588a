// Package log provides a common logging interface shared by every package
// in this module.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

const (
	// LevelDebug level for detailed troubleshooting information.
	LevelDebug Level = iota
	// LevelError level for error events.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", l)
	}
}

// Logger interface defines the methods for logging at different levels.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, args ...interface{})
	// Error logs an error-level message.
	Error(msg string, args ...interface{})
	// SetLevel sets the logging level.
	SetLevel(level Level)
}

// StandardLogger implements the Logger interface with a standard output format.
type StandardLogger struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
}

// NewStandardLogger creates a new StandardLogger with the given options.
func NewStandardLogger(options ...LoggerOption) *StandardLogger {
	logger := &StandardLogger{
		level: LevelError, // Default level
		out:   os.Stdout,
	}

	for _, option := range options {
		option(logger)
	}

	return logger
}

// LoggerOption is a function that configures a StandardLogger.
type LoggerOption func(*StandardLogger)

// WithLevel sets the logging level.
func WithLevel(level Level) LoggerOption {
	return func(l *StandardLogger) {
		l.level = level
	}
}

// WithOutput sets the output writer.
func WithOutput(out io.Writer) LoggerOption {
	return func(l *StandardLogger) {
		l.out = out
	}
}

// log logs a message at the specified level.
func (l *StandardLogger) log(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.out, "[%s] [%s] %s\n", timestamp, level.String(), formattedMsg)
}

// Debug logs a debug-level message.
func (l *StandardLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Error logs an error-level message.
func (l *StandardLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// SetLevel sets the logging level.
func (l *StandardLogger) SetLevel(level Level) {
	l.level = level
}

// Default logger instance.
var defaultLogger = NewStandardLogger()

// SetDefaultLogger sets the default logger instance.
func SetDefaultLogger(logger *StandardLogger) {
	defaultLogger = logger
}

// Debug logs a debug-level message to the default logger.
func Debug(msg string, args ...interface{}) {
	defaultLogger.Debug(msg, args...)
}

// Error logs an error-level message to the default logger.
func Error(msg string, args ...interface{}) {
	defaultLogger.Error(msg, args...)
}
