package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	levelMu      sync.RWMutex
	currentLevel LogLevel
	levelLoaded  bool
)

// ParseLevel converts a level name to a LogLevel. Unknown names map to info.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// levelFromEnv reads DEBUG first, then LOG_LEVEL.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	levelMu.RLock()
	if levelLoaded {
		l := currentLevel
		levelMu.RUnlock()
		return l
	}
	levelMu.RUnlock()

	levelMu.Lock()
	defer levelMu.Unlock()
	if !levelLoaded {
		currentLevel = levelFromEnv()
		levelLoaded = true
	}
	return currentLevel
}

// SetLevel overrides the level picked up from the environment.
func SetLevel(l LogLevel) {
	levelMu.Lock()
	defer levelMu.Unlock()
	currentLevel = l
	levelLoaded = true
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logf(l LogLevel, tag, prefix, format string, args ...interface{}) {
	if GetLevel() > l {
		return
	}
	log.Printf(tag+prefix+format, args...)
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, "[DEBUG] ", "", format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logf(LevelInfo, "[INFO] ", "", format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, "[WARN] ", "", format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logf(LevelError, "[ERROR] ", "", format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Logger prefixes every message with a fixed scope, e.g. a scan job id.
type Logger struct {
	prefix string
}

// With returns a Logger whose messages start with "[scope] ".
func With(scope string) *Logger {
	if scope == "" {
		return &Logger{}
	}
	return &Logger{prefix: "[" + scope + "] "}
}

// Debug logs a scoped debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	logf(LevelDebug, "[DEBUG] ", l.prefix, format, args...)
}

// Info logs a scoped info message.
func (l *Logger) Info(format string, args ...interface{}) {
	logf(LevelInfo, "[INFO] ", l.prefix, format, args...)
}

// Warn logs a scoped warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	logf(LevelWarn, "[WARN] ", l.prefix, format, args...)
}

// Error logs a scoped error.
func (l *Logger) Error(format string, args ...interface{}) {
	logf(LevelError, "[ERROR] ", l.prefix, format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
