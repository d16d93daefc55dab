// Package log is the structured logger shared by every parapipe component.
// Records are routed to stderr (stdout carries pipeline data) and,
// optionally, to a rotated log file.
package log

import (
	"context"
	"log/slog"
	"sync"
)

var (
	multiLogger *slog.Logger
	loggerMu    sync.RWMutex
)

// Start initializes the logging package from the global configuration.
// If the configuration is not initialized yet, stderr logging at info level is used.
func Start() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if multiLogger != nil {
		return ErrLoggerAlreadyInitialized
	}

	cfg := makeConfig()
	logger, err := cfg.makeMultiLogger()
	if err != nil {
		return err
	}
	multiLogger = logger

	return nil
}

// Stop flushes and closes the log destinations. Logging after Stop is a no-op.
func Stop() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if rotatedLogFile != nil {
		rotatedLogFile.Close()
		rotatedLogFile = nil
	}
	multiLogger = nil
}

// Debug logs a message at the debug level
func Debug(msg string, args ...any) {
	logWithLevel(slog.LevelDebug, msg, args...)
}

// Info logs a message at the info level
func Info(msg string, args ...any) {
	logWithLevel(slog.LevelInfo, msg, args...)
}

// Warn logs a message at the warn level
func Warn(msg string, args ...any) {
	logWithLevel(slog.LevelWarn, msg, args...)
}

// Error logs a message at the error level
func Error(msg string, args ...any) {
	logWithLevel(slog.LevelError, msg, args...)
}

func logWithLevel(level slog.Level, msg string, args ...any) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()

	if multiLogger == nil {
		return
	}
	multiLogger.Log(context.Background(), level, msg, args...)
}
