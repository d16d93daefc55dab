package log

import (
	"context"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"time"
)

// Fields are the key/value pairs attached to every record of a FieldedLogger
type Fields map[string]any

// FieldedLogger allows adding predefined fields to log entries
type FieldedLogger struct {
	ctx    context.Context
	fields []any
}

// NewFieldedLogger creates a new FieldedLogger with the given fields
func NewFieldedLogger(args *Fields) *FieldedLogger {
	sortedArgs := make([]any, 0, len(*args)*2)
	for _, k := range slices.Sorted(maps.Keys(*args)) {
		sortedArgs = append(sortedArgs, k, (*args)[k])
	}
	return &FieldedLogger{
		ctx:    context.Background(),
		fields: sortedArgs,
	}
}

// With returns a copy of the logger carrying the additional key/value pairs
func (fl *FieldedLogger) With(args ...any) *FieldedLogger {
	fields := make([]any, 0, len(fl.fields)+len(args))
	fields = append(fields, fl.fields...)
	fields = append(fields, args...)
	return &FieldedLogger{
		ctx:    fl.ctx,
		fields: fields,
	}
}

// Debug logs a message at the debug level with the predefined fields
func (fl *FieldedLogger) Debug(msg string, args ...any) {
	fl.logWithLevel(slog.LevelDebug, msg, args...)
}

// Info logs a message at the info level with the predefined fields
func (fl *FieldedLogger) Info(msg string, args ...any) {
	fl.logWithLevel(slog.LevelInfo, msg, args...)
}

// Warn logs a message at the warn level with the predefined fields
func (fl *FieldedLogger) Warn(msg string, args ...any) {
	fl.logWithLevel(slog.LevelWarn, msg, args...)
}

// Error logs a message at the error level with the predefined fields
func (fl *FieldedLogger) Error(msg string, args ...any) {
	fl.logWithLevel(slog.LevelError, msg, args...)
}

func (fl *FieldedLogger) logWithLevel(level slog.Level, msg string, args ...any) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()

	if multiLogger == nil || !multiLogger.Enabled(fl.ctx, level) {
		return
	}

	combinedArgs := make([]any, 0, len(fl.fields)+len(args))
	combinedArgs = append(combinedArgs, fl.fields...)
	combinedArgs = append(combinedArgs, args...)

	// Feed the caller frame of the FieldedLogger method user, not this wrapper.
	// https://github.com/golang/go/issues/73707#issuecomment-2878940561
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(combinedArgs...)
	multiLogger.Handler().Handle(fl.ctx, record)
}
