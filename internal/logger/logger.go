package logger

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

var (
	logMu sync.Mutex
	log   *slog.Logger
)

// Init initializes the global logger.
// env: "development" or "production"
func Init(env string) {
	l := newLogger(env)

	logMu.Lock()
	log = l
	logMu.Unlock()

	slog.SetDefault(l)
}

func newLogger(env string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// Production: JSON output for log shippers
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// GetLogger returns the global logger, lazily initializing it when Init
// was never called. Safe for concurrent first use.
func GetLogger() *slog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	if log == nil {
		log = newLogger("development")
	}
	return log
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal logs the error and terminates the process.
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

// With creates a child logger carrying extra fields.
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// WithError creates a child logger carrying an error field.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}

// HTTPLog logs a completed HTTP request.
func HTTPLog(method, path string, status int, duration time.Duration, size int) {
	GetLogger().Info("http request",
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size_bytes", size,
	)
}

// WorkerLog logs a background worker operation.
func WorkerLog(worker, operation string, err error) {
	fields := []any{
		"worker", worker,
		"operation", operation,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("worker operation failed", fields...)
	} else {
		GetLogger().Info("worker operation completed", fields...)
	}
}

// PaymentLog logs a payment-flow event with the identifiers needed
// for manual reconciliation.
func PaymentLog(event, orderID, paymentID, registrationID string, err error) {
	fields := []any{
		"event", event,
		"order_id", orderID,
		"payment_id", paymentID,
		"registration_id", registrationID,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("payment event failed", fields...)
	} else {
		GetLogger().Info("payment event", fields...)
	}
}
