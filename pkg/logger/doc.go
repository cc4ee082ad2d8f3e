// Package logger builds configured log/slog loggers with sensible defaults:
// JSON output at INFO level for production, text output at DEBUG level for
// development. Loggers are created once at startup and injected into the
// components that log.
package logger
