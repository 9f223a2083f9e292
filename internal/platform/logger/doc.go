// Package logger provides structured logging functionality for the application.
//
// It uses the standard library log/slog package to emit JSON log lines with a
// configurable level, and carries request- or run-scoped loggers through
// context.Context.
package logger
