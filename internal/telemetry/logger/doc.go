// Package logger provides structured logging for tickstate.
//
// It builds log/slog loggers with:
//
//   - JSON (default) or text output
//   - a process-wide level that can change at runtime (SetLevel)
//   - automatic redaction of credential tokens and sensitive keys
//   - request id propagation from context.Context
//
// Components take a *slog.Logger; this package only decides how the
// root logger is built.
package logger
