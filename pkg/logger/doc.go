// Package logger provides a structured logging interface for boorudl.
//
// It wraps zerolog with:
//   - a Logger interface with field helpers (WithField, InfoWithFields, ...)
//   - pretty console output, uncolored when stdout is not a terminal
//   - optional JSON file output rotated by lumberjack
//   - a per-process run_id on every line
//   - a global logger (Initialize, GetLogger) and test doubles (NewNopLogger, NewTestLogger)
//
// Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("page", 3).Info("Searching posts")
package logger
