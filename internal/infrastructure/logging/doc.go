// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Log Levels:
//   - Debug: Verbose debugging information
//   - Info: General informational messages
//   - Warn: Warning messages
//   - Error: Error messages
//   - Fatal: Fatal errors (exits process)
//
// Components receive a *Logger through their constructors; there is no
// package-level singleton. Constructors accept nil and substitute a no-op
// logger via OrNop, so tests can pass nil everywhere.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("engine starting", zap.String("dataDir", dir))
//	logger.Error("write failed", zap.Error(err))
package logging
