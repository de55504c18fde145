// Package main is the entry point for the termul persistence engine.
//
// The engine owns durable application state for the desktop terminal
// manager: window geometry, per-project terminal layouts, workspace
// snapshots, schema migrations and version preservation for rollback.
//
// Startup sequence:
//   - Load configuration (env vars, overridden by CLI flags)
//   - Complete any staged version rollback
//   - Run pending schema migrations
//   - Restore the requested project's terminals, if any
//
// Configuration:
//   - Environment variables (12-factor), TERMUL_ prefix
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./termul -data-dir ~/.config/termul -project <id>
//
// Signals:
//   - SIGINT, SIGTERM: flush pending writes, close terminals, exit
package main
