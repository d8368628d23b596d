// Package logging provides a minimal logging interface and adapters for schedmesh.
//
// The Logger interface defines the standard leveled methods (Debug, Info, Warn,
// Error) taking a message plus alternating key/value pairs. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter, ZapAdapter and LogrusAdapter for bring-your-own loggers
//   - SchedLogger, a slog based logger with contextual cloning helpers and
//     domain helpers for remote calls, batches and handle resolution
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	cache := scheduling.NewCache(pool, func(o *scheduling.Options) { o.Logger = logger })
package logging
