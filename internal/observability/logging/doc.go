// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation for briefing runs
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "premarket-brief/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func runBriefing(ctx context.Context, runID string) {
//	    logger := logging.WithRunID(logging.FromContext(ctx), runID)
//	    logger.Info("starting collection")
//	}
package logging
