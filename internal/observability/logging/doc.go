// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON and text output formats
//   - Run id propagation for reconciliation passes
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	slog.SetDefault(logging.NewLogger())
//
//	func runPass(ctx context.Context) {
//	    ctx, logger := logging.WithRunID(ctx, slog.Default())
//	    logger.Info("pass started")
//	}
package logging
