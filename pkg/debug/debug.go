// Package debug provides global debug logging flags
package debug

import (
	"context"
	"log/slog"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether per-tick estimator logs are shown.
// playspace-sim -debug sets both flags
var Tracking bool

// Log writes a debug record only if debug mode is enabled
func Log(logger *slog.Logger, msg string, args ...any) {
	if Enabled {
		emit(logger, msg, args...)
	}
}

// TrackLog writes a debug record only if tracking debug mode is enabled
func TrackLog(logger *slog.Logger, msg string, args ...any) {
	if Tracking {
		emit(logger, msg, args...)
	}
}

// emit logs at Info when the handler would drop Debug, so turning a flag
// on is enough to see the output.
func emit(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelDebug
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		level = slog.LevelInfo
	}
	logger.Log(context.Background(), level, msg, args...)
}
