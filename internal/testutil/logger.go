package testutil

import (
	"log/slog"
)

// DiscardLogger returns a slog.Logger that discards all output.
//
// Use this in tests to reduce noise. For components that use log.Logger
// (a type alias for *slog.Logger), log.NewNop() returns the same thing;
// this exists for packages that cannot import internal/log without a cycle.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
