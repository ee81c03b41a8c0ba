//go:build nohighs

package solver

import "log/slog"

// NewDefault returns the solver used when a caller configures none. Builds
// tagged nohighs have no HiGHS library and fall back to branch and bound.
func NewDefault(logger *slog.Logger) Solver {
	return NewBranchAndBound(logger)
}
