// Package solver implements the per-island constraint solver orchestrator
// (C10): warm start, PGS velocity iterations, and Baumgarte position
// iterations over a fixed set of contacts and joints, in the deterministic
// order spec.md §5 requires.
package solver

import (
	"github.com/fulcrum-phys/fulcrum/contact"
)

// Settings are the world-level tunables the solver reads every step,
// mirroring spec.md §6's list: gravity, iteration counts, Baumgarte,
// penetration slop, max penetration distance, and the rest of
// contact.Tunables.
type Settings struct {
	contact.Tunables

	VelocityIterations int
	PositionIterations int

	// WarmStartRatio is Δt_new/Δt_prev; 1 unless the step's time delta changed
	// from the previous one.
	WarmStartRatio float64
}

// DefaultSettings mirrors spec.md §6's typical values.
var DefaultSettings = Settings{
	Tunables:           contact.DefaultTunables,
	VelocityIterations: 8,
	PositionIterations: 2,
	WarmStartRatio:     1,
}
