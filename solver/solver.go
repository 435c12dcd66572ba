package solver

import (
	"sort"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/contact"
	"github.com/fulcrum-phys/fulcrum/joint"
)

// Island is one connected component of the body-coupling graph (spec.md
// §5 "Island"): a set of contact manifolds and joints that only ever touch
// each other's bodies, discovered and grouped by an external collaborator.
// Solving an Island never needs to look outside it.
type Island struct {
	Manifolds []contact.Manifold
	Joints    []joint.Definition
}

// State is one island's built constraints for this step, kept alive between
// BuildAndSolveVelocity and SolvePosition so the caller can integrate body
// positions in between (spec.md §5's data flow: velocity iterations mutate
// velocity only; positions are integrated by the external step loop; then
// position iterations mutate position/orientation directly, never velocity).
type State struct {
	constraints []*contact.Constraint
	joints      []joint.Definition
}

// sortedJoints returns joints in solve order: priority descending, ties
// broken by original index ascending (spec.md §5's deterministic-ordering
// contract). sort.SliceStable preserves the tie-break for free.
func sortedJoints(joints []joint.Definition) []joint.Definition {
	sorted := make([]joint.Definition, len(joints))
	copy(sorted, joints)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].JointHeader().Priority > sorted[j].JointHeader().Priority
	})
	return sorted
}

// BuildAndSolveVelocity runs setup, warm start, and N velocity iterations for
// one island (spec.md §5 steps 1-3): builds a contact.Constraint per
// manifold, sorts them by (sort_key, bodyA index, bodyB index) for
// deterministic PGS ordering, then interleaves friction-then-normal contact
// solving with joint velocity solving, bailing out early on a pass that
// applies no impulse anywhere.
func BuildAndSolveVelocity(island Island, bodies []*body.RigidBody, cache *contact.Cache, listener contact.Listener, settings Settings, dt float64) *State {
	constraints := make([]*contact.Constraint, 0, len(island.Manifolds))
	for _, m := range island.Manifolds {
		c, ok := contact.Build(cache, bodies, m, listener, settings.Tunables, dt)
		if !ok {
			continue
		}
		constraints = append(constraints, c)
	}

	sort.Slice(constraints, func(i, j int) bool {
		a, b := constraints[i], constraints[j]
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		if a.BodyAIndex != b.BodyAIndex {
			return a.BodyAIndex < b.BodyAIndex
		}
		return a.BodyBIndex < b.BodyBIndex
	})

	joints := sortedJoints(island.Joints)

	for _, j := range joints {
		j.SetupVelocity(bodies, dt)
	}

	// Warm start (spec.md §5 step 2): joints then contacts, ratio ~= 1 unless
	// the time step changed from the previous frame.
	for _, j := range joints {
		j.WarmStartVelocity(bodies, settings.WarmStartRatio)
	}
	for _, c := range constraints {
		c.WarmStart(settings.WarmStartRatio)
	}

	// Velocity iterations (spec.md §5 step 3): friction first, then normal,
	// because PGS converges on whichever constraint is solved last and
	// non-penetration is the higher-priority one.
	for iter := 0; iter < settings.VelocityIterations; iter++ {
		applied := false
		for _, c := range constraints {
			if c.SolveVelocityFriction() {
				applied = true
			}
		}
		for _, c := range constraints {
			if c.SolveVelocityNormal() {
				applied = true
			}
		}
		for _, j := range joints {
			if j.SolveVelocity(bodies, dt) {
				applied = true
			}
		}
		if !applied {
			break
		}
	}

	return &State{constraints: constraints, joints: joints}
}

// SolvePosition runs M position iterations (spec.md §5 step 4), called after
// the caller has integrated positions from the solved velocities. It directly
// mutates position/orientation and never touches velocity. Early-exits on a
// converged pass, then writes back accumulated lambdas to the contact cache
// for next frame's warm start.
func (s *State) SolvePosition(bodies []*body.RigidBody, settings Settings, dt float64) {
	for iter := 0; iter < settings.PositionIterations; iter++ {
		converged := true
		for _, c := range s.constraints {
			if c.SolvePosition(settings.Tunables) {
				converged = false
			}
		}
		for _, j := range s.joints {
			if j.SolvePosition(bodies, dt, settings.Tunables.Baumgarte) {
				converged = false
			}
		}
		if converged {
			break
		}
	}

	for _, c := range s.constraints {
		c.Writeback()
	}
}
