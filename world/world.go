// Package world is the minimal step loop and island/body bookkeeping this
// repo needs to actually run end to end (spec.md explicitly places the step
// loop, island discovery, sleeping, and broad/narrow phase outside the
// core's scope — this package is the external collaborator that drives it).
package world

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/collide"
	"github.com/fulcrum-phys/fulcrum/contact"
	"github.com/fulcrum-phys/fulcrum/joint"
	"github.com/fulcrum-phys/fulcrum/solver"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

// World owns the bodies, joints, and per-step bookkeeping (contact cache,
// event bus) for one simulation.
type World struct {
	Bodies []*body.RigidBody
	Joints []joint.Definition

	Settings solver.Settings
	Gravity  mgl64.Vec3
	Substeps int
	Workers  int

	Cache    *contact.Cache
	Listener contact.Listener

	Events Events
}

// NewWorld returns a World ready to step, with its contact cache and event
// bus initialized.
func NewWorld(gravity mgl64.Vec3) *World {
	w := &World{
		Settings: solver.DefaultSettings,
		Gravity:  gravity,
		Substeps: 1,
		Cache:    contact.NewCache(),
		Events:   NewEvents(),
	}
	w.Settings.Gravity = gravity
	return w
}

// AddBody adds a rigid body to the world, returning its index (stable until
// the next RemoveBody).
func (w *World) AddBody(b *body.RigidBody) int {
	w.Bodies = append(w.Bodies, b)
	return len(w.Bodies) - 1
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(b *body.RigidBody) {
	k := -1
	for i, candidate := range w.Bodies {
		if candidate == b {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}

	delete(w.Events.sleepStates, b)
	for pair := range w.Events.previousActivePairs {
		if pair.bodyA == b || pair.bodyB == b {
			delete(w.Events.previousActivePairs, pair)
		}
	}
}

// AddJoint registers a joint definition to be set up and solved every step.
func (w *World) AddJoint(j joint.Definition) {
	w.Joints = append(w.Joints, j)
}

// Step advances the simulation by dt, split into Substeps sub-steps of h =
// dt/Substeps each. Per sub-step, ordering follows spec.md §5's data flow:
// integrate velocity (gravity) -> broad/narrow phase -> group into islands
// -> per-island warm start + velocity iterations -> integrate position ->
// per-island position iterations -> sleeping -> event flush.
func (w *World) Step(dt float64) {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	h := dt / float64(w.Substeps)

	for range w.Substeps {
		w.integrateVelocity(h)

		pairs := collide.BroadPhase(w.Bodies)
		manifolds := collide.NarrowPhase(w.Bodies, pairs)
		manifolds = w.Events.recordCollisions(w.Bodies, manifolds)

		islands := BuildIslands(w.Bodies, manifolds, w.Joints)

		states := make([]*solver.State, len(islands))
		task(w.Workers, indices(len(islands)), func(i int) {
			states[i] = solver.BuildAndSolveVelocity(islands[i], w.Bodies, w.Cache, w.Listener, w.Settings, h)
		})

		w.integratePosition(h)

		task(w.Workers, indices(len(islands)), func(i int) {
			states[i].SolvePosition(w.Bodies, w.Settings, h)
		})

		w.Cache.Prune()

		w.trySleep(h)
	}

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (w *World) integrateVelocity(h float64) {
	task(w.Workers, w.Bodies, func(b *body.RigidBody) {
		b.IntegrateVelocity(h, w.Gravity)
	})
}

func (w *World) integratePosition(h float64) {
	task(w.Workers, w.Bodies, func(b *body.RigidBody) {
		b.IntegratePosition(h)
	})
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	for _, b := range w.Bodies {
		b.TrySleep(h, 0.1, 0.05)
	}
}
