package joint

import (
	"testing"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

func newHingeBodies(t *testing.T) []*body.RigidBody {
	t.Helper()
	return []*body.RigidBody{
		newDynamicBody(mgl64.Vec3{0, 0, 0}),
		newDynamicBody(mgl64.Vec3{1, 0, 0}),
	}
}

func TestHingeConstraintHoldsSharedPivot(t *testing.T) {
	bodies := newHingeBodies(t)
	h := NewHingeConstraint(bodies, 0, 1,
		mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0})

	bodies[1].AddLinearVelocity(mgl64.Vec3{0, 4, 0})

	const dt = 1.0 / 60
	for i := 0; i < 30; i++ {
		h.SetupVelocity(bodies, dt)
		h.WarmStartVelocity(bodies, 1.0)
		h.SolveVelocity(bodies, dt)
	}

	relVel := bodies[1].LinearVelocity().Sub(bodies[0].LinearVelocity())
	if relVel.Len() > 1e-2 {
		t.Fatalf("expected hinge's point constraint to absorb the pivot-separating velocity, got %v", relVel)
	}
}

func TestHingeConstraintVelocityMotorDrivesTargetAngularVelocity(t *testing.T) {
	bodies := newHingeBodies(t)
	h := NewHingeConstraint(bodies, 0, 1,
		mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0})

	h.Motor = MotorVelocity
	h.MotorTargetVelocity = 2.0
	h.MaxMotorTorque = 100.0

	const dt = 1.0 / 60
	for i := 0; i < 60; i++ {
		h.SetupVelocity(bodies, dt)
		h.WarmStartVelocity(bodies, 1.0)
		h.SolveVelocity(bodies, dt)
	}

	axis := mgl64.Vec3{0, 0, 1}
	relAngularVel := axis.Dot(bodies[1].AngularVelocity().Sub(bodies[0].AngularVelocity()))
	if relAngularVel < 1.0 {
		t.Fatalf("expected the velocity motor to drive the relative angular velocity toward the +2.0 target, got %v", relAngularVel)
	}
}

func TestHingeConstraintResetWarmStartClearsAllParts(t *testing.T) {
	bodies := newHingeBodies(t)
	h := NewHingeConstraint(bodies, 0, 1,
		mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0})

	bodies[1].AddLinearVelocity(mgl64.Vec3{0, 1, 0})
	h.SetupVelocity(bodies, 1.0/60)
	h.SolveVelocity(bodies, 1.0/60)
	h.ResetWarmStart()

	// After a reset, every part's accumulated impulse is zero, so a fresh
	// setup + warm start (before any velocity solve) must apply no impulse.
	velA := bodies[0].LinearVelocity()
	velB := bodies[1].LinearVelocity()

	h.SetupVelocity(bodies, 1.0/60)
	h.WarmStartVelocity(bodies, 1.0)

	if bodies[0].LinearVelocity() != velA || bodies[1].LinearVelocity() != velB {
		t.Fatalf("expected warm start after a reset to apply no impulse, velocities changed")
	}
}
