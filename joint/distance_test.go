package joint

import (
	"math"
	"testing"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

func floatsClose(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func newDynamicBody(position mgl64.Vec3) *body.RigidBody {
	shape := &body.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	return body.NewRigidBody(position, mgl64.QuatIdent(), shape, body.Dynamic, 1.0, body.Material{})
}

func TestDistanceConstraintRigidRodHoldsSeparation(t *testing.T) {
	bodies := []*body.RigidBody{newDynamicBody(mgl64.Vec3{0, 0, 0}), newDynamicBody(mgl64.Vec3{2, 0, 0})}
	j := NewDistanceConstraint(0, 1, mgl64.Vec3{}, mgl64.Vec3{}, 2.0, 2.0, constraint.HardSpring)

	bodies[1].AddLinearVelocity(mgl64.Vec3{3, 0, 0})

	const dt = 1.0 / 60
	for i := 0; i < 20; i++ {
		j.SetupVelocity(bodies, dt)
		j.WarmStartVelocity(bodies, 1.0)
		j.SolveVelocity(bodies, dt)
	}

	relVel := bodies[1].LinearVelocity().Sub(bodies[0].LinearVelocity()).Dot(mgl64.Vec3{1, 0, 0})
	if !floatsClose(relVel, 0, 1e-5) {
		t.Fatalf("expected rigid rod to zero separating velocity along the rod axis, got %v", relVel)
	}
}

func TestDistanceConstraintEqualRangeSelectsEqualityMode(t *testing.T) {
	bodies := []*body.RigidBody{newDynamicBody(mgl64.Vec3{0, 0, 0}), newDynamicBody(mgl64.Vec3{1, 0, 0})}
	j := NewDistanceConstraint(0, 1, mgl64.Vec3{}, mgl64.Vec3{}, 1.0, 1.0, constraint.HardSpring)

	j.SetupVelocity(bodies, 1.0/60)
	if j.mode != distanceEquality {
		t.Fatalf("expected equality mode at exactly MinDistance==MaxDistance, got %v", j.mode)
	}
}

func TestDistanceConstraintInactiveInsideRange(t *testing.T) {
	bodies := []*body.RigidBody{newDynamicBody(mgl64.Vec3{0, 0, 0}), newDynamicBody(mgl64.Vec3{1.5, 0, 0})}
	j := NewDistanceConstraint(0, 1, mgl64.Vec3{}, mgl64.Vec3{}, 1.0, 2.0, constraint.HardSpring)

	j.SetupVelocity(bodies, 1.0/60)
	if j.mode != distanceInactive {
		t.Fatalf("expected inactive mode when distance is strictly inside [min,max], got %v", j.mode)
	}
	if j.SolveVelocity(bodies, 1.0/60) {
		t.Fatalf("expected SolveVelocity to be a no-op while inactive")
	}
}

func TestDistanceConstraintResetWarmStartClearsLambda(t *testing.T) {
	bodies := []*body.RigidBody{newDynamicBody(mgl64.Vec3{0, 0, 0}), newDynamicBody(mgl64.Vec3{3, 0, 0})}
	j := NewDistanceConstraint(0, 1, mgl64.Vec3{}, mgl64.Vec3{}, 2.0, 2.0, constraint.HardSpring)

	j.SetupVelocity(bodies, 1.0/60)
	j.SolveVelocity(bodies, 1.0/60)

	j.ResetWarmStart()

	if j.axis.TotalLambda() != 0 {
		t.Fatalf("expected ResetWarmStart to zero the embedded axis part's accumulated impulse")
	}
}
