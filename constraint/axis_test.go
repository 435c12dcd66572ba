package constraint

import (
	"math"
	"testing"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

func floatsClose(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func newDynamicBody(t *testing.T, position mgl64.Vec3) *body.RigidBody {
	t.Helper()
	shape := &body.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	return body.NewRigidBody(position, mgl64.QuatIdent(), shape, body.Dynamic, 1.0, body.Material{})
}

func newStaticBody(t *testing.T, position mgl64.Vec3) *body.RigidBody {
	t.Helper()
	shape := &body.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0}
	return body.NewRigidBody(position, mgl64.QuatIdent(), shape, body.Static, 0, body.Material{})
}

func TestAxisPartSetupDeactivatesOnZeroEffectiveMass(t *testing.T) {
	a := newStaticBody(t, mgl64.Vec3{})
	b := newStaticBody(t, mgl64.Vec3{0, 1, 0})

	var p AxisPart
	p.Setup(a, b, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0}, 1, 1, 0, 0, HardSpring, 1.0/60)

	if p.IsActive() {
		t.Fatalf("two static bodies should never produce a usable effective mass")
	}
}

func TestAxisPartSolveVelocityZeroesRelativeVelocityAlongAxis(t *testing.T) {
	a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
	b := newDynamicBody(t, mgl64.Vec3{0, 1, 0})
	b.AddLinearVelocity(mgl64.Vec3{0, -5, 0})

	axis := mgl64.Vec3{0, 1, 0}
	var p AxisPart
	p.Setup(a, b, mgl64.Vec3{}, mgl64.Vec3{}, axis, 1, 1, 0, 0, HardSpring, 1.0/60)
	if !p.IsActive() {
		t.Fatalf("expected part to activate for two dynamic bodies")
	}

	for i := 0; i < 20; i++ {
		p.SolveVelocity(a, b, -math.MaxFloat64, math.MaxFloat64)
	}

	relVel := axis.Dot(b.LinearVelocity().Sub(a.LinearVelocity()))
	if !floatsClose(relVel, 0, 1e-6) {
		t.Fatalf("expected converged relative velocity ~0, got %v", relVel)
	}
}

func TestAxisPartClampPreventsPullingImpulse(t *testing.T) {
	a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
	b := newDynamicBody(t, mgl64.Vec3{0, 1, 0})
	// Separating velocity: a non-penetration constraint (lambdaMin=0) must
	// not apply any impulse here, since bodies are already moving apart.
	b.AddLinearVelocity(mgl64.Vec3{0, 5, 0})

	axis := mgl64.Vec3{0, 1, 0}
	var p AxisPart
	p.Setup(a, b, mgl64.Vec3{}, mgl64.Vec3{}, axis, 1, 1, 0, 0, HardSpring, 1.0/60)

	delta := p.SolveVelocity(a, b, 0, math.MaxFloat64)
	if delta != 0 {
		t.Fatalf("expected no impulse for separating bodies under a non-negative clamp, got delta=%v", delta)
	}
}

func TestAxisPartWarmStartAppliesStoredLambda(t *testing.T) {
	a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
	b := newDynamicBody(t, mgl64.Vec3{0, 1, 0})

	axis := mgl64.Vec3{0, 1, 0}
	var p AxisPart
	p.Setup(a, b, mgl64.Vec3{}, mgl64.Vec3{}, axis, 1, 1, 0, 0, HardSpring, 1.0/60)
	p.SetWarmStartLambda(1.0)

	p.WarmStart(a, b, 1.0)

	if b.LinearVelocity().Y() <= 0 {
		t.Fatalf("expected warm start to push b along +axis, got %v", b.LinearVelocity())
	}
	if a.LinearVelocity().Y() >= 0 {
		t.Fatalf("expected warm start to push a along -axis, got %v", a.LinearVelocity())
	}
}

func TestAxisPartDeactivateClearsLambda(t *testing.T) {
	a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
	b := newDynamicBody(t, mgl64.Vec3{0, 1, 0})

	var p AxisPart
	p.Setup(a, b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, 1, 1, 0, 0, HardSpring, 1.0/60)
	p.SolveVelocity(a, b, -math.MaxFloat64, math.MaxFloat64)

	p.Deactivate()

	if p.IsActive() {
		t.Fatalf("expected Deactivate to clear active flag")
	}
	if p.TotalLambda() != 0 {
		t.Fatalf("expected Deactivate to zero totalLambda, got %v", p.TotalLambda())
	}
}
