package constraint

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vec3Close(a, b mgl64.Vec3, tolerance float64) bool {
	return floatsClose(a.X(), b.X(), tolerance) &&
		floatsClose(a.Y(), b.Y(), tolerance) &&
		floatsClose(a.Z(), b.Z(), tolerance)
}

func TestPointPartSolveVelocityZeroesRelativeVelocityAtPivot(t *testing.T) {
	a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
	b := newDynamicBody(t, mgl64.Vec3{1, 0, 0})
	b.AddLinearVelocity(mgl64.Vec3{0, -3, 1})

	r1 := mgl64.Vec3{0.5, 0, 0}
	r2 := mgl64.Vec3{-0.5, 0, 0}

	var p PointPart
	p.Setup(a, b, r1, r2)
	if !p.IsActive() {
		t.Fatalf("expected point part to activate between two dynamic bodies")
	}

	for i := 0; i < 20; i++ {
		p.SolveVelocity(a, b)
	}

	vA := a.LinearVelocity().Add(a.AngularVelocity().Cross(r1))
	vB := b.LinearVelocity().Add(b.AngularVelocity().Cross(r2))
	if !vec3Close(vA, vB, 1e-6) {
		t.Fatalf("expected pivot velocities to converge, got vA=%v vB=%v", vA, vB)
	}
}

func TestPointPartDeactivatesOnSingularEffectiveMass(t *testing.T) {
	a := newStaticBody(t, mgl64.Vec3{})
	b := newStaticBody(t, mgl64.Vec3{1, 0, 0})

	var p PointPart
	p.Setup(a, b, mgl64.Vec3{}, mgl64.Vec3{})

	if p.IsActive() {
		t.Fatalf("two static bodies have zero invMass and invInertia, K should be singular")
	}
}

func TestPointPartSolvePositionNoOpWhenPivotsCoincide(t *testing.T) {
	a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
	b := newDynamicBody(t, mgl64.Vec3{1, 0, 0})

	var p PointPart
	p.Setup(a, b, mgl64.Vec3{}, mgl64.Vec3{})

	applied := p.SolvePosition(a, b, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3}, 0.2)
	if applied {
		t.Fatalf("expected no position correction when pivots already coincide")
	}
}
