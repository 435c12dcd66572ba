package constraint

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func coneLimits() SwingTwistLimits {
	return SwingTwistLimits{
		SwingType:      SwingCone,
		NormalHalfCone: mgl64.DegToRad(20),
		PlaneHalfCone:  mgl64.DegToRad(20),
		TwistMin:       mgl64.DegToRad(-20),
		TwistMax:       mgl64.DegToRad(20),
	}
}

// TestSwingTwistPartSetupPicksSignByViolatedSide exercises scenario E (a
// swing limit violation) and its mirror: the violated axis must flip
// depending on which side (py positive or negative) was violated, so a
// positive lambda always pushes the rotation back inward.
func TestSwingTwistPartSetupPicksSignByViolatedSide(t *testing.T) {
	a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
	b := newDynamicBody(t, mgl64.Vec3{1, 0, 0})

	worldAxisX := mgl64.Vec3{1, 0, 0}
	worldAxisY := mgl64.Vec3{0, 1, 0}
	worldAxisZ := mgl64.Vec3{0, 0, 1}

	posSwing := mgl64.QuatRotate(mgl64.DegToRad(70), worldAxisY)
	pPos := NewSwingTwistPart(coneLimits())
	pPos.Setup(a, b, worldAxisX, worldAxisY, worldAxisZ, posSwing, 1.0/60)

	if !pPos.SwingY.IsActive() {
		t.Fatalf("expected a 70-degree swing to violate the 20-degree cone and activate SwingY")
	}
	if pPos.SwingY.axis.Dot(worldAxisY) <= 0 {
		t.Fatalf("expected the axis to stay +worldAxisY for a positive-side violation, got %v", pPos.SwingY.axis)
	}

	negSwing := mgl64.QuatRotate(mgl64.DegToRad(-70), worldAxisY)
	pNeg := NewSwingTwistPart(coneLimits())
	pNeg.Setup(a, b, worldAxisX, worldAxisY, worldAxisZ, negSwing, 1.0/60)

	if !pNeg.SwingY.IsActive() {
		t.Fatalf("expected a mirrored -70-degree swing to also violate the cone and activate SwingY")
	}
	if pNeg.SwingY.axis.Dot(worldAxisY) >= 0 {
		t.Fatalf("expected the axis to flip to -worldAxisY for a negative-side violation, got %v", pNeg.SwingY.axis)
	}
}

// TestSwingTwistPartSolveVelocityIsMirroredAcrossViolatedSide is the
// behavioral counterpart: a +70-degree violation under a +Y angular velocity
// and its exact mirror (-70 degrees, -Y velocity) must converge to negated
// impulses and negated relative velocities. With a fixed (unflipped) axis
// sign, the two sides solve asymmetrically instead: one side's driving
// velocity gets corrected while its mirror image does not.
func TestSwingTwistPartSolveVelocityIsMirroredAcrossViolatedSide(t *testing.T) {
	worldAxisX := mgl64.Vec3{1, 0, 0}
	worldAxisY := mgl64.Vec3{0, 1, 0}
	worldAxisZ := mgl64.Vec3{0, 0, 1}

	run := func(angleDeg, angVelY float64) (lambda, relVelY float64) {
		a := newDynamicBody(t, mgl64.Vec3{0, 0, 0})
		b := newDynamicBody(t, mgl64.Vec3{1, 0, 0})
		swing := mgl64.QuatRotate(mgl64.DegToRad(angleDeg), worldAxisY)

		p := NewSwingTwistPart(coneLimits())
		p.Setup(a, b, worldAxisX, worldAxisY, worldAxisZ, swing, 1.0/60)
		if !p.SwingY.IsActive() {
			t.Fatalf("expected SwingY to activate for a %v-degree swing", angleDeg)
		}

		b.AddAngularVelocity(worldAxisY.Mul(angVelY))
		for i := 0; i < 20; i++ {
			p.SolveVelocity(a, b)
		}
		return p.SwingY.TotalLambda(), worldAxisY.Dot(b.AngularVelocity().Sub(a.AngularVelocity()))
	}

	lambdaPos, velPos := run(70, 2.0)
	lambdaNeg, velNeg := run(-70, -2.0)

	if !floatsClose(lambdaPos, -lambdaNeg, 1e-9) {
		t.Fatalf("expected mirrored violations under mirrored velocity to produce negated impulses, got %v and %v", lambdaPos, lambdaNeg)
	}
	if !floatsClose(velPos, -velNeg, 1e-9) {
		t.Fatalf("expected mirrored violations under mirrored velocity to converge to negated relative velocities, got %v and %v", velPos, velNeg)
	}
}
