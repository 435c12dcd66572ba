package constraint

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

// PointPart is a 3-DOF translational equality constraint at a shared pivot
// (ball-socket). It stores the inverse of the 3x3 effective-mass matrix and
// a 3-vector accumulated impulse.
type PointPart struct {
	r1, r2 mgl64.Vec3

	invI1, invI2 mgl64.Mat3
	invEffMass   mgl64.Mat3 // K^-1

	totalLambda mgl64.Vec3
	active      bool
}

// Setup builds K = (invMassA+invMassB)*I - [r1]x invI1 [r1]x - [r2]x invI2 [r2]x
// and inverts it. Deactivates if K is (near) singular.
func (p *PointPart) Setup(bodyA, bodyB *body.RigidBody, r1, r2 mgl64.Vec3) {
	p.r1, p.r2 = r1, r2
	p.invI1 = bodyA.InverseInertiaWorld()
	p.invI2 = bodyB.InverseInertiaWorld()

	k := pointEffectiveMassMatrix(bodyA.InvMass(), bodyB.InvMass(), r1, r2, p.invI1, p.invI2)

	det := mat3Det(k)
	if det < MinEffectiveMass && det > -MinEffectiveMass {
		p.Deactivate()
		return
	}
	p.invEffMass = k.Inv()
	p.active = true
}

func (p *PointPart) Deactivate() {
	p.active = false
	p.totalLambda = mgl64.Vec3{}
}

func (p *PointPart) IsActive() bool { return p.active }

func (p *PointPart) ResetWarmStart() { p.totalLambda = mgl64.Vec3{} }

func (p *PointPart) applyImpulse(bodyA, bodyB *body.RigidBody, impulse mgl64.Vec3) {
	bodyA.AddLinearVelocity(impulse.Mul(-bodyA.InvMass()))
	bodyB.AddLinearVelocity(impulse.Mul(bodyB.InvMass()))
	bodyA.AddAngularVelocity(p.invI1.Mul3x1(p.r1.Cross(impulse)).Mul(-1))
	bodyB.AddAngularVelocity(p.invI2.Mul3x1(p.r2.Cross(impulse)))
}

func (p *PointPart) WarmStart(bodyA, bodyB *body.RigidBody, ratio float64) {
	if !p.active {
		return
	}
	p.totalLambda = p.totalLambda.Mul(ratio)
	p.applyImpulse(bodyA, bodyB, p.totalLambda)
}

// SolveVelocity drives the relative velocity at the pivot to zero. There is
// no limit: this is a hard bilateral (equality) constraint, unclamped.
func (p *PointPart) SolveVelocity(bodyA, bodyB *body.RigidBody) mgl64.Vec3 {
	if !p.active {
		return mgl64.Vec3{}
	}
	vA := bodyA.LinearVelocity().Add(bodyA.AngularVelocity().Cross(p.r1))
	vB := bodyB.LinearVelocity().Add(bodyB.AngularVelocity().Cross(p.r2))
	cdot := vB.Sub(vA)

	deltaLambda := p.invEffMass.Mul3x1(cdot.Mul(-1))
	p.totalLambda = p.totalLambda.Add(deltaLambda)
	p.applyImpulse(bodyA, bodyB, deltaLambda)
	return deltaLambda
}

// SolvePosition corrects the pivot-difference vector directly using Baumgarte.
func (p *PointPart) SolvePosition(bodyA, bodyB *body.RigidBody, pivotA, pivotB mgl64.Vec3, beta float64) bool {
	if !p.active {
		return false
	}
	errC := pivotB.Sub(pivotA)
	if errC.Len() < 1e-9 {
		return false
	}
	lambda := p.invEffMass.Mul3x1(errC.Mul(-beta))

	if bodyA.MotionType == body.Dynamic {
		bodyA.Position = bodyA.Position.Sub(lambda.Mul(bodyA.InvMass()))
		applyRotationCorrection(bodyA, p.invI1.Mul3x1(p.r1.Cross(lambda)).Mul(-1))
	}
	if bodyB.MotionType == body.Dynamic {
		bodyB.Position = bodyB.Position.Add(lambda.Mul(bodyB.InvMass()))
		applyRotationCorrection(bodyB, p.invI2.Mul3x1(p.r2.Cross(lambda)))
	}
	return true
}

func mat3Det(m mgl64.Mat3) float64 {
	a, b, c := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	d, e, f := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	g, h, i := m.At(2, 0), m.At(2, 1), m.At(2, 2)
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}
