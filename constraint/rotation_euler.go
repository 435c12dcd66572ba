package constraint

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

// RotationEulerPart is a weld-type 3-DOF angular equality constraint: it
// drives the relative orientation of B with respect to A back to a fixed
// initial relative orientation qInit.
type RotationEulerPart struct {
	invI1, invI2 mgl64.Mat3
	invEffMass   mgl64.Mat3

	totalLambda mgl64.Vec3
	active      bool
}

// Setup builds K = invI1 + invI2 (the angular-only effective mass matrix for
// a 3-DOF weld) and inverts it.
func (p *RotationEulerPart) Setup(bodyA, bodyB *body.RigidBody) {
	p.invI1 = bodyA.InverseInertiaWorld()
	p.invI2 = bodyB.InverseInertiaWorld()

	k := addMat3(p.invI1, p.invI2)
	det := mat3Det(k)
	if det < MinEffectiveMass && det > -MinEffectiveMass {
		p.Deactivate()
		return
	}
	p.invEffMass = k.Inv()
	p.active = true
}

func (p *RotationEulerPart) Deactivate() {
	p.active = false
	p.totalLambda = mgl64.Vec3{}
}

func (p *RotationEulerPart) IsActive() bool { return p.active }

func (p *RotationEulerPart) ResetWarmStart() { p.totalLambda = mgl64.Vec3{} }

// RotationEulerError returns 2 * imag(q2 . qInit^-1 . q1^-1), the small-angle error vector.
func RotationEulerError(q1, q2, qInit mgl64.Quat) mgl64.Vec3 {
	qDiff := q2.Mul(qInit.Inverse()).Mul(q1.Inverse())
	return qDiff.V.Mul(2)
}

func (p *RotationEulerPart) applyImpulse(bodyA, bodyB *body.RigidBody, impulse mgl64.Vec3) {
	bodyA.AddAngularVelocity(p.invI1.Mul3x1(impulse).Mul(-1))
	bodyB.AddAngularVelocity(p.invI2.Mul3x1(impulse))
}

func (p *RotationEulerPart) WarmStart(bodyA, bodyB *body.RigidBody, ratio float64) {
	if !p.active {
		return
	}
	p.totalLambda = p.totalLambda.Mul(ratio)
	p.applyImpulse(bodyA, bodyB, p.totalLambda)
}

func (p *RotationEulerPart) SolveVelocity(bodyA, bodyB *body.RigidBody) mgl64.Vec3 {
	if !p.active {
		return mgl64.Vec3{}
	}
	wDiff := bodyB.AngularVelocity().Sub(bodyA.AngularVelocity())
	deltaLambda := p.invEffMass.Mul3x1(wDiff.Mul(-1))
	p.totalLambda = p.totalLambda.Add(deltaLambda)
	p.applyImpulse(bodyA, bodyB, deltaLambda)
	return deltaLambda
}

// SolvePosition applies the Baumgarte-scaled error vector directly as a
// rotation correction to both bodies.
func (p *RotationEulerPart) SolvePosition(bodyA, bodyB *body.RigidBody, errC mgl64.Vec3, beta float64) bool {
	if !p.active || errC.Len() < 1e-9 {
		return false
	}
	lambda := p.invEffMass.Mul3x1(errC.Mul(-beta))

	if bodyA.MotionType == body.Dynamic {
		applyRotationCorrection(bodyA, p.invI1.Mul3x1(lambda).Mul(-1))
	}
	if bodyB.MotionType == body.Dynamic {
		applyRotationCorrection(bodyB, p.invI2.Mul3x1(lambda))
	}
	return true
}
