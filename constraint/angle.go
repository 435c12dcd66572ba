package constraint

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

// AnglePart is a scalar (1-DOF) angular-only constraint about axis: the
// jacobian is [0, -axis, 0, axis], no linear term. Used for hinge angle
// limits/motors, joint friction, and rotation motors in the 6-DOF joint.
type AnglePart struct {
	axis mgl64.Vec3

	invI1Axis mgl64.Vec3
	invI2Axis mgl64.Vec3

	effectiveMass float64
	totalLambda   float64

	spring Spring
	active bool
}

// Setup mirrors AxisPart.Setup but without the linear terms.
func (p *AnglePart) Setup(bodyA, bodyB *body.RigidBody, axis mgl64.Vec3, invIScaleA, invIScaleB, errC, bias float64, spring SpringSettings, dt float64) {
	p.axis = axis

	invI1 := bodyA.InverseInertiaWorld()
	invI2 := bodyB.InverseInertiaWorld()
	p.invI1Axis = invI1.Mul3x1(axis).Mul(invIScaleA)
	p.invI2Axis = invI2.Mul3x1(axis).Mul(invIScaleB)

	k := axis.Dot(p.invI1Axis) + axis.Dot(p.invI2Axis)
	if k < MinEffectiveMass {
		p.Deactivate()
		return
	}

	p.effectiveMass = p.spring.Setup(spring, k, errC, bias, dt)
	p.active = true
}

func (p *AnglePart) Deactivate() {
	p.active = false
	p.effectiveMass = 0
	p.totalLambda = 0
	p.spring.Reset()
}

func (p *AnglePart) IsActive() bool { return p.active }

func (p *AnglePart) TotalLambda() float64 { return p.totalLambda }

func (p *AnglePart) ResetWarmStart() { p.totalLambda = 0 }

func (p *AnglePart) applyImpulse(bodyA, bodyB *body.RigidBody, lambda float64) {
	bodyA.AddAngularVelocity(p.invI1Axis.Mul(-lambda))
	bodyB.AddAngularVelocity(p.invI2Axis.Mul(lambda))
}

func (p *AnglePart) WarmStart(bodyA, bodyB *body.RigidBody, ratio float64) {
	if !p.active {
		return
	}
	p.totalLambda *= ratio
	p.applyImpulse(bodyA, bodyB, p.totalLambda)
}

func (p *AnglePart) SolveVelocity(bodyA, bodyB *body.RigidBody, lambdaMin, lambdaMax float64) float64 {
	if !p.active {
		return 0
	}
	jv := p.axis.Dot(bodyB.AngularVelocity().Sub(bodyA.AngularVelocity()))
	deltaLambda := -p.effectiveMass * (jv + p.spring.TotalBias(p.totalLambda))
	newLambda := clamp(p.totalLambda+deltaLambda, lambdaMin, lambdaMax)
	delta := newLambda - p.totalLambda
	p.totalLambda = newLambda
	if delta != 0 {
		p.applyImpulse(bodyA, bodyB, delta)
	}
	return delta
}

func (p *AnglePart) SolvePosition(bodyA, bodyB *body.RigidBody, errC, beta float64) bool {
	if !p.active || errC == 0 {
		return false
	}
	lambda := -p.effectiveMass * beta * errC
	if bodyA.MotionType == body.Dynamic {
		applyRotationCorrection(bodyA, p.invI1Axis.Mul(-lambda))
	}
	if bodyB.MotionType == body.Dynamic {
		applyRotationCorrection(bodyB, p.invI2Axis.Mul(lambda))
	}
	return true
}
