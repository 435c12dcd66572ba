package constraint

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

// AxisPart is a scalar (1-DOF) linear constraint along a world-space axis,
// optionally softened by an embedded spring (C1). It is the building block
// for contact normals/tangents and for distance/6-DOF translation limits.
type AxisPart struct {
	axis mgl64.Vec3

	r1xAxis     mgl64.Vec3
	r2xAxis     mgl64.Vec3
	invI1RxAxis mgl64.Vec3
	invI2RxAxis mgl64.Vec3

	effectiveMass float64
	totalLambda   float64

	spring Spring
	active bool
}

// Setup caches the jacobian cross products and effective mass for this axis.
// r1, r2 are the moment arms from each body's center of mass to the shared
// constraint point; invIScaleA/B scale each body's world inverse inertia
// (listener-supplied per-contact scaling; 1.0 for ordinary joints).
func (p *AxisPart) Setup(bodyA, bodyB *body.RigidBody, r1, r2, axis mgl64.Vec3, invIScaleA, invIScaleB, errC, bias float64, spring SpringSettings, dt float64) {
	p.axis = axis

	invMassA := bodyA.InvMass()
	invMassB := bodyB.InvMass()

	p.r1xAxis = r1.Cross(axis)
	p.r2xAxis = r2.Cross(axis)

	invI1 := bodyA.InverseInertiaWorld()
	invI2 := bodyB.InverseInertiaWorld()
	p.invI1RxAxis = invI1.Mul3x1(p.r1xAxis).Mul(invIScaleA)
	p.invI2RxAxis = invI2.Mul3x1(p.r2xAxis).Mul(invIScaleB)

	k := invMassA + invMassB + p.invI1RxAxis.Dot(p.r1xAxis) + p.invI2RxAxis.Dot(p.r2xAxis)
	if k < MinEffectiveMass {
		p.Deactivate()
		return
	}

	p.effectiveMass = p.spring.Setup(spring, k, errC, bias, dt)
	p.active = true
}

// Deactivate marks the part inactive for this step and clears its
// accumulated impulse so a stale lambda does not resurface later.
func (p *AxisPart) Deactivate() {
	p.active = false
	p.effectiveMass = 0
	p.totalLambda = 0
	p.spring.Reset()
}

// IsActive reports whether the last setup produced a usable effective mass.
func (p *AxisPart) IsActive() bool { return p.active }

// TotalLambda returns the accumulated impulse, used by friction-cone coupling.
func (p *AxisPart) TotalLambda() float64 { return p.totalLambda }

// ResetWarmStart clears the accumulated impulse without deactivating the part.
func (p *AxisPart) ResetWarmStart() { p.totalLambda = 0 }

// SetWarmStartLambda seeds the accumulated impulse from a cached value
// (before WarmStart applies it), without touching velocities.
func (p *AxisPart) SetWarmStartLambda(lambda float64) { p.totalLambda = lambda }


func (p *AxisPart) applyImpulse(bodyA, bodyB *body.RigidBody, lambda float64) {
	impulse := p.axis.Mul(lambda)
	bodyA.AddLinearVelocity(impulse.Mul(-bodyA.InvMass()))
	bodyB.AddLinearVelocity(impulse.Mul(bodyB.InvMass()))
	bodyA.AddAngularVelocity(p.invI1RxAxis.Mul(-lambda))
	bodyB.AddAngularVelocity(p.invI2RxAxis.Mul(lambda))
}

// WarmStart scales the stored lambda by ratio (normally 1, unless the time
// step changed) and applies the resulting impulse.
func (p *AxisPart) WarmStart(bodyA, bodyB *body.RigidBody, ratio float64) {
	if !p.active {
		return
	}
	p.totalLambda *= ratio
	p.applyImpulse(bodyA, bodyB, p.totalLambda)
}

// CandidateLambda computes the would-be new accumulated impulse for this
// iteration without clamping or applying it. Used by friction-cone coupling,
// which needs both tangents' raw solutions before clamping either.
func (p *AxisPart) CandidateLambda(bodyA, bodyB *body.RigidBody) float64 {
	if !p.active {
		return p.totalLambda
	}
	jv := p.axis.Dot(bodyB.LinearVelocity().Sub(bodyA.LinearVelocity())) +
		p.r2xAxis.Dot(bodyB.AngularVelocity()) - p.r1xAxis.Dot(bodyA.AngularVelocity())
	deltaLambda := -p.effectiveMass * (jv + p.spring.TotalBias(p.totalLambda))
	return p.totalLambda + deltaLambda
}

// ApplyClamped sets the accumulated impulse to newTotal and applies only the
// resulting delta impulse to body velocities.
func (p *AxisPart) ApplyClamped(bodyA, bodyB *body.RigidBody, newTotal float64) float64 {
	if !p.active {
		return 0
	}
	delta := newTotal - p.totalLambda
	p.totalLambda = newTotal
	if delta != 0 {
		p.applyImpulse(bodyA, bodyB, delta)
	}
	return delta
}

// SolveVelocity runs one PGS iteration, clamping the accumulated impulse to
// [lambdaMin, lambdaMax]. Returns the delta impulse actually applied (0 when
// inactive or the clamp absorbed the whole update), so callers can detect a
// converged, zero-impulse pass.
func (p *AxisPart) SolveVelocity(bodyA, bodyB *body.RigidBody, lambdaMin, lambdaMax float64) float64 {
	if !p.active {
		return 0
	}
	jv := p.axis.Dot(bodyB.LinearVelocity().Sub(bodyA.LinearVelocity())) +
		p.r2xAxis.Dot(bodyB.AngularVelocity()) - p.r1xAxis.Dot(bodyA.AngularVelocity())

	deltaLambda := -p.effectiveMass * (jv + p.spring.TotalBias(p.totalLambda))
	newLambda := clamp(p.totalLambda+deltaLambda, lambdaMin, lambdaMax)
	delta := newLambda - p.totalLambda
	p.totalLambda = newLambda
	if delta != 0 {
		p.applyImpulse(bodyA, bodyB, delta)
	}
	return delta
}

// SolvePosition applies a direct positional correction for hard constraints
// only (a non-zero spring gamma means this axis is a soft constraint and is
// stabilized by the velocity pass instead). errC is the current constraint
// error along axis; beta is the Baumgarte factor. Returns whether a
// correction was applied.
func (p *AxisPart) SolvePosition(bodyA, bodyB *body.RigidBody, errC, beta float64) bool {
	if !p.active || errC == 0 || p.spring.gamma != 0 {
		return false
	}
	lambda := -p.effectiveMass * beta * errC
	impulse := p.axis.Mul(lambda)

	if bodyA.MotionType == body.Dynamic {
		bodyA.Position = bodyA.Position.Sub(impulse.Mul(bodyA.InvMass()))
		applyRotationCorrection(bodyA, p.invI1RxAxis.Mul(-lambda))
	}
	if bodyB.MotionType == body.Dynamic {
		bodyB.Position = bodyB.Position.Add(impulse.Mul(bodyB.InvMass()))
		applyRotationCorrection(bodyB, p.invI2RxAxis.Mul(lambda))
	}
	return true
}
