package joint

import (
	"math"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// HingeConstraint is a 5-DOF revolute joint (§4.9.2): a shared pivot (C4)
// plus a constrained rotation axis (C5), with an optional angle limit and
// motor both expressed as a 1-DOF angle part (C3) about the hinge axis.
type HingeConstraint struct {
	Header

	LocalPointA      mgl64.Vec3
	LocalHingeAxisA  mgl64.Vec3
	LocalNormalAxisA mgl64.Vec3 // perpendicular to the hinge axis, angle zero reference

	LocalPointB      mgl64.Vec3
	LocalHingeAxisB  mgl64.Vec3
	LocalNormalAxisB mgl64.Vec3

	HasLimit           bool
	MinAngle, MaxAngle float64

	Motor               MotorState
	MotorTargetVelocity float64
	MotorTargetAngle    float64
	MaxMotorTorque      float64
	MotorSpring         constraint.SpringSettings

	// initialRelOrientation is bodyB's orientation relative to bodyA's at
	// joint creation, the reference the current angle is measured against.
	initialRelOrientation mgl64.Quat

	point         constraint.PointPart
	hingeRotation constraint.HingeRotationPart
	limit         constraint.AnglePart
	motor         constraint.AnglePart

	worldHingeAxisA mgl64.Vec3
	currentAngle    float64
	limitActive     bool
	limitLo, limitHi float64
	motorLo, motorHi float64
}

// NewHingeConstraint builds a hinge joint between two body indices. Axes and
// points are given in each body's local space; the hinge axes should point
// the same physical direction at rest.
func NewHingeConstraint(bodies []*body.RigidBody, bodyIndexA, bodyIndexB int, localPointA, localHingeAxisA, localNormalAxisA, localPointB, localHingeAxisB, localNormalAxisB mgl64.Vec3) *HingeConstraint {
	bodyA := bodies[bodyIndexA]
	bodyB := bodies[bodyIndexB]
	h := &HingeConstraint{
		Header: Header{
			BodyIndexA: bodyIndexA,
			BodyIndexB: bodyIndexB,
			Enabled:    true,
		},
		LocalPointA:      localPointA,
		LocalHingeAxisA:  localHingeAxisA,
		LocalNormalAxisA: localNormalAxisA,
		LocalPointB:      localPointB,
		LocalHingeAxisB:  localHingeAxisB,
		LocalNormalAxisB: localNormalAxisB,
	}
	h.initialRelOrientation = bodyB.Orientation.Mul(bodyA.Orientation.Inverse())
	return h
}

func (h *HingeConstraint) JointHeader() *Header { return &h.Header }

// currentRelativeAngle returns the signed rotation of B relative to A about
// the hinge axis, measured from the joint's rest orientation, via
// theta = 2*atan(a1.imag(q_rel) / real(q_rel)) (redesigned from atan2 per
// the single-valued-atan convention used throughout this package, §9).
func (h *HingeConstraint) currentRelativeAngle(bodyA, bodyB *body.RigidBody, a1 mgl64.Vec3) float64 {
	qRel := bodyB.Orientation.Mul(h.initialRelOrientation.Inverse()).Mul(bodyA.Orientation.Inverse())
	real := qRel.W
	imagAlongAxis := a1.Dot(qRel.V)
	if real == 0 {
		return math.Pi
	}
	return 2 * math.Atan(imagAlongAxis/real)
}

func (h *HingeConstraint) SetupVelocity(bodies []*body.RigidBody, dt float64) {
	bodyA := bodies[h.BodyIndexA]
	bodyB := bodies[h.BodyIndexB]

	worldPointA := bodyA.CenterOfMassPosition.Add(bodyA.Orientation.Rotate(h.LocalPointA))
	worldPointB := bodyB.CenterOfMassPosition.Add(bodyB.Orientation.Rotate(h.LocalPointB))
	rA := worldPointA.Sub(bodyA.CenterOfMassPosition)
	rB := worldPointB.Sub(bodyB.CenterOfMassPosition)
	h.point.Setup(bodyA, bodyB, rA, rB)

	a1 := bodyA.Orientation.Rotate(h.LocalHingeAxisA).Normalize()
	axis2 := bodyB.Orientation.Rotate(h.LocalHingeAxisB).Normalize()
	b2 := bodyB.Orientation.Rotate(h.LocalNormalAxisB).Normalize()
	if math.Abs(axis2.Dot(b2)) > 1e-3 {
		b2, _ = orthogonalBasisNearHinge(axis2, b2)
	}
	c2 := axis2.Cross(b2).Normalize()
	h.hingeRotation.Setup(bodyA, bodyB, a1, b2, c2)
	h.worldHingeAxisA = a1

	h.currentAngle = h.currentRelativeAngle(bodyA, bodyB, a1)

	if h.HasLimit {
		switch {
		case h.currentAngle <= h.MinAngle:
			h.limit.Setup(bodyA, bodyB, a1, 1, 1, h.currentAngle-h.MinAngle, 0, constraint.HardSpring, dt)
			h.limitLo, h.limitHi = 0, math.Inf(1)
			h.limitActive = true
		case h.currentAngle >= h.MaxAngle:
			h.limit.Setup(bodyA, bodyB, a1, 1, 1, h.currentAngle-h.MaxAngle, 0, constraint.HardSpring, dt)
			h.limitLo, h.limitHi = math.Inf(-1), 0
			h.limitActive = true
		default:
			h.limit.Deactivate()
			h.limitActive = false
		}
	} else {
		h.limit.Deactivate()
		h.limitActive = false
	}

	switch h.Motor {
	case MotorVelocity:
		h.motor.Setup(bodyA, bodyB, a1, 1, 1, 0, -h.MotorTargetVelocity, constraint.HardSpring, dt)
		h.motorLo, h.motorHi = -h.MaxMotorTorque*dt, h.MaxMotorTorque*dt
	case MotorPosition:
		errC := centeredAngleDiff(h.currentAngle, h.MotorTargetAngle)
		h.motor.Setup(bodyA, bodyB, a1, 1, 1, errC, 0, h.MotorSpring, dt)
		h.motorLo, h.motorHi = -h.MaxMotorTorque*dt, h.MaxMotorTorque*dt
	default:
		h.motor.Setup(bodyA, bodyB, a1, 1, 1, 0, 0, constraint.HardSpring, dt)
		h.motorLo, h.motorHi = -h.MaxMotorTorque*dt, h.MaxMotorTorque*dt
	}
}

func orthogonalBasisNearHinge(axis, fallback mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	perp := fallback.Sub(axis.Mul(fallback.Dot(axis)))
	if perp.Dot(perp) < 1e-6 {
		if math.Abs(axis.X()) < 0.9 {
			perp = mgl64.Vec3{1, 0, 0}.Sub(axis.Mul(axis.X()))
		} else {
			perp = mgl64.Vec3{0, 1, 0}.Sub(axis.Mul(axis.Y()))
		}
	}
	b2 := perp.Normalize()
	return b2, axis.Cross(b2).Normalize()
}

func (h *HingeConstraint) WarmStartVelocity(bodies []*body.RigidBody, ratio float64) {
	bodyA := bodies[h.BodyIndexA]
	bodyB := bodies[h.BodyIndexB]
	h.point.WarmStart(bodyA, bodyB, ratio)
	h.hingeRotation.WarmStart(bodyA, bodyB, ratio)
	if h.limitActive {
		h.limit.WarmStart(bodyA, bodyB, ratio)
	}
	if h.Motor != MotorOff {
		h.motor.WarmStart(bodyA, bodyB, ratio)
	}
}

func (h *HingeConstraint) SolveVelocity(bodies []*body.RigidBody, dt float64) bool {
	bodyA := bodies[h.BodyIndexA]
	bodyB := bodies[h.BodyIndexB]
	applied := false

	if h.Motor != MotorOff {
		delta := h.motor.SolveVelocity(bodyA, bodyB, h.motorLo, h.motorHi)
		applied = applied || delta != 0
	}
	if h.limitActive {
		delta := h.limit.SolveVelocity(bodyA, bodyB, h.limitLo, h.limitHi)
		applied = applied || delta != 0
	}
	h.hingeRotation.SolveVelocity(bodyA, bodyB)
	delta := h.point.SolveVelocity(bodyA, bodyB)
	applied = applied || delta.Len() != 0
	return applied
}

func (h *HingeConstraint) SolvePosition(bodies []*body.RigidBody, dt, beta float64) bool {
	bodyA := bodies[h.BodyIndexA]
	bodyB := bodies[h.BodyIndexB]

	worldPointA := bodyA.CenterOfMassPosition.Add(bodyA.Orientation.Rotate(h.LocalPointA))
	worldPointB := bodyB.CenterOfMassPosition.Add(bodyB.Orientation.Rotate(h.LocalPointB))
	applied := h.point.SolvePosition(bodyA, bodyB, worldPointA, worldPointB, beta)

	a1 := bodyA.Orientation.Rotate(h.LocalHingeAxisA).Normalize()
	axis2 := bodyB.Orientation.Rotate(h.LocalHingeAxisB).Normalize()
	b2 := bodyB.Orientation.Rotate(h.LocalNormalAxisB).Normalize()
	c2 := axis2.Cross(b2).Normalize()
	if h.hingeRotation.SolvePosition(bodyA, bodyB, a1, b2, c2, beta) {
		applied = true
	}

	if h.limitActive {
		angle := h.currentRelativeAngle(bodyA, bodyB, a1)
		var errC float64
		if angle <= h.MinAngle {
			errC = angle - h.MinAngle
		} else if angle >= h.MaxAngle {
			errC = angle - h.MaxAngle
		}
		if h.limit.SolvePosition(bodyA, bodyB, errC, beta) {
			applied = true
		}
	}
	return applied
}

func (h *HingeConstraint) ResetWarmStart() {
	h.point.ResetWarmStart()
	h.hingeRotation.ResetWarmStart()
	h.limit.ResetWarmStart()
	h.motor.ResetWarmStart()
}
