package joint

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// RagdollConstraint is the 3-DOF-angular ragdoll joint (§4.9.3): a shared
// pivot (C4) plus a cone/pyramid swing and twist-range limit (C7), with
// optional velocity motors driving the twist and the two swing axes.
// Each body's constraint frame is given as a local orientation whose X axis
// is the twist axis; LocalFrameA/B let the bone's rest pose be arbitrary
// relative to the constraint's cone.
type RagdollConstraint struct {
	Header

	LocalPointA mgl64.Vec3
	LocalFrameA mgl64.Quat

	LocalPointB mgl64.Vec3
	LocalFrameB mgl64.Quat

	Limits constraint.SwingTwistLimits

	MotorTwist, MotorSwingY, MotorSwingZ                                     MotorState
	MotorTargetVelocityTwist, MotorTargetVelocitySwingY, MotorTargetVelocitySwingZ float64
	MaxMotorTorque                                                           float64

	point      constraint.PointPart
	swingTwist *constraint.SwingTwistPart

	motorTwist, motorSwingY, motorSwingZ constraint.AnglePart
	motorLo, motorHi                     float64

	worldAxisX, worldAxisY, worldAxisZ mgl64.Vec3
}

// NewRagdollConstraint builds a ragdoll joint between two body indices.
func NewRagdollConstraint(bodyIndexA, bodyIndexB int, localPointA mgl64.Vec3, localFrameA mgl64.Quat, localPointB mgl64.Vec3, localFrameB mgl64.Quat, limits constraint.SwingTwistLimits) *RagdollConstraint {
	return &RagdollConstraint{
		Header: Header{
			BodyIndexA: bodyIndexA,
			BodyIndexB: bodyIndexB,
			Enabled:    true,
		},
		LocalPointA: localPointA,
		LocalFrameA: localFrameA,
		LocalPointB: localPointB,
		LocalFrameB: localFrameB,
		Limits:      limits,
		swingTwist:  constraint.NewSwingTwistPart(limits),
	}
}

func (r *RagdollConstraint) JointHeader() *Header { return &r.Header }

func (r *RagdollConstraint) constraintFrames(bodyA, bodyB *body.RigidBody) (mgl64.Quat, mgl64.Quat) {
	return bodyA.Orientation.Mul(r.LocalFrameA), bodyB.Orientation.Mul(r.LocalFrameB)
}

// relativeOrientation expresses B's constraint frame relative to A's, the
// input Decompose splits into swing and twist.
func (r *RagdollConstraint) relativeOrientation(bodyA, bodyB *body.RigidBody) mgl64.Quat {
	frameA, frameB := r.constraintFrames(bodyA, bodyB)
	return frameA.Inverse().Mul(frameB)
}

func (r *RagdollConstraint) SetupVelocity(bodies []*body.RigidBody, dt float64) {
	bodyA := bodies[r.BodyIndexA]
	bodyB := bodies[r.BodyIndexB]

	worldPointA := bodyA.CenterOfMassPosition.Add(bodyA.Orientation.Rotate(r.LocalPointA))
	worldPointB := bodyB.CenterOfMassPosition.Add(bodyB.Orientation.Rotate(r.LocalPointB))
	rA := worldPointA.Sub(bodyA.CenterOfMassPosition)
	rB := worldPointB.Sub(bodyB.CenterOfMassPosition)
	r.point.Setup(bodyA, bodyB, rA, rB)

	frameA, _ := r.constraintFrames(bodyA, bodyB)
	r.worldAxisX = frameA.Rotate(mgl64.Vec3{1, 0, 0})
	r.worldAxisY = frameA.Rotate(mgl64.Vec3{0, 1, 0})
	r.worldAxisZ = frameA.Rotate(mgl64.Vec3{0, 0, 1})

	relOrientation := r.relativeOrientation(bodyA, bodyB)
	r.swingTwist.Setup(bodyA, bodyB, r.worldAxisX, r.worldAxisY, r.worldAxisZ, relOrientation, dt)

	r.motorLo, r.motorHi = -r.MaxMotorTorque*dt, r.MaxMotorTorque*dt
	r.setupMotor(&r.motorTwist, bodyA, bodyB, r.worldAxisX, r.MotorTwist, r.MotorTargetVelocityTwist, dt)
	r.setupMotor(&r.motorSwingY, bodyA, bodyB, r.worldAxisY, r.MotorSwingY, r.MotorTargetVelocitySwingY, dt)
	r.setupMotor(&r.motorSwingZ, bodyA, bodyB, r.worldAxisZ, r.MotorSwingZ, r.MotorTargetVelocitySwingZ, dt)
}

func (r *RagdollConstraint) setupMotor(part *constraint.AnglePart, bodyA, bodyB *body.RigidBody, axis mgl64.Vec3, state MotorState, targetVelocity, dt float64) {
	if state == MotorOff {
		part.Deactivate()
		return
	}
	part.Setup(bodyA, bodyB, axis, 1, 1, 0, -targetVelocity, constraint.HardSpring, dt)
}

func (r *RagdollConstraint) WarmStartVelocity(bodies []*body.RigidBody, ratio float64) {
	bodyA := bodies[r.BodyIndexA]
	bodyB := bodies[r.BodyIndexB]
	r.point.WarmStart(bodyA, bodyB, ratio)
	r.swingTwist.SwingY.WarmStart(bodyA, bodyB, ratio)
	r.swingTwist.SwingZ.WarmStart(bodyA, bodyB, ratio)
	r.swingTwist.Twist.WarmStart(bodyA, bodyB, ratio)
	r.motorTwist.WarmStart(bodyA, bodyB, ratio)
	r.motorSwingY.WarmStart(bodyA, bodyB, ratio)
	r.motorSwingZ.WarmStart(bodyA, bodyB, ratio)
}

func (r *RagdollConstraint) SolveVelocity(bodies []*body.RigidBody, dt float64) bool {
	bodyA := bodies[r.BodyIndexA]
	bodyB := bodies[r.BodyIndexB]

	applied := false
	if r.motorTwist.SolveVelocity(bodyA, bodyB, r.motorLo, r.motorHi) != 0 {
		applied = true
	}
	if r.motorSwingY.SolveVelocity(bodyA, bodyB, r.motorLo, r.motorHi) != 0 {
		applied = true
	}
	if r.motorSwingZ.SolveVelocity(bodyA, bodyB, r.motorLo, r.motorHi) != 0 {
		applied = true
	}
	if r.swingTwist.SolveVelocity(bodyA, bodyB) {
		applied = true
	}
	if delta := r.point.SolveVelocity(bodyA, bodyB); delta.Len() != 0 {
		applied = true
	}
	return applied
}

func (r *RagdollConstraint) SolvePosition(bodies []*body.RigidBody, dt, beta float64) bool {
	bodyA := bodies[r.BodyIndexA]
	bodyB := bodies[r.BodyIndexB]

	worldPointA := bodyA.CenterOfMassPosition.Add(bodyA.Orientation.Rotate(r.LocalPointA))
	worldPointB := bodyB.CenterOfMassPosition.Add(bodyB.Orientation.Rotate(r.LocalPointB))
	applied := r.point.SolvePosition(bodyA, bodyB, worldPointA, worldPointB, beta)

	relOrientation := r.relativeOrientation(bodyA, bodyB)
	if r.swingTwist.SolvePosition(bodyA, bodyB, relOrientation, beta) {
		applied = true
	}
	return applied
}

func (r *RagdollConstraint) ResetWarmStart() {
	r.point.ResetWarmStart()
	r.swingTwist.SwingY.ResetWarmStart()
	r.swingTwist.SwingZ.ResetWarmStart()
	r.swingTwist.Twist.ResetWarmStart()
	r.motorTwist.ResetWarmStart()
	r.motorSwingY.ResetWarmStart()
	r.motorSwingZ.ResetWarmStart()
}
