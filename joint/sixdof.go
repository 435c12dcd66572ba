package joint

import (
	"math"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// AxisMode classifies one degree of freedom of a six-DOF joint.
type AxisMode int

const (
	AxisFree AxisMode = iota
	AxisFixed
	AxisLimited
)

// LinearAxisConfig configures one translation axis of a SixDOFConstraint.
type LinearAxisConfig struct {
	Mode     AxisMode
	Min, Max float64 // used when Mode == AxisLimited
	Spring   constraint.SpringSettings

	Motor               MotorState
	MotorTargetVelocity float64
	MotorTargetPosition float64
	MaxMotorForce       float64

	MaxFriction float64 // Coulomb friction force bound along this axis, or 0 to disable
}

// SixDOFConstraint is the generic joint (§4.9.4): three independent
// translation axes (each free, fixed, or limited, built from AxisPart, C2)
// plus a swing-twist rotational part (C7) reused directly for the three
// rotation axes' free/fixed/limited classification, with optional per-axis
// motors and linear friction.
type SixDOFConstraint struct {
	Header

	LocalPointA mgl64.Vec3
	LocalFrameA mgl64.Quat

	LocalPointB mgl64.Vec3
	LocalFrameB mgl64.Quat

	Linear [3]LinearAxisConfig
	Limits constraint.SwingTwistLimits

	RotMotor               [3]MotorState // index 0 = twist (X), 1 = swing Y, 2 = swing Z
	RotMotorTargetVelocity [3]float64
	MaxRotMotorTorque      float64

	linearAxis     [3]constraint.AxisPart
	linearActive   [3]bool
	linearLo       [3]float64
	linearHi       [3]float64
	linearMotor    [3]constraint.AxisPart
	linearMotorLo  [3]float64
	linearMotorHi  [3]float64
	linearFriction [3]constraint.AxisPart
	linearFrictionBound [3]float64

	rotMotor   [3]constraint.AnglePart
	rotMotorLo float64
	rotMotorHi float64

	swingTwist *constraint.SwingTwistPart

	worldAxes [3]mgl64.Vec3
}

// NewSixDOFConstraint builds a generic 6-DOF joint between two body indices.
func NewSixDOFConstraint(bodyIndexA, bodyIndexB int, localPointA mgl64.Vec3, localFrameA mgl64.Quat, localPointB mgl64.Vec3, localFrameB mgl64.Quat, linear [3]LinearAxisConfig, limits constraint.SwingTwistLimits) *SixDOFConstraint {
	return &SixDOFConstraint{
		Header: Header{
			BodyIndexA: bodyIndexA,
			BodyIndexB: bodyIndexB,
			Enabled:    true,
		},
		LocalPointA: localPointA,
		LocalFrameA: localFrameA,
		LocalPointB: localPointB,
		LocalFrameB: localFrameB,
		Linear:      linear,
		Limits:      limits,
		swingTwist:  constraint.NewSwingTwistPart(limits),
	}
}

func (s *SixDOFConstraint) JointHeader() *Header { return &s.Header }

func (s *SixDOFConstraint) constraintFrames(bodyA, bodyB *body.RigidBody) (mgl64.Quat, mgl64.Quat) {
	return bodyA.Orientation.Mul(s.LocalFrameA), bodyB.Orientation.Mul(s.LocalFrameB)
}

func (s *SixDOFConstraint) relativeOrientation(bodyA, bodyB *body.RigidBody) mgl64.Quat {
	frameA, frameB := s.constraintFrames(bodyA, bodyB)
	return frameA.Inverse().Mul(frameB)
}

func (s *SixDOFConstraint) worldPoints(bodyA, bodyB *body.RigidBody) (mgl64.Vec3, mgl64.Vec3) {
	worldA := bodyA.CenterOfMassPosition.Add(bodyA.Orientation.Rotate(s.LocalPointA))
	worldB := bodyB.CenterOfMassPosition.Add(bodyB.Orientation.Rotate(s.LocalPointB))
	return worldA, worldB
}

func (s *SixDOFConstraint) SetupVelocity(bodies []*body.RigidBody, dt float64) {
	bodyA := bodies[s.BodyIndexA]
	bodyB := bodies[s.BodyIndexB]

	frameA, _ := s.constraintFrames(bodyA, bodyB)
	s.worldAxes[0] = frameA.Rotate(mgl64.Vec3{1, 0, 0})
	s.worldAxes[1] = frameA.Rotate(mgl64.Vec3{0, 1, 0})
	s.worldAxes[2] = frameA.Rotate(mgl64.Vec3{0, 0, 1})

	worldA, worldB := s.worldPoints(bodyA, bodyB)
	rA := worldA.Sub(bodyA.CenterOfMassPosition)
	rB := worldB.Sub(bodyB.CenterOfMassPosition)
	delta := worldB.Sub(worldA)

	s.rotMotorLo, s.rotMotorHi = -s.MaxRotMotorTorque*dt, s.MaxRotMotorTorque*dt

	for i := 0; i < 3; i++ {
		cfg := s.Linear[i]
		axis := s.worldAxes[i]
		offset := delta.Dot(axis)

		s.setupLinearAxis(i, bodyA, bodyB, rA, rB, axis, cfg, offset, dt)

		if cfg.MaxFriction > 0 {
			s.linearFriction[i].Setup(bodyA, bodyB, rA, rB, axis, 1, 1, 0, 0, constraint.HardSpring, dt)
			s.linearFrictionBound[i] = cfg.MaxFriction * dt
		} else {
			s.linearFriction[i].Deactivate()
		}

		switch cfg.Motor {
		case MotorVelocity:
			s.linearMotor[i].Setup(bodyA, bodyB, rA, rB, axis, 1, 1, 0, -cfg.MotorTargetVelocity, constraint.HardSpring, dt)
			s.linearMotorLo[i], s.linearMotorHi[i] = -cfg.MaxMotorForce*dt, cfg.MaxMotorForce*dt
		case MotorPosition:
			errC := offset - cfg.MotorTargetPosition
			s.linearMotor[i].Setup(bodyA, bodyB, rA, rB, axis, 1, 1, errC, 0, cfg.Spring, dt)
			s.linearMotorLo[i], s.linearMotorHi[i] = -cfg.MaxMotorForce*dt, cfg.MaxMotorForce*dt
		default:
			s.linearMotor[i].Deactivate()
		}
	}

	relOrientation := s.relativeOrientation(bodyA, bodyB)
	s.swingTwist.Setup(bodyA, bodyB, s.worldAxes[0], s.worldAxes[1], s.worldAxes[2], relOrientation, dt)

	for i := 0; i < 3; i++ {
		if s.RotMotor[i] == MotorOff {
			s.rotMotor[i].Deactivate()
			continue
		}
		s.rotMotor[i].Setup(bodyA, bodyB, s.worldAxes[i], 1, 1, 0, -s.RotMotorTargetVelocity[i], constraint.HardSpring, dt)
	}
}

func (s *SixDOFConstraint) setupLinearAxis(i int, bodyA, bodyB *body.RigidBody, rA, rB, axis mgl64.Vec3, cfg LinearAxisConfig, offset, dt float64) {
	switch cfg.Mode {
	case AxisFree:
		s.linearActive[i] = false
		s.linearAxis[i].Deactivate()
	case AxisFixed:
		s.linearActive[i] = true
		s.linearAxis[i].Setup(bodyA, bodyB, rA, rB, axis, 1, 1, offset, 0, cfg.Spring, dt)
		s.linearLo[i], s.linearHi[i] = math.Inf(-1), math.Inf(1)
	case AxisLimited:
		clamped := clampToRange(offset, cfg.Min, cfg.Max)
		errC := offset - clamped
		if errC == 0 {
			s.linearActive[i] = false
			s.linearAxis[i].Deactivate()
			return
		}
		s.linearActive[i] = true
		s.linearAxis[i].Setup(bodyA, bodyB, rA, rB, axis, 1, 1, errC, 0, cfg.Spring, dt)
		if offset <= cfg.Min {
			s.linearLo[i], s.linearHi[i] = 0, math.Inf(1)
		} else {
			s.linearLo[i], s.linearHi[i] = math.Inf(-1), 0
		}
	}
}

func (s *SixDOFConstraint) WarmStartVelocity(bodies []*body.RigidBody, ratio float64) {
	bodyA := bodies[s.BodyIndexA]
	bodyB := bodies[s.BodyIndexB]
	for i := 0; i < 3; i++ {
		s.linearAxis[i].WarmStart(bodyA, bodyB, ratio)
		s.linearFriction[i].WarmStart(bodyA, bodyB, ratio)
		s.linearMotor[i].WarmStart(bodyA, bodyB, ratio)
		s.rotMotor[i].WarmStart(bodyA, bodyB, ratio)
	}
	s.swingTwist.SwingY.WarmStart(bodyA, bodyB, ratio)
	s.swingTwist.SwingZ.WarmStart(bodyA, bodyB, ratio)
	s.swingTwist.Twist.WarmStart(bodyA, bodyB, ratio)
}

func (s *SixDOFConstraint) SolveVelocity(bodies []*body.RigidBody, dt float64) bool {
	bodyA := bodies[s.BodyIndexA]
	bodyB := bodies[s.BodyIndexB]
	applied := false

	for i := 0; i < 3; i++ {
		if s.linearMotor[i].SolveVelocity(bodyA, bodyB, s.linearMotorLo[i], s.linearMotorHi[i]) != 0 {
			applied = true
		}
		if s.linearFriction[i].IsActive() {
			bound := s.linearFrictionBound[i]
			if s.linearFriction[i].SolveVelocity(bodyA, bodyB, -bound, bound) != 0 {
				applied = true
			}
		}
		if s.linearActive[i] {
			if s.linearAxis[i].SolveVelocity(bodyA, bodyB, s.linearLo[i], s.linearHi[i]) != 0 {
				applied = true
			}
		}
		if s.rotMotor[i].SolveVelocity(bodyA, bodyB, s.rotMotorLo, s.rotMotorHi) != 0 {
			applied = true
		}
	}

	if s.swingTwist.SolveVelocity(bodyA, bodyB) {
		applied = true
	}
	return applied
}

func (s *SixDOFConstraint) SolvePosition(bodies []*body.RigidBody, dt, beta float64) bool {
	bodyA := bodies[s.BodyIndexA]
	bodyB := bodies[s.BodyIndexB]
	applied := false

	worldA, worldB := s.worldPoints(bodyA, bodyB)
	delta := worldB.Sub(worldA)

	for i := 0; i < 3; i++ {
		if !s.linearActive[i] {
			continue
		}
		cfg := s.Linear[i]
		axis := s.worldAxes[i]
		offset := delta.Dot(axis)
		var errC float64
		switch cfg.Mode {
		case AxisFixed:
			errC = offset
		case AxisLimited:
			errC = offset - clampToRange(offset, cfg.Min, cfg.Max)
		}
		if s.linearAxis[i].SolvePosition(bodyA, bodyB, errC, beta) {
			applied = true
		}
	}

	relOrientation := s.relativeOrientation(bodyA, bodyB)
	if s.swingTwist.SolvePosition(bodyA, bodyB, relOrientation, beta) {
		applied = true
	}
	return applied
}

func (s *SixDOFConstraint) ResetWarmStart() {
	for i := 0; i < 3; i++ {
		s.linearAxis[i].ResetWarmStart()
		s.linearFriction[i].ResetWarmStart()
		s.linearMotor[i].ResetWarmStart()
		s.rotMotor[i].ResetWarmStart()
	}
	s.swingTwist.SwingY.ResetWarmStart()
	s.swingTwist.SwingZ.ResetWarmStart()
	s.swingTwist.Twist.ResetWarmStart()
}
