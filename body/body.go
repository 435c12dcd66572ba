package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MotionType classifies how a rigid body participates in the simulation.
type MotionType int

const (
	// Dynamic bodies are affected by forces, gravity, and collisions.
	// They have finite mass and can move freely.
	Dynamic MotionType = iota

	// Kinematic bodies have infinite mass (no impulse response) but still
	// carry a velocity that contributes to constraint Jacobians — they are
	// driven externally (an animation, a script) rather than by the solver.
	Kinematic

	// Static bodies are immovable and have infinite mass. They never move
	// and never contribute a velocity term (e.g. ground, walls).
	Static
)

// ConstraintID is a weak back-reference from a body to a constraint that
// touches it. Bodies never own the constraint — the island builder external
// to this core walks these lists to partition work into islands.
type ConstraintID uint64

// MotionProperties holds the fields that only make sense for a body whose
// MotionType is not Static. A Static body has a nil MotionProperties.
type MotionProperties struct {
	InvMass             float64
	InvInertiaDiagonal  mgl64.Vec3 // diagonal of the body-local inverse inertia tensor
	LinearVelocity      mgl64.Vec3
	AngularVelocity     mgl64.Vec3
	Force               mgl64.Vec3 // accumulated this step, in newtons
	Torque              mgl64.Vec3 // accumulated this step, in newton-meters
	GravityFactor       float64    // scales gravity's contribution, default 1
	PresolveLinearVel   mgl64.Vec3 // velocity just after the force integrate, before constraints
	PresolveAngularVel  mgl64.Vec3
}

// RigidBody is a single body in the simulation. The constraint solving core
// reads its motion type, position/orientation, and MotionProperties, and
// mutates velocity (velocity phase) or position/orientation (position phase)
// in place through the impulse helpers below — never anything else.
type RigidBody struct {
	MotionType MotionType

	Position               mgl64.Vec3
	Orientation             mgl64.Quat
	InverseOrientation      mgl64.Quat
	CenterOfMassPosition    mgl64.Vec3

	PreviousPosition    mgl64.Vec3
	PreviousOrientation mgl64.Quat

	// InertiaLocal/InverseInertiaLocal are the full 3x3 body-local tensors,
	// kept alongside MotionProperties.InvInertiaDiagonal so shapes that are
	// not principal-axis aligned still have a correct Mul3x1 path.
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	Motion *MotionProperties // nil for Static bodies

	IsSleeping bool
	sleepTimer float64
	IsTrigger  bool

	Material Material
	Shape    ShapeInterface

	ConstraintIDs []ConstraintID
}

// NewRigidBody creates a rigid body. density is used to derive mass/inertia
// for Dynamic and Kinematic bodies (kinematic bodies still report a finite
// mass so ComputeMass-derived tooling works, but InvMass is always zero —
// the solver never applies an impulse response to them).
func NewRigidBody(position mgl64.Vec3, orientation mgl64.Quat, shape ShapeInterface, motionType MotionType, density float64, material Material) *RigidBody {
	rb := &RigidBody{
		MotionType:           motionType,
		Position:             position,
		CenterOfMassPosition: position,
		Orientation:          orientation,
		InverseOrientation:   orientation.Inverse(),
		Shape:                shape,
		Material:             material,
	}
	rb.PreviousPosition = position
	rb.PreviousOrientation = orientation

	mass := math.Inf(1)
	if motionType != Static {
		mass = shape.ComputeMass(density)
	}
	rb.InertiaLocal = shape.ComputeInertia(mass)

	if motionType == Dynamic {
		invInertia := rb.InertiaLocal.Inv()
		rb.InverseInertiaLocal = invInertia
		rb.Motion = &MotionProperties{
			InvMass: 1.0 / mass,
			InvInertiaDiagonal: mgl64.Vec3{
				invInertia.At(0, 0), invInertia.At(1, 1), invInertia.At(2, 2),
			},
			GravityFactor: 1.0,
		}
	} else if motionType == Kinematic {
		// Kinematic bodies never receive an impulse, but the solver still
		// reads their velocity — keep it zero-mass-response on purpose.
		rb.Motion = &MotionProperties{GravityFactor: 0}
	}

	rb.Shape.ComputeAABB(Transform{Position: rb.Position, Rotation: rb.Orientation, InverseRotation: rb.InverseOrientation})
	return rb
}

// InvMass returns the inverse mass used by the constraint solver: zero for
// Static and Kinematic bodies, 1/mass for Dynamic ones.
func (rb *RigidBody) InvMass() float64 {
	if rb.MotionType != Dynamic || rb.Motion == nil {
		return 0
	}
	return rb.Motion.InvMass
}

// LinearVelocity returns the body's linear velocity, zero for Static bodies.
func (rb *RigidBody) LinearVelocity() mgl64.Vec3 {
	if rb.Motion == nil {
		return mgl64.Vec3{}
	}
	return rb.Motion.LinearVelocity
}

// AngularVelocity returns the body's angular velocity, zero for Static bodies.
func (rb *RigidBody) AngularVelocity() mgl64.Vec3 {
	if rb.Motion == nil {
		return mgl64.Vec3{}
	}
	return rb.Motion.AngularVelocity
}

// AddLinearVelocity applies an impulse-derived delta velocity. Static bodies
// silently ignore it — every constraint part already treats invMass == 0 as
// a no-op, this guard only protects direct callers.
func (rb *RigidBody) AddLinearVelocity(delta mgl64.Vec3) {
	if rb.Motion == nil {
		return
	}
	rb.Motion.LinearVelocity = rb.Motion.LinearVelocity.Add(delta)
}

// AddAngularVelocity applies an impulse-derived delta angular velocity.
func (rb *RigidBody) AddAngularVelocity(delta mgl64.Vec3) {
	if rb.Motion == nil {
		return
	}
	rb.Motion.AngularVelocity = rb.Motion.AngularVelocity.Add(delta)
}

// InverseInertiaWorld returns R * I^-1_local * R^T, zero for non-dynamic bodies.
func (rb *RigidBody) InverseInertiaWorld() mgl64.Mat3 {
	if rb.MotionType != Dynamic {
		return mgl64.Mat3{}
	}
	r := rb.Orientation.Mat4().Mat3()
	return r.Mul3(rb.InverseInertiaLocal).Mul3(r.Transpose())
}

// InertiaWorld returns R * I_local * R^T.
func (rb *RigidBody) InertiaWorld() mgl64.Mat3 {
	r := rb.Orientation.Mat4().Mat3()
	return r.Mul3(rb.InertiaLocal).Mul3(r.Transpose())
}

// IntegrateVelocity applies gravity, accumulated force/torque, and damping
// to velocity. Called once per substep before the velocity solve.
func (rb *RigidBody) IntegrateVelocity(dt float64, gravity mgl64.Vec3) {
	if rb.MotionType != Dynamic || rb.IsSleeping {
		return
	}
	m := rb.Motion

	linearAccel := gravity.Mul(m.GravityFactor).Add(m.Force.Mul(m.InvMass))
	m.LinearVelocity = m.LinearVelocity.Add(linearAccel.Mul(dt))
	m.LinearVelocity = m.LinearVelocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))

	angularAccel := rb.InverseInertiaWorld().Mul3x1(m.Torque)
	m.AngularVelocity = m.AngularVelocity.Add(angularAccel.Mul(dt))
	m.AngularVelocity = m.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	m.PresolveLinearVel = m.LinearVelocity
	m.PresolveAngularVel = m.AngularVelocity

	rb.clearAccum()
}

// IntegratePosition advances position/orientation from the current velocity.
// Called after the velocity solve and before the position solve.
func (rb *RigidBody) IntegratePosition(dt float64) {
	if rb.MotionType == Static || rb.IsSleeping {
		return
	}
	m := rb.Motion

	rb.PreviousPosition = rb.Position
	rb.PreviousOrientation = rb.Orientation

	rb.Position = rb.Position.Add(m.LinearVelocity.Mul(dt))
	rb.CenterOfMassPosition = rb.Position

	omega := mgl64.Quat{W: 0, V: m.AngularVelocity}
	dq := omega.Mul(rb.Orientation).Scale(0.5)
	rb.Orientation = rb.Orientation.Add(dq.Scale(dt)).Normalize()
	rb.InverseOrientation = rb.Orientation.Inverse()

	rb.Shape.ComputeAABB(Transform{Position: rb.Position, Rotation: rb.Orientation, InverseRotation: rb.InverseOrientation})
}

// TrySleep puts a slow-moving dynamic body to sleep after timeThreshold
// seconds below velocityThreshold; otherwise it stays (or becomes) awake.
func (rb *RigidBody) TrySleep(dt, timeThreshold, velocityThreshold float64) {
	if rb.MotionType != Dynamic {
		return
	}
	if rb.Motion.LinearVelocity.Len() < velocityThreshold && rb.Motion.AngularVelocity.Len() < velocityThreshold {
		rb.sleepTimer += dt
		if rb.sleepTimer >= timeThreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.sleepTimer = 0
	if rb.Motion != nil {
		rb.Motion.LinearVelocity = mgl64.Vec3{}
		rb.Motion.AngularVelocity = mgl64.Vec3{}
		rb.Motion.Force = mgl64.Vec3{}
		rb.Motion.Torque = mgl64.Vec3{}
	}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.sleepTimer = 0
}

// AddForce accumulates a world-space force (newtons) for the next integrate.
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.MotionType != Dynamic {
		return
	}
	rb.Awake()
	rb.Motion.Force = rb.Motion.Force.Add(force)
}

// AddTorque accumulates a world-space torque (newton-meters).
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.MotionType != Dynamic {
		return
	}
	rb.Awake()
	rb.Motion.Torque = rb.Motion.Torque.Add(torque)
}

// SupportWorld transforms direction into local space, asks the shape for its
// support point, and transforms the result back to world space. Used by the
// GJK/EPA narrow phase.
func (rb *RigidBody) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := rb.InverseOrientation.Rotate(direction)
	localSupport := rb.Shape.Support(localDirection)
	worldSupport := rb.Orientation.Rotate(localSupport)
	return rb.Position.Add(worldSupport)
}

func (rb *RigidBody) clearAccum() {
	rb.Motion.Force = mgl64.Vec3{}
	rb.Motion.Torque = mgl64.Vec3{}
}

// TransformSnapshot returns the body's current position/orientation as a Transform
// value, for collaborators (GJK/EPA/broad-phase) that want a single struct.
func (rb *RigidBody) TransformSnapshot() Transform {
	return Transform{Position: rb.Position, Rotation: rb.Orientation, InverseRotation: rb.InverseOrientation}
}
