package joint

import (
	"math"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

type distanceMode int

const (
	distanceInactive distanceMode = iota
	distanceEquality
	distanceMin
	distanceMax
)

// DistanceConstraint pins the distance between a point on A and a point on B
// to the range [MinDistance, MaxDistance] (§4.9.1). MinDistance == MaxDistance
// makes it a rigid rod; Spring softens it in every active mode (rod,
// minimum and maximum).
type DistanceConstraint struct {
	Header

	LocalPointA, LocalPointB mgl64.Vec3
	MinDistance, MaxDistance float64
	Spring                   constraint.SpringSettings

	axis   constraint.AxisPart
	normal mgl64.Vec3
	mode   distanceMode
}

// NewDistanceConstraint builds a distance joint between two body indices,
// with attachment points in each body's local space.
func NewDistanceConstraint(bodyIndexA, bodyIndexB int, localA, localB mgl64.Vec3, minDistance, maxDistance float64, spring constraint.SpringSettings) *DistanceConstraint {
	return &DistanceConstraint{
		Header: Header{
			BodyIndexA: bodyIndexA,
			BodyIndexB: bodyIndexB,
			Enabled:    true,
		},
		LocalPointA: localA,
		LocalPointB: localB,
		MinDistance: minDistance,
		MaxDistance: maxDistance,
		Spring:      spring,
	}
}

func (d *DistanceConstraint) JointHeader() *Header { return &d.Header }

func clampToRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (d *DistanceConstraint) worldPoints(bodyA, bodyB *body.RigidBody) (mgl64.Vec3, mgl64.Vec3) {
	worldA := bodyA.CenterOfMassPosition.Add(bodyA.Orientation.Rotate(d.LocalPointA))
	worldB := bodyB.CenterOfMassPosition.Add(bodyB.Orientation.Rotate(d.LocalPointB))
	return worldA, worldB
}

func (d *DistanceConstraint) SetupVelocity(bodies []*body.RigidBody, dt float64) {
	bodyA := bodies[d.BodyIndexA]
	bodyB := bodies[d.BodyIndexB]

	worldA, worldB := d.worldPoints(bodyA, bodyB)
	delta := worldB.Sub(worldA)
	dist := delta.Len()

	if dist > 1e-9 {
		d.normal = delta.Mul(1 / dist)
	} else if d.normal.Len() < 1e-9 {
		d.normal = mgl64.Vec3{1, 0, 0}
	}

	switch {
	case d.MinDistance == d.MaxDistance:
		d.mode = distanceEquality
	case dist <= d.MinDistance:
		d.mode = distanceMin
	case dist >= d.MaxDistance:
		d.mode = distanceMax
	default:
		d.mode = distanceInactive
		d.axis.Deactivate()
		return
	}

	rA := worldA.Sub(bodyA.CenterOfMassPosition)
	rB := worldB.Sub(bodyB.CenterOfMassPosition)
	errC := dist - clampToRange(dist, d.MinDistance, d.MaxDistance)
	d.axis.Setup(bodyA, bodyB, rA, rB, d.normal, 1, 1, errC, 0, d.Spring, dt)
}

func (d *DistanceConstraint) WarmStartVelocity(bodies []*body.RigidBody, ratio float64) {
	if d.mode == distanceInactive {
		return
	}
	d.axis.WarmStart(bodies[d.BodyIndexA], bodies[d.BodyIndexB], ratio)
}

func distanceLambdaRange(mode distanceMode) (float64, float64) {
	switch mode {
	case distanceMin:
		return 0, math.Inf(1)
	case distanceMax:
		return math.Inf(-1), 0
	default:
		return math.Inf(-1), math.Inf(1)
	}
}

func (d *DistanceConstraint) SolveVelocity(bodies []*body.RigidBody, dt float64) bool {
	if d.mode == distanceInactive {
		return false
	}
	lo, hi := distanceLambdaRange(d.mode)
	delta := d.axis.SolveVelocity(bodies[d.BodyIndexA], bodies[d.BodyIndexB], lo, hi)
	return delta != 0
}

func (d *DistanceConstraint) SolvePosition(bodies []*body.RigidBody, dt, beta float64) bool {
	if d.mode == distanceInactive {
		return false
	}
	bodyA := bodies[d.BodyIndexA]
	bodyB := bodies[d.BodyIndexB]
	worldA, worldB := d.worldPoints(bodyA, bodyB)
	delta := worldB.Sub(worldA)
	dist := delta.Len()
	errC := dist - clampToRange(dist, d.MinDistance, d.MaxDistance)
	return d.axis.SolvePosition(bodyA, bodyB, errC, beta)
}

func (d *DistanceConstraint) ResetWarmStart() {
	d.axis.ResetWarmStart()
}
