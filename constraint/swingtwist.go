package constraint

import (
	"math"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

// SwingType selects the shape of the swing limit surface.
type SwingType int

const (
	SwingCone SwingType = iota
	SwingPyramid
)

// SwingTwistLimits holds the half-angle limits (radians) for a swing-twist
// part: a cone or pyramid swing limit plus an independent twist range.
type SwingTwistLimits struct {
	SwingType SwingType

	NormalHalfCone float64 // max half-angle around constraint Y
	PlaneHalfCone  float64 // max half-angle around constraint Z

	TwistMin float64
	TwistMax float64
}

const (
	lockedAngleThreshold = 0.5 * math.Pi / 180.0
	freeAngleThreshold   = 179.5 * math.Pi / 180.0
)

// SwingTwistPart decomposes the relative rotation between two bodies
// (expressed in a shared constraint frame whose X axis is the twist axis)
// into swing (about Y/Z) and twist (about X), and enforces cone/pyramid
// swing limits plus a twist angle range. It owns three embedded angle parts:
// swing-Y, swing-Z, twist.
type SwingTwistPart struct {
	Limits SwingTwistLimits

	swingYLocked, swingYFree bool
	swingZLocked, swingZFree bool
	twistLocked, twistFree   bool

	SwingY AnglePart
	SwingZ AnglePart
	Twist  AnglePart
}

// NewSwingTwistPart classifies each axis as locked/free/limited from the
// supplied half-angles.
func NewSwingTwistPart(limits SwingTwistLimits) *SwingTwistPart {
	p := &SwingTwistPart{Limits: limits}
	p.swingYLocked = math.Abs(limits.NormalHalfCone) < lockedAngleThreshold
	p.swingYFree = limits.NormalHalfCone > freeAngleThreshold
	p.swingZLocked = math.Abs(limits.PlaneHalfCone) < lockedAngleThreshold
	p.swingZFree = limits.PlaneHalfCone > freeAngleThreshold
	p.twistLocked = math.Abs(limits.TwistMax-limits.TwistMin) < 2*lockedAngleThreshold
	p.twistFree = (limits.TwistMax - limits.TwistMin) > 2*freeAngleThreshold
	return p
}

// Decompose splits q (the relative rotation in constraint space, X is the
// twist axis) into swing q_s (x == 0) and twist q_t (y == z == 0) such that
// q == q_s * q_t, using s = sqrt(w^2+x^2). The degenerate 180-degree swing
// case (s ~ 0) falls back to an identity twist.
func Decompose(q mgl64.Quat) (swing, twist mgl64.Quat) {
	s := math.Sqrt(q.W*q.W + q.V.X()*q.V.X())
	if s < 1e-9 {
		return q, mgl64.QuatIdent()
	}
	twist = mgl64.Quat{W: q.W / s, V: mgl64.Vec3{q.V.X() / s, 0, 0}}
	swing = q.Mul(twist.Inverse())
	return
}

// TwistAngle returns theta_t = 2*atan(q_t.x / q_t.w) for a twist quaternion
// produced by Decompose.
func TwistAngle(twist mgl64.Quat) float64 {
	if twist.W == 0 {
		return math.Pi
	}
	return 2 * math.Atan(twist.V.X()/twist.W)
}

// ClampSwing projects the swing quaternion's (y, z) imaginary components
// onto the configured limit surface and returns the clamped components.
// Locked axes clamp to 0 (identity); free axes pass through unclamped.
func (p *SwingTwistPart) ClampSwing(py, pz float64) (cy, cz float64, violated bool) {
	if p.swingYLocked {
		py = 0
	}
	if p.swingZLocked {
		pz = 0
	}
	if p.swingYFree && p.swingZFree {
		return py, pz, false
	}

	switch p.Limits.SwingType {
	case SwingPyramid:
		cy, cz = py, pz
		if !p.swingYFree {
			maxY := math.Sin(p.Limits.NormalHalfCone / 2)
			if cy > maxY {
				cy, violated = maxY, true
			} else if cy < -maxY {
				cy, violated = -maxY, true
			}
		}
		if !p.swingZFree {
			maxZ := math.Sin(p.Limits.PlaneHalfCone / 2)
			if cz > maxZ {
				cz, violated = maxZ, true
			} else if cz < -maxZ {
				cz, violated = -maxZ, true
			}
		}
		return cy, cz, violated
	default: // SwingCone
		a := math.Sin(p.Limits.NormalHalfCone / 2)
		b := math.Sin(p.Limits.PlaneHalfCone / 2)
		if sq(py/nonZero(a))+sq(pz/nonZero(b)) <= 1.0 {
			return py, pz, false
		}
		cy, cz = projectOntoEllipse(py, pz, a, b)
		return cy, cz, true
	}
}

// projectOntoEllipse finds the closest point on the ellipse (y/a)^2+(z/b)^2=1
// to (py, pz) via Newton-Raphson on the Lagrange-multiplier equation
// g(t) = (a*py/(t+a^2))^2 + (b*pz/(t+b^2))^2 - 1 = 0, starting at t=0.
func projectOntoEllipse(py, pz, a, b float64) (float64, float64) {
	if a <= 0 {
		return 0, math.Copysign(b, pz)
	}
	if b <= 0 {
		return math.Copysign(a, py), 0
	}

	a2, b2 := a*a, b*b
	t := 0.0
	for i := 0; i < 100; i++ {
		denomA := t + a2
		denomB := t + b2
		g := sq(a*py/denomA) + sq(b*pz/denomB) - 1
		if math.Abs(g) < 1e-6 {
			break
		}
		dg := -2*sq(a*py)/cube(denomA) - 2*sq(b*pz)/cube(denomB)
		if dg == 0 {
			break
		}
		t -= g / dg
	}
	return a2 * py / (t + a2), b2 * pz / (t + b2)
}

func sq(x float64) float64  { return x * x }
func cube(x float64) float64 { return x * x * x }

func nonZero(x float64) float64 {
	if x == 0 {
		return 1e-9
	}
	return x
}

// ClampTwist clamps a twist angle to [min, max].
func (p *SwingTwistPart) ClampTwist(theta float64) (clamped float64, violated bool) {
	if p.twistFree {
		return theta, false
	}
	if theta < p.Limits.TwistMin {
		return p.Limits.TwistMin, true
	}
	if theta > p.Limits.TwistMax {
		return p.Limits.TwistMax, true
	}
	return theta, false
}

// Setup activates swing-Y, swing-Z and twist sub-parts only when their axis
// is locked or currently clamped (per §4.7), choosing the axis sign so that
// a positive lambda pushes the rotation back inward.
func (p *SwingTwistPart) Setup(bodyA, bodyB *body.RigidBody, worldAxisX, worldAxisY, worldAxisZ mgl64.Vec3, relOrientation mgl64.Quat, dt float64) {
	swing, twist := Decompose(relOrientation)
	py, pz := swing.V.Y(), swing.V.Z()

	_, swingViolated := p.ClampSwing(py, pz)
	if p.swingYLocked || swingViolated {
		axisY := worldAxisY
		if py < 0 {
			axisY = axisY.Mul(-1)
		}
		p.SwingY.Setup(bodyA, bodyB, axisY, 1, 1, 0, 0, HardSpring, dt)
	} else {
		p.SwingY.Deactivate()
	}
	if p.swingZLocked || swingViolated {
		axisZ := worldAxisZ
		if pz < 0 {
			axisZ = axisZ.Mul(-1)
		}
		p.SwingZ.Setup(bodyA, bodyB, axisZ, 1, 1, 0, 0, HardSpring, dt)
	} else {
		p.SwingZ.Deactivate()
	}

	theta := TwistAngle(twist)
	_, twistViolated := p.ClampTwist(theta)
	if p.twistLocked || twistViolated {
		axisX := worldAxisX
		if theta < 0 {
			axisX = axisX.Mul(-1)
		}
		p.Twist.Setup(bodyA, bodyB, axisX, 1, 1, 0, 0, HardSpring, dt)
	} else {
		p.Twist.Deactivate()
	}
}

// SolveVelocity runs PGS on each active sub-part. Single-sided limits use
// lambda range [-inf, 0]; a fully locked axis (min == max) is an equality
// and uses [-inf, +inf]. Returns whether any sub-part applied a non-zero
// impulse, so callers can detect a converged, zero-impulse pass.
func (p *SwingTwistPart) SolveVelocity(bodyA, bodyB *body.RigidBody) bool {
	applied := false
	if p.SwingY.IsActive() {
		lo, hi := singleSidedRange(p.swingYLocked)
		if p.SwingY.SolveVelocity(bodyA, bodyB, lo, hi) != 0 {
			applied = true
		}
	}
	if p.SwingZ.IsActive() {
		lo, hi := singleSidedRange(p.swingZLocked)
		if p.SwingZ.SolveVelocity(bodyA, bodyB, lo, hi) != 0 {
			applied = true
		}
	}
	if p.Twist.IsActive() {
		lo, hi := singleSidedRange(p.twistLocked)
		if p.Twist.SolveVelocity(bodyA, bodyB, lo, hi) != 0 {
			applied = true
		}
	}
	return applied
}

func singleSidedRange(equality bool) (float64, float64) {
	if equality {
		return math.Inf(-1), math.Inf(1)
	}
	return math.Inf(-1), 0
}

// SolvePosition rebuilds a target initial-orientation from the clamped
// swing.twist decomposition and delegates to a rotation-euler part, as
// described in §4.7.
func (p *SwingTwistPart) SolvePosition(bodyA, bodyB *body.RigidBody, relOrientation mgl64.Quat, beta float64) bool {
	swing, twist := Decompose(relOrientation)
	py, pz := swing.V.Y(), swing.V.Z()
	cy, cz, swingViolated := p.ClampSwing(py, pz)

	theta := TwistAngle(twist)
	clampedTheta, twistViolated := p.ClampTwist(theta)

	if !swingViolated && !twistViolated {
		return false
	}

	clampedSwingW := math.Sqrt(math.Max(0, 1-cy*cy-cz*cz))
	clampedSwing := mgl64.Quat{W: clampedSwingW, V: mgl64.Vec3{0, cy, cz}}
	clampedTwist := mgl64.Quat{W: math.Cos(clampedTheta / 2), V: mgl64.Vec3{math.Sin(clampedTheta / 2), 0, 0}}
	target := clampedSwing.Mul(clampedTwist)

	errC := RotationEulerError(mgl64.QuatIdent(), relOrientation, target.Inverse())

	var rep RotationEulerPart
	rep.Setup(bodyA, bodyB)
	return rep.SolvePosition(bodyA, bodyB, errC, beta)
}
