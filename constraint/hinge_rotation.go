package constraint

import (
	"math"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

// HingeRotationPart is the 2-DOF constraint C = [a1.b2, a1.c2] that keeps a
// hinge axis a1 (on body A) aligned with the hinge axis on body B, expressed
// via two axes b2, c2 perpendicular to that axis on B.
type HingeRotationPart struct {
	b2xa1, c2xa1 mgl64.Vec3

	invI1, invI2 mgl64.Mat3
	invK         [4]float64 // row-major 2x2 K^-1

	totalLambda [2]float64
	active      bool
}

// Setup computes the symmetric 2x2 K = [[b2xa1, c2xa1]] . (I1^-1+I2^-1) . [[b2xa1, c2xa1]]^T
// and inverts it. Deactivates when |det K| < 1e-10.
func (p *HingeRotationPart) Setup(bodyA, bodyB *body.RigidBody, a1, b2, c2 mgl64.Vec3) {
	p.b2xa1 = b2.Cross(a1)
	p.c2xa1 = c2.Cross(a1)

	p.invI1 = bodyA.InverseInertiaWorld()
	p.invI2 = bodyB.InverseInertiaWorld()

	invI1b := p.invI1.Mul3x1(p.b2xa1)
	invI1c := p.invI1.Mul3x1(p.c2xa1)
	invI2b := p.invI2.Mul3x1(p.b2xa1)
	invI2c := p.invI2.Mul3x1(p.c2xa1)

	k00 := p.b2xa1.Dot(invI1b) + p.b2xa1.Dot(invI2b)
	k01 := p.b2xa1.Dot(invI1c) + p.b2xa1.Dot(invI2c)
	k10 := p.c2xa1.Dot(invI1b) + p.c2xa1.Dot(invI2b)
	k11 := p.c2xa1.Dot(invI1c) + p.c2xa1.Dot(invI2c)

	det := k00*k11 - k01*k10
	if math.Abs(det) < 1e-10 {
		p.Deactivate()
		return
	}

	invDet := 1.0 / det
	p.invK[0] = k11 * invDet
	p.invK[1] = -k01 * invDet
	p.invK[2] = -k10 * invDet
	p.invK[3] = k00 * invDet
	p.active = true
}

func (p *HingeRotationPart) Deactivate() {
	p.active = false
	p.totalLambda = [2]float64{}
}

func (p *HingeRotationPart) IsActive() bool { return p.active }

func (p *HingeRotationPart) ResetWarmStart() { p.totalLambda = [2]float64{} }

func (p *HingeRotationPart) solveImpulse(c0, c1 float64) (float64, float64) {
	return p.invK[0]*c0 + p.invK[1]*c1, p.invK[2]*c0 + p.invK[3]*c1
}

func (p *HingeRotationPart) applyImpulse(bodyA, bodyB *body.RigidBody, l0, l1 float64) {
	impulse := p.b2xa1.Mul(l0).Add(p.c2xa1.Mul(l1))
	bodyA.AddAngularVelocity(p.invI1.Mul3x1(impulse).Mul(-1))
	bodyB.AddAngularVelocity(p.invI2.Mul3x1(impulse))
}

func (p *HingeRotationPart) WarmStart(bodyA, bodyB *body.RigidBody, ratio float64) {
	if !p.active {
		return
	}
	p.totalLambda[0] *= ratio
	p.totalLambda[1] *= ratio
	p.applyImpulse(bodyA, bodyB, p.totalLambda[0], p.totalLambda[1])
}

// SolveVelocity drives [a1.b2, a1.c2] to zero (equality, unclamped).
func (p *HingeRotationPart) SolveVelocity(bodyA, bodyB *body.RigidBody) {
	if !p.active {
		return
	}
	wDiff := bodyB.AngularVelocity().Sub(bodyA.AngularVelocity())
	c0 := p.b2xa1.Dot(wDiff)
	c1 := p.c2xa1.Dot(wDiff)

	d0, d1 := p.solveImpulse(-c0, -c1)
	p.totalLambda[0] += d0
	p.totalLambda[1] += d1
	p.applyImpulse(bodyA, bodyB, d0, d1)
}

// SolvePosition corrects the current error C = [a1.b2, a1.c2] with Baumgarte.
func (p *HingeRotationPart) SolvePosition(bodyA, bodyB *body.RigidBody, a1, b2, c2 mgl64.Vec3, beta float64) bool {
	if !p.active {
		return false
	}
	c0 := a1.Dot(b2)
	c1 := a1.Dot(c2)
	if math.Abs(c0) < 1e-9 && math.Abs(c1) < 1e-9 {
		return false
	}

	l0, l1 := p.solveImpulse(-beta*c0, -beta*c1)
	impulse := p.b2xa1.Mul(l0).Add(p.c2xa1.Mul(l1))

	if bodyA.MotionType == body.Dynamic {
		applyRotationCorrection(bodyA, p.invI1.Mul3x1(impulse).Mul(-1))
	}
	if bodyB.MotionType == body.Dynamic {
		applyRotationCorrection(bodyB, p.invI2.Mul3x1(impulse))
	}
	return true
}

// orthogonalBasisNear builds two axes perpendicular to axis, used when a
// hinge's two reference axes become near-parallel (error-handling §7:
// near-parallel axes in hinge-rotation auto-orthogonalization).
func orthogonalBasisNear(axis, fallback mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	perp := fallback.Sub(axis.Mul(fallback.Dot(axis)))
	if perp.Dot(perp) < 1e-6 {
		// component-based fallback perpendicular
		if math.Abs(axis.X()) < 0.9 {
			perp = mgl64.Vec3{1, 0, 0}.Sub(axis.Mul(axis.X()))
		} else {
			perp = mgl64.Vec3{0, 1, 0}.Sub(axis.Mul(axis.Y()))
		}
	}
	b2 := perp.Normalize()
	c2 := axis.Cross(b2).Normalize()
	return b2, c2
}
