// Package constraint implements the per-DOF constraint "parts" (C1-C7):
// the scalar and small-matrix building blocks that the contact pipeline and
// the joint constraints assemble into full solver constraints.
package constraint

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

// MinEffectiveMass is the degenerate-K threshold below which a part
// deactivates itself for the step rather than dividing by (near) zero.
const MinEffectiveMass = 1e-12

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// applyRotationCorrection nudges a body's orientation by a small-angle delta
// rotation vector. Used by position-solve passes, which mutate
// position/orientation directly rather than accumulating as velocity
// (Catto's split between velocity and position correction).
func applyRotationCorrection(rb *body.RigidBody, deltaRot mgl64.Vec3) {
	if deltaRot.Len() < 1e-12 {
		return
	}
	qDelta := mgl64.Quat{W: 1.0, V: deltaRot.Mul(0.5)}
	rb.Orientation = qDelta.Mul(rb.Orientation).Normalize()
	rb.InverseOrientation = rb.Orientation.Inverse()
}

// skewMat3 returns the skew-symmetric cross-product matrix [v]x such that
// [v]x * x == v.Cross(x), in mathgl's column-major Mat3 layout.
func skewMat3(v mgl64.Vec3) mgl64.Mat3 {
	x, y, z := v.X(), v.Y(), v.Z()
	return mgl64.Mat3{
		0, z, -y,
		-z, 0, x,
		y, -x, 0,
	}
}

func identMat3() mgl64.Mat3 {
	return mgl64.Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

func addMat3(a, b mgl64.Mat3) mgl64.Mat3 {
	var out mgl64.Mat3
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func subMat3(a, b mgl64.Mat3) mgl64.Mat3 {
	var out mgl64.Mat3
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func scaleMat3(a mgl64.Mat3, s float64) mgl64.Mat3 {
	var out mgl64.Mat3
	for i := range a {
		out[i] = a[i] * s
	}
	return out
}

// pointEffectiveMassMatrix builds K = (invMassA+invMassB)*I - [rA]x invIA [rA]x - [rB]x invIB [rB]x,
// the 3x3 effective mass used by both the point part (C4) and the 6-DOF
// constraint when all three translation axes are fixed.
func pointEffectiveMassMatrix(invMassA, invMassB float64, rA, rB mgl64.Vec3, invIA, invIB mgl64.Mat3) mgl64.Mat3 {
	k := scaleMat3(identMat3(), invMassA+invMassB)

	skewA := skewMat3(rA)
	skewB := skewMat3(rB)

	k = subMat3(k, skewA.Mul3(invIA).Mul3(skewA))
	k = subMat3(k, skewB.Mul3(invIB).Mul3(skewB))
	return k
}
