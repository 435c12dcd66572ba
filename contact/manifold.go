// Package contact implements the contact constraint pipeline (C8): turning a
// discovered collision manifold into a warm-started, PGS-solved contact
// constraint, with a persistent per-pair cache for warm starting across frames.
package contact

import "github.com/go-gl/mathgl/mgl64"

// Manifold is the narrow phase's output for one touching (or
// speculatively-touching) pair of shapes: a world-space normal from A toward
// B and up to four relative contact points on each body.
type Manifold struct {
	BodyAIndex int
	BodyBIndex int
	SubShapeA  int
	SubShapeB  int

	// WorldSpaceNormal points from A toward B.
	WorldSpaceNormal mgl64.Vec3

	BaseOffset mgl64.Vec3

	// RelativePointsA/B are offsets from BaseOffset; world position is
	// BaseOffset + RelativePointsA[i]. len <= 4.
	RelativePointsA []mgl64.Vec3
	RelativePointsB []mgl64.Vec3
}

// Canonicalize returns a copy of m with bodies swapped so BodyAIndex <
// BodyBIndex, swapping sub-shape ids, normal sign, and point sides to match.
// It never mutates the caller's manifold (§9 open question: the source
// mutates the caller's manifold via swap_shapes; this copies instead).
func (m Manifold) Canonicalize() Manifold {
	if m.BodyAIndex <= m.BodyBIndex {
		return m
	}
	return Manifold{
		BodyAIndex:       m.BodyBIndex,
		BodyBIndex:       m.BodyAIndex,
		SubShapeA:        m.SubShapeB,
		SubShapeB:        m.SubShapeA,
		WorldSpaceNormal: m.WorldSpaceNormal.Mul(-1),
		BaseOffset:       m.BaseOffset,
		RelativePointsA:  m.RelativePointsB,
		RelativePointsB:  m.RelativePointsA,
	}
}

func clampPointCount(n int) int {
	if n > 4 {
		return 4
	}
	return n
}
