// Package collide wires AABB broad-phase and GJK/EPA narrow-phase detection
// (neither of which is this module's solver core, per spec's Non-goals) into
// contact.Manifold values so the C8 contact pipeline has something feeding it
// outside of hand-built test manifolds.
package collide

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/collide/epa"
	"github.com/fulcrum-phys/fulcrum/collide/gjk"
	"github.com/fulcrum-phys/fulcrum/contact"
	"github.com/go-gl/mathgl/mgl64"
)

// CollisionPair is a pair of body indices (into the same bodies slice
// BroadPhase was given) whose AABBs overlap and might be colliding.
type CollisionPair struct {
	IndexA, IndexB int
}

// BroadPhase performs broad-phase collision detection using AABB overlap tests
// It returns pairs of bodies whose AABBs overlap and might be colliding
// This is an O(n^2) brute-force approach suitable for small numbers of bodies
func BroadPhase(bodies []*body.RigidBody) []CollisionPair {
	pairs := make([]CollisionPair, 0)

	// Brute force: test all pairs
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			bodyA := bodies[i]
			bodyB := bodies[j]

			// Skip if both bodies are static (static-static collisions don't matter)
			if bodyA.MotionType == body.Static && bodyB.MotionType == body.Static {
				continue
			}
			if bodyA.IsSleeping && bodyB.IsSleeping {
				continue
			}

			// Compute AABBs for both bodies
			aabbA := bodyA.Shape.GetAABB()
			aabbB := bodyB.Shape.GetAABB()

			// Check if AABBs overlap
			if aabbA.Overlaps(aabbB) {
				pairs = append(pairs, CollisionPair{i, j})
			}
		}
	}

	return pairs
}

// NarrowPhase runs GJK then EPA on every broad-phase candidate and turns each
// overlapping pair's EPA result into a contact.Manifold (§4.8's input) by
// splitting the clipped contact point along the normal: half the penetration
// on each side, so Build's cached local points land on each body's own
// surface rather than coinciding exactly.
func NarrowPhase(bodies []*body.RigidBody, pairs []CollisionPair) []contact.Manifold {
	manifolds := make([]contact.Manifold, 0, len(pairs))
	var simplex gjk.Simplex

	for _, pair := range pairs {
		bodyA := bodies[pair.IndexA]
		bodyB := bodies[pair.IndexB]

		simplex.Reset()
		if !gjk.GJK(bodyA, bodyB, &simplex) {
			continue
		}

		result, err := epa.EPA(bodyA, bodyB, &simplex)
		if err != nil {
			continue
		}

		pointCount := len(result.Points)
		relA := make([]mgl64.Vec3, pointCount)
		relB := make([]mgl64.Vec3, pointCount)
		for i, p := range result.Points {
			half := result.Normal.Mul(p.Penetration / 2)
			relA[i] = half
			relB[i] = half.Mul(-1)
		}

		if pointCount == 0 {
			continue
		}

		manifolds = append(manifolds, contact.Manifold{
			BodyAIndex:       pair.IndexA,
			BodyBIndex:       pair.IndexB,
			WorldSpaceNormal: result.Normal,
			BaseOffset:       result.Points[0].Position,
			RelativePointsA:  relA,
			RelativePointsB:  relB,
		})
	}

	return manifolds
}
