package collide

import (
	"testing"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

func newBoxBody(position mgl64.Vec3, motionType body.MotionType) *body.RigidBody {
	shape := &body.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	density := 1.0
	if motionType == body.Static {
		density = 0
	}
	return body.NewRigidBody(position, mgl64.QuatIdent(), shape, motionType, density, body.Material{})
}

func TestBroadPhaseFindsOverlappingPair(t *testing.T) {
	bodies := []*body.RigidBody{
		newBoxBody(mgl64.Vec3{0, 0, 0}, body.Dynamic),
		newBoxBody(mgl64.Vec3{0.5, 0, 0}, body.Dynamic),
	}

	pairs := BroadPhase(bodies)
	if len(pairs) != 1 {
		t.Fatalf("expected one overlapping pair, got %d", len(pairs))
	}
	if pairs[0].IndexA != 0 || pairs[0].IndexB != 1 {
		t.Fatalf("expected pair (0,1), got (%d,%d)", pairs[0].IndexA, pairs[0].IndexB)
	}
}

func TestBroadPhaseSkipsFarApartBodies(t *testing.T) {
	bodies := []*body.RigidBody{
		newBoxBody(mgl64.Vec3{0, 0, 0}, body.Dynamic),
		newBoxBody(mgl64.Vec3{100, 0, 0}, body.Dynamic),
	}

	if pairs := BroadPhase(bodies); len(pairs) != 0 {
		t.Fatalf("expected no pairs for non-overlapping AABBs, got %d", len(pairs))
	}
}

func TestBroadPhaseSkipsStaticStaticPair(t *testing.T) {
	bodies := []*body.RigidBody{
		newBoxBody(mgl64.Vec3{0, 0, 0}, body.Static),
		newBoxBody(mgl64.Vec3{0.5, 0, 0}, body.Static),
	}

	if pairs := BroadPhase(bodies); len(pairs) != 0 {
		t.Fatalf("expected static/static pairs to be skipped even when overlapping, got %d", len(pairs))
	}
}

func TestBroadPhaseSkipsSleepingPair(t *testing.T) {
	a := newBoxBody(mgl64.Vec3{0, 0, 0}, body.Dynamic)
	b := newBoxBody(mgl64.Vec3{0.5, 0, 0}, body.Dynamic)
	a.Sleep()
	b.Sleep()

	if pairs := BroadPhase([]*body.RigidBody{a, b}); len(pairs) != 0 {
		t.Fatalf("expected both-sleeping pairs to be skipped, got %d", len(pairs))
	}
}
