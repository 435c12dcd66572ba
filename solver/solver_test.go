package solver

import (
	"testing"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/constraint"
	"github.com/fulcrum-phys/fulcrum/contact"
	"github.com/fulcrum-phys/fulcrum/joint"
	"github.com/go-gl/mathgl/mgl64"
)

func newDynamicBody(position mgl64.Vec3) *body.RigidBody {
	shape := &body.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	return body.NewRigidBody(position, mgl64.QuatIdent(), shape, body.Dynamic, 1.0, body.Material{Friction: 0.3})
}

func newStaticBody(position mgl64.Vec3) *body.RigidBody {
	shape := &body.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0}
	return body.NewRigidBody(position, mgl64.QuatIdent(), shape, body.Static, 0, body.Material{Friction: 0.3})
}

func TestBuildAndSolveVelocityStopsPenetratingContact(t *testing.T) {
	bodies := []*body.RigidBody{newStaticBody(mgl64.Vec3{0, 0, 0}), newDynamicBody(mgl64.Vec3{0, 0.5, 0})}
	bodies[1].AddLinearVelocity(mgl64.Vec3{0, -5, 0})

	island := Island{
		Manifolds: []contact.Manifold{{
			BodyAIndex:       0,
			BodyBIndex:       1,
			WorldSpaceNormal: mgl64.Vec3{0, 1, 0},
			BaseOffset:       mgl64.Vec3{0, 0, 0},
			RelativePointsA:  []mgl64.Vec3{{0, 0, 0}},
			RelativePointsB:  []mgl64.Vec3{{0, 0, 0}},
		}},
	}

	cache := contact.NewCache()
	state := BuildAndSolveVelocity(island, bodies, cache, nil, DefaultSettings, 1.0/60)
	if state == nil {
		t.Fatalf("expected a non-nil state for an island with an active contact")
	}

	if bodies[1].LinearVelocity().Y() < -1e-6 {
		t.Fatalf("expected velocity iterations to stop the closing velocity, got %v", bodies[1].LinearVelocity())
	}
}

func TestBuildAndSolveVelocitySkipsEmptyIsland(t *testing.T) {
	bodies := []*body.RigidBody{newDynamicBody(mgl64.Vec3{0, 0, 0})}
	cache := contact.NewCache()

	state := BuildAndSolveVelocity(Island{}, bodies, cache, nil, DefaultSettings, 1.0/60)
	if state == nil {
		t.Fatalf("expected BuildAndSolveVelocity to return a usable (empty) state for an empty island")
	}

	state.SolvePosition(bodies, DefaultSettings, 1.0/60)
}

func TestSolveVelocityHonorsJointConstraint(t *testing.T) {
	bodies := []*body.RigidBody{newDynamicBody(mgl64.Vec3{0, 0, 0}), newDynamicBody(mgl64.Vec3{2, 0, 0})}
	bodies[1].AddLinearVelocity(mgl64.Vec3{5, 0, 0})

	rod := joint.NewDistanceConstraint(0, 1, mgl64.Vec3{}, mgl64.Vec3{}, 2.0, 2.0, constraint.HardSpring)

	island := Island{Joints: []joint.Definition{rod}}
	cache := contact.NewCache()

	state := BuildAndSolveVelocity(island, bodies, cache, nil, DefaultSettings, 1.0/60)
	_ = state

	relVel := bodies[1].LinearVelocity().Sub(bodies[0].LinearVelocity()).Dot(mgl64.Vec3{1, 0, 0})
	if relVel > 1e-3 {
		t.Fatalf("expected the joint's velocity iterations to absorb the stretching velocity, got %v", relVel)
	}
}
