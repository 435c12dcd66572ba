package world

import (
	"testing"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/go-gl/mathgl/mgl64"
)

func TestStepSettlesBoxOntoPlane(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})

	planeShape := &body.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0}
	plane := body.NewRigidBody(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent(), planeShape, body.Static, 0, body.Material{})
	w.AddBody(plane)

	boxShape := &body.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	box := body.NewRigidBody(mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent(), boxShape, body.Dynamic, 1.0, body.Material{Friction: 0.5})
	w.AddBody(box)

	const dt = 1.0 / 60
	for i := 0; i < 300; i++ {
		w.Step(dt)
	}

	if box.Position.Y() < 0.4 || box.Position.Y() > 0.6 {
		t.Fatalf("expected the box to settle with its half-extent above the plane, got y=%v", box.Position.Y())
	}
}

func TestAddBodyReturnsStableIndex(t *testing.T) {
	w := NewWorld(mgl64.Vec3{})
	shape := &body.Sphere{Radius: 0.5}

	a := body.NewRigidBody(mgl64.Vec3{}, mgl64.QuatIdent(), shape, body.Dynamic, 1.0, body.Material{})
	b := body.NewRigidBody(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent(), shape, body.Dynamic, 1.0, body.Material{})

	idxA := w.AddBody(a)
	idxB := w.AddBody(b)

	if idxA != 0 || idxB != 1 {
		t.Fatalf("expected sequential indices 0,1, got %d,%d", idxA, idxB)
	}
	if w.Bodies[idxA] != a || w.Bodies[idxB] != b {
		t.Fatalf("expected AddBody's returned index to address the same body")
	}
}

func TestStepEmitsSleepEventForSettledBody(t *testing.T) {
	w := NewWorld(mgl64.Vec3{})

	shape := &body.Sphere{Radius: 0.5}
	b := body.NewRigidBody(mgl64.Vec3{}, mgl64.QuatIdent(), shape, body.Dynamic, 1.0, body.Material{})
	w.AddBody(b)

	var sleptCount int
	w.Events.Subscribe(ON_SLEEP, func(e Event) { sleptCount++ })

	const dt = 1.0 / 60
	for i := 0; i < 60; i++ {
		w.Step(dt)
	}

	if sleptCount == 0 {
		t.Fatalf("expected a motionless body to eventually emit a sleep event")
	}
}
