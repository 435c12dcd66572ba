// Package joint implements the compound joint constraints (C9): distance,
// hinge, swing-twist (ragdoll), and generic 6-DOF, each assembled from the
// per-DOF constraint parts in package constraint.
package joint

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/google/uuid"
)

// TypeTag identifies a joint's concrete type, part of its packed ID.
type TypeTag uint8

const (
	TypeDistance TypeTag = iota
	TypeHinge
	TypeSwingTwist
	TypeSixDOF
)

// ID is a packed joint handle: type, pool slot index, and a per-slot
// sequence number. A handle whose sequence no longer matches the slot's
// current sequence refers to a removed (and possibly reused) joint and is
// rejected by Pool.Get.
type ID struct {
	Type     TypeTag
	Index    uint32
	Sequence uint16
}

// Definition is the five-function contract every joint type implements,
// called once per island per solver sub-step (§4.9).
type Definition interface {
	SetupVelocity(bodies []*body.RigidBody, dt float64)
	WarmStartVelocity(bodies []*body.RigidBody, ratio float64)
	SolveVelocity(bodies []*body.RigidBody, dt float64) bool
	SolvePosition(bodies []*body.RigidBody, dt, beta float64) bool
	ResetWarmStart()

	JointHeader() *Header
}

// Header is the state common to every joint, embedded by each concrete
// joint type.
type Header struct {
	ID ID

	// ExternalID is a stable identifier surfaced to callers (save files,
	// scripting, network replication) independent of the pool slot it
	// currently occupies.
	ExternalID uuid.UUID

	BodyIndexA, BodyIndexB int
	Priority                int

	VelocityIterOverride int
	PositionIterOverride int

	Enabled  bool
	Sleeping bool
}

// Pool is a free-list-backed store for one joint type. Slot 0 is never
// issued, so the zero ID value unambiguously means "no joint".
type Pool[T any] struct {
	typeTag TypeTag

	slots     []T
	sequences []uint16
	occupied  []bool
	freeList  []uint32
}

// NewPool creates an empty pool for the given joint type tag.
func NewPool[T any](tag TypeTag) *Pool[T] {
	return &Pool[T]{
		typeTag:   tag,
		slots:     make([]T, 1),
		sequences: make([]uint16, 1),
		occupied:  make([]bool, 1),
	}
}

// Create allocates a slot (reusing a freed one if available), stores value,
// and returns its packed handle and a pointer into the pool.
func (p *Pool[T]) Create(value T) (ID, *T) {
	var index uint32
	if n := len(p.freeList); n > 0 {
		index = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.slots[index] = value
		p.occupied[index] = true
	} else {
		index = uint32(len(p.slots))
		p.slots = append(p.slots, value)
		p.sequences = append(p.sequences, 0)
		p.occupied = append(p.occupied, true)
	}
	id := ID{Type: p.typeTag, Index: index, Sequence: p.sequences[index]}
	return id, &p.slots[index]
}

// Get resolves a handle to its slot, rejecting a wrong type, an
// out-of-range index, a freed slot, or a stale sequence.
func (p *Pool[T]) Get(id ID) (*T, bool) {
	if id.Type != p.typeTag || id.Index == 0 || int(id.Index) >= len(p.slots) {
		return nil, false
	}
	if !p.occupied[id.Index] || p.sequences[id.Index] != id.Sequence {
		return nil, false
	}
	return &p.slots[id.Index], true
}

// Remove clears the slot's value, bumps its sequence so outstanding handles
// are rejected, and pushes the index onto the free list.
func (p *Pool[T]) Remove(id ID) bool {
	if _, ok := p.Get(id); !ok {
		return false
	}
	var zero T
	p.slots[id.Index] = zero
	p.occupied[id.Index] = false
	p.sequences[id.Index]++
	p.freeList = append(p.freeList, id.Index)
	return true
}

// Each calls fn for every occupied slot in index order.
func (p *Pool[T]) Each(fn func(index uint32, value *T)) {
	for i := 1; i < len(p.slots); i++ {
		if p.occupied[i] {
			fn(uint32(i), &p.slots[i])
		}
	}
}
