package contact

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Key identifies a cached contact: a body pair plus the two sub-shape ids
// involved. Manifolds are canonicalized before lookup so BodyA <= BodyB.
type Key struct {
	BodyA, BodyB       int
	SubShapeA, SubShapeB int
}

// cachedPoint is one persisted contact point: its position in each body's
// center-of-mass-local frame (so it survives body motion between frames) and
// the previous step's three lambda values for warm starting.
type cachedPoint struct {
	LocalA, LocalB mgl64.Vec3

	LambdaNormal   float64
	LambdaTangent1 float64
	LambdaTangent2 float64
}

// CachedContact is the persistent record for one body-pair+sub-shape pair.
// Created on first touch, marked each frame it still appears, and removed by
// Prune when a frame passes without it being marked.
type CachedContact struct {
	Key    Key
	Points []cachedPoint

	seen bool
}

// Cache is the contacts store. Islands may be solved concurrently, so the
// entry map is guarded by mu; each CachedContact is only touched by the
// island containing both of its bodies.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*CachedContact
}

// NewCache creates an empty contacts store.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*CachedContact)}
}

// FindOrCreate returns the cached contact for key, creating it if this is
// the pair's first touch, and marks it processed this frame.
func (c *Cache) FindOrCreate(key Key) (entry *CachedContact, isNew bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		entry = &CachedContact{Key: key}
		c.entries[key] = entry
		isNew = true
	}
	entry.seen = true
	return entry, isNew
}

// MatchPoint finds the previous point nearest to (localA, localB) within
// maxDistSq, matching by squared distance of both local positions (§4.8
// step 9c). Returns zero lambdas when no match is found (or on first touch).
func (entry *CachedContact) MatchPoint(localA, localB mgl64.Vec3, maxDistSq float64) (lambdaN, lambdaT1, lambdaT2 float64) {
	for _, p := range entry.Points {
		dA := p.LocalA.Sub(localA).Dot(p.LocalA.Sub(localA))
		dB := p.LocalB.Sub(localB).Dot(p.LocalB.Sub(localB))
		if dA <= maxDistSq && dB <= maxDistSq {
			return p.LambdaNormal, p.LambdaTangent1, p.LambdaTangent2
		}
	}
	return 0, 0, 0
}

// SetPoints replaces the cached points, called at the end of the build phase
// once warm-start matching has produced the persisted local positions.
func (entry *CachedContact) SetPoints(points []cachedPoint) {
	entry.Points = points
}

// Prune removes every entry not marked seen since the last Prune call, and
// clears the marks for the next frame. World.Step calls it once per sub-step,
// after that sub-step's solve, not mid-solve.
func (c *Cache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.entries {
		if !v.seen {
			delete(c.entries, k)
			continue
		}
		v.seen = false
	}
}
