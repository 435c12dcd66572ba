package contact

import (
	"math"

	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Tunables are the world settings the contact pipeline reads (read-only).
type Tunables struct {
	Gravity mgl64.Vec3

	ContactPointPreserveLambdaMaxDistSq float64
	MinVelocityForRestitution           float64
	Baumgarte                           float64
	PenetrationSlop                     float64
	MaxPenetrationDistance              float64
}

// DefaultTunables mirrors the values spec.md §6 calls out as typical.
var DefaultTunables = Tunables{
	ContactPointPreserveLambdaMaxDistSq: 0.0004, // (0.02m)^2
	MinVelocityForRestitution:           1.0,
	Baumgarte:                           0.2,
	PenetrationSlop:                     -0.005,
	MaxPenetrationDistance:              0.2,
}

// Overrides is the per-contact settings a listener may mutate before the
// constraint is built (§4.8 step 5).
type Overrides struct {
	CombinedFriction    float64
	CombinedRestitution float64
	IsSensor            bool

	// InvMassScaleA/B are copied onto the Constraint but the solve does not
	// apply them: contact parts use each body's unscaled inverse mass. Only
	// the inverse inertia scales change the contact response.
	InvMassScaleA, InvMassScaleB       float64
	InvInertiaScaleA, InvInertiaScaleB float64

	RelativeLinearSurfaceVelocity  mgl64.Vec3
	RelativeAngularSurfaceVelocity mgl64.Vec3
}

func defaultOverrides(friction, restitution float64) Overrides {
	return Overrides{
		CombinedFriction:    friction,
		CombinedRestitution: restitution,
		InvMassScaleA:       1, InvMassScaleB: 1,
		InvInertiaScaleA: 1, InvInertiaScaleB: 1,
	}
}

// Listener receives contact-added/persisted callbacks before constraint
// construction, so Overrides mutations made inside them take effect for
// this step (§6).
type Listener interface {
	OnContactAdded(bodyA, bodyB *body.RigidBody, m *Manifold, overrides *Overrides)
	OnContactPersisted(bodyA, bodyB *body.RigidBody, m *Manifold, overrides *Overrides)
}

// pointConstraint is one active contact point: the COM-local positions
// written back to the cache (and used to recompute world positions as
// bodies move during the position solve) and the normal/tangent axis parts
// (C2) driving it.
type pointConstraint struct {
	localA, localB mgl64.Vec3

	normal   constraint.AxisPart
	tangent1 constraint.AxisPart
	tangent2 constraint.AxisPart
}

// Constraint is a contact constraint for one body pair this step, built
// fresh from a Manifold every frame and warm-started from the Cache.
type Constraint struct {
	BodyAIndex, BodyBIndex int
	bodyA, bodyB           *body.RigidBody

	Normal             mgl64.Vec3
	Tangent1, Tangent2 mgl64.Vec3

	Friction, Restitution float64

	invMassScaleA, invMassScaleB       float64
	invInertiaScaleA, invInertiaScaleB float64

	relLinearSurfaceV  mgl64.Vec3
	relAngularSurfaceV mgl64.Vec3

	points []pointConstraint
	cached *CachedContact

	SortKey uint64
}

// BodyA returns the first body of the pair (canonicalized so its index is lower).
func (c *Constraint) BodyA() *body.RigidBody { return c.bodyA }

// BodyB returns the second body of the pair.
func (c *Constraint) BodyB() *body.RigidBody { return c.bodyB }

// Build runs the build phase (§4.8) for one manifold: canonicalize, find or
// create the cached contact, combine friction/restitution, fire the
// listener, and (unless this is a sensor pair) allocate and set up the
// solver constraint. Returns (constraint, true) for a real constraint, or
// (nil, false) for a sensor / non-dynamic pair (still cached for enter/persist
// semantics).
func Build(cache *Cache, bodies []*body.RigidBody, manifold Manifold, listener Listener, tunables Tunables, dt float64) (*Constraint, bool) {
	m := manifold.Canonicalize()
	bodyA := bodies[m.BodyAIndex]
	bodyB := bodies[m.BodyBIndex]

	key := Key{BodyA: m.BodyAIndex, BodyB: m.BodyBIndex, SubShapeA: m.SubShapeA, SubShapeB: m.SubShapeB}
	entry, isNew := cache.FindOrCreate(key)

	friction := body.CombineFriction(bodyA.Material, bodyB.Material)
	restitution := body.CombineRestitution(bodyA.Material, bodyB.Material)
	overrides := defaultOverrides(friction, restitution)

	if listener != nil {
		if isNew {
			listener.OnContactAdded(bodyA, bodyB, &m, &overrides)
		} else {
			listener.OnContactPersisted(bodyA, bodyB, &m, &overrides)
		}
	}

	isSensor := overrides.IsSensor || bodyA.IsTrigger || bodyB.IsTrigger ||
		(bodyA.MotionType != body.Dynamic && bodyB.MotionType != body.Dynamic)

	pointCount := clampPointCount(len(m.RelativePointsA))
	cachedPoints := make([]cachedPoint, 0, pointCount)

	if isSensor {
		for i := 0; i < pointCount; i++ {
			worldA := m.BaseOffset.Add(m.RelativePointsA[i])
			worldB := m.BaseOffset.Add(m.RelativePointsB[i])
			cachedPoints = append(cachedPoints, cachedPoint{
				LocalA: worldA.Sub(bodyA.CenterOfMassPosition),
				LocalB: worldB.Sub(bodyB.CenterOfMassPosition),
			})
		}
		entry.SetPoints(cachedPoints)
		return nil, false
	}

	c := &Constraint{
		BodyAIndex: m.BodyAIndex, BodyBIndex: m.BodyBIndex,
		bodyA: bodyA, bodyB: bodyB,
		Normal:      m.WorldSpaceNormal,
		Friction:    overrides.CombinedFriction,
		Restitution: overrides.CombinedRestitution,

		invMassScaleA: overrides.InvMassScaleA, invMassScaleB: overrides.InvMassScaleB,
		invInertiaScaleA: overrides.InvInertiaScaleA, invInertiaScaleB: overrides.InvInertiaScaleB,

		relLinearSurfaceV:  overrides.RelativeLinearSurfaceVelocity,
		relAngularSurfaceV: overrides.RelativeAngularSurfaceVelocity,

		cached:  entry,
		SortKey: SortKey(m.BodyAIndex, m.BodyBIndex, m.SubShapeA, m.SubShapeB),
	}
	c.Tangent1, c.Tangent2 = tangentBasis(c.Normal)

	for i := 0; i < pointCount; i++ {
		worldA := m.BaseOffset.Add(m.RelativePointsA[i])
		worldB := m.BaseOffset.Add(m.RelativePointsB[i])
		localA := bodyA.InverseOrientation.Rotate(worldA.Sub(bodyA.CenterOfMassPosition))
		localB := bodyB.InverseOrientation.Rotate(worldB.Sub(bodyB.CenterOfMassPosition))

		lambdaN, lambdaT1, lambdaT2 := entry.MatchPoint(localA, localB, tunables.ContactPointPreserveLambdaMaxDistSq)

		mid := worldA.Add(worldB).Mul(0.5)
		rA := mid.Sub(bodyA.CenterOfMassPosition)
		rB := mid.Sub(bodyB.CenterOfMassPosition)

		pc := pointConstraint{localA: localA, localB: localB}

		bias := normalVelocityBias(bodyA, bodyB, rA, rB, worldA, worldB, c.Normal, c.Restitution, tunables, dt)
		pc.normal.Setup(bodyA, bodyB, rA, rB, c.Normal, c.invInertiaScaleA, c.invInertiaScaleB, 0, bias, constraint.HardSpring, dt)
		pc.normal.SetWarmStartLambda(lambdaN)

		if c.Friction > 0 {
			fBias1 := frictionBias(bodyA, bodyB, rA, rB, c.Tangent1, c.relLinearSurfaceV, c.relAngularSurfaceV)
			fBias2 := frictionBias(bodyA, bodyB, rA, rB, c.Tangent2, c.relLinearSurfaceV, c.relAngularSurfaceV)
			pc.tangent1.Setup(bodyA, bodyB, rA, rB, c.Tangent1, c.invInertiaScaleA, c.invInertiaScaleB, 0, fBias1, constraint.HardSpring, dt)
			pc.tangent1.SetWarmStartLambda(lambdaT1)
			pc.tangent2.Setup(bodyA, bodyB, rA, rB, c.Tangent2, c.invInertiaScaleA, c.invInertiaScaleB, 0, fBias2, constraint.HardSpring, dt)
			pc.tangent2.SetWarmStartLambda(lambdaT2)
		} else {
			pc.tangent1.Deactivate()
			pc.tangent2.Deactivate()
		}

		c.points = append(c.points, pc)
		cachedPoints = append(cachedPoints, cachedPoint{LocalA: localA, LocalB: localB, LambdaNormal: lambdaN, LambdaTangent1: lambdaT1, LambdaTangent2: lambdaT2})
	}

	entry.SetPoints(cachedPoints)
	return c, true
}

// normalVelocityBias implements §4.8's algorithm combining restitution,
// speculative contact, and a correction for this step's gravity contribution
// (to avoid double-counting it in the restitution term).
func normalVelocityBias(bodyA, bodyB *body.RigidBody, rA, rB, worldA, worldB, normal mgl64.Vec3, restitution float64, tunables Tunables, dt float64) float64 {
	vA := bodyA.LinearVelocity().Add(bodyA.AngularVelocity().Cross(rA))
	vB := bodyB.LinearVelocity().Add(bodyB.AngularVelocity().Cross(rB))
	vRel := vB.Sub(vA)
	vn := vRel.Dot(normal)

	penetration := worldA.Sub(worldB).Dot(normal)
	vSpec := math.Max(0, -penetration/dt)

	if restitution > 0 {
		if vn < -tunables.MinVelocityForRestitution {
			if vn < -vSpec {
				deltaVForces := tunables.Gravity.Mul(dt).Dot(normal.Mul(-1))
				return restitution * (vn - deltaVForces)
			}
			return vSpec
		}
	}
	return vSpec
}

// frictionBias computes the conveyor-belt surface velocity projected onto
// tangent (§4.8 "friction bias").
func frictionBias(bodyA, bodyB *body.RigidBody, rA, rB, tangent, relLinearSurfaceV, relAngularSurfaceV mgl64.Vec3) float64 {
	surfaceV := relLinearSurfaceV.Add(relAngularSurfaceV.Cross(rA))
	return surfaceV.Dot(tangent)
}

// tangentBasis builds an orthonormal tangent basis from normal: tangent1 is
// normal crossed with whichever cardinal axis is least aligned with normal's
// dominant component, tangent2 completes the right-handed basis.
func tangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var cardinal mgl64.Vec3
	ax, ay, az := math.Abs(normal.X()), math.Abs(normal.Y()), math.Abs(normal.Z())
	if ax <= ay && ax <= az {
		cardinal = mgl64.Vec3{1, 0, 0}
	} else if ay <= ax && ay <= az {
		cardinal = mgl64.Vec3{0, 1, 0}
	} else {
		cardinal = mgl64.Vec3{0, 0, 1}
	}
	tangent1 := normal.Cross(cardinal).Normalize()
	tangent2 := normal.Cross(tangent1)
	return tangent1, tangent2
}

// WarmStart applies each point's stored impulses scaled by ratio (§4.8,
// "Warm start (per island)").
func (c *Constraint) WarmStart(ratio float64) {
	for i := range c.points {
		p := &c.points[i]
		p.normal.WarmStart(c.bodyA, c.bodyB, ratio)
		p.tangent1.WarmStart(c.bodyA, c.bodyB, ratio)
		p.tangent2.WarmStart(c.bodyA, c.bodyB, ratio)
	}
}

// SolveVelocityFriction resolves friction coupling for every point: compute
// unclamped tangent impulses, then scale both so their combined magnitude
// fits inside the Coulomb friction cone sized by the normal impulse so far.
// Returns true if any point applied a non-zero impulse.
func (c *Constraint) SolveVelocityFriction() bool {
	applied := false
	for i := range c.points {
		p := &c.points[i]
		if !p.tangent1.IsActive() && !p.tangent2.IsActive() {
			continue
		}
		mu := c.Friction * p.normal.TotalLambda()

		l1 := p.tangent1.CandidateLambda(c.bodyA, c.bodyB)
		l2 := p.tangent2.CandidateLambda(c.bodyA, c.bodyB)

		if mu > 0 {
			if mag := math.Sqrt(l1*l1 + l2*l2); mag > mu {
				scale := mu / mag
				l1 *= scale
				l2 *= scale
			}
		} else {
			l1, l2 = 0, 0
		}

		d1 := p.tangent1.ApplyClamped(c.bodyA, c.bodyB, l1)
		d2 := p.tangent2.ApplyClamped(c.bodyA, c.bodyB, l2)
		if d1 != 0 || d2 != 0 {
			applied = true
		}
	}
	return applied
}

// SolveVelocityNormal resolves the push-only normal constraint for every
// point. Returns true if any point applied a non-zero impulse.
func (c *Constraint) SolveVelocityNormal() bool {
	applied := false
	for i := range c.points {
		delta := c.points[i].normal.SolveVelocity(c.bodyA, c.bodyB, 0, math.Inf(1))
		if delta != 0 {
			applied = true
		}
	}
	return applied
}

// SolvePosition recomputes world contact points from current
// positions/orientations, clamps penetration, and applies a Baumgarte
// correction along the (fixed) contact normal. Returns true if any point
// still needed correction (used for early-exit on a converged pass).
func (c *Constraint) SolvePosition(tunables Tunables) bool {
	converged := true
	for i := range c.points {
		p := &c.points[i]

		worldA := c.bodyA.CenterOfMassPosition.Add(c.bodyA.Orientation.Rotate(p.localA))
		worldB := c.bodyB.CenterOfMassPosition.Add(c.bodyB.Orientation.Rotate(p.localB))

		sep := worldB.Sub(worldA).Dot(c.Normal) + tunables.PenetrationSlop
		sep = math.Max(sep, -tunables.MaxPenetrationDistance)
		if sep >= 0 {
			continue
		}

		rA := worldA.Sub(c.bodyA.CenterOfMassPosition)
		rB := worldB.Sub(c.bodyB.CenterOfMassPosition)

		var normal constraint.AxisPart
		normal.Setup(c.bodyA, c.bodyB, rA, rB, c.Normal, c.invInertiaScaleA, c.invInertiaScaleB, sep, 0, constraint.HardSpring, 1)
		if normal.SolvePosition(c.bodyA, c.bodyB, sep, tunables.Baumgarte) {
			converged = false
		}
	}
	return !converged
}

// Writeback copies each point's accumulated lambdas back to the cached
// contact for the next frame's warm start (§4.8 "Writeback").
func (c *Constraint) Writeback() {
	points := make([]cachedPoint, len(c.points))
	for i, p := range c.points {
		points[i] = cachedPoint{
			LocalA: p.localA, LocalB: p.localB,
			LambdaNormal:   p.normal.TotalLambda(),
			LambdaTangent1: p.tangent1.TotalLambda(),
			LambdaTangent2: p.tangent2.TotalLambda(),
		}
	}
	c.cached.SetPoints(points)
}
