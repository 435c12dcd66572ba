package world

import (
	"github.com/fulcrum-phys/fulcrum/body"
	"github.com/fulcrum-phys/fulcrum/contact"
	"github.com/fulcrum-phys/fulcrum/joint"
	"github.com/fulcrum-phys/fulcrum/solver"
)

// unionFind is a standard disjoint-set structure over body indices, used to
// group manifolds and joints into connected components (spec.md's "island",
// explicitly out of the core's scope — kept here as the minimal external
// collaborator the core needs to actually run a step).
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// BuildIslands groups manifolds and joints into connected components over
// dynamic (non-sleeping) bodies: a static or kinematic body never couples two
// islands together, since it can't transmit motion between them.
func BuildIslands(bodies []*body.RigidBody, manifolds []contact.Manifold, joints []joint.Definition) []solver.Island {
	isDynamic := func(i int) bool {
		b := bodies[i]
		return b.MotionType == body.Dynamic && !b.IsSleeping
	}

	uf := newUnionFind(len(bodies))
	for _, m := range manifolds {
		if isDynamic(m.BodyAIndex) && isDynamic(m.BodyBIndex) {
			uf.union(m.BodyAIndex, m.BodyBIndex)
		}
	}
	for _, j := range joints {
		h := j.JointHeader()
		if isDynamic(h.BodyIndexA) && isDynamic(h.BodyIndexB) {
			uf.union(h.BodyIndexA, h.BodyIndexB)
		}
	}

	rootOf := func(i int) int {
		if !isDynamic(i) {
			return -1
		}
		return uf.find(i)
	}

	islandOf := make(map[int]int)
	var islands []solver.Island

	islandIndexFor := func(root int) int {
		if idx, ok := islandOf[root]; ok {
			return idx
		}
		idx := len(islands)
		islands = append(islands, solver.Island{})
		islandOf[root] = idx
		return idx
	}

	for _, m := range manifolds {
		root := rootOf(m.BodyAIndex)
		if root < 0 {
			root = rootOf(m.BodyBIndex)
		}
		if root < 0 {
			continue // static/kinematic-only pair: broad phase already skips these
		}
		idx := islandIndexFor(root)
		islands[idx].Manifolds = append(islands[idx].Manifolds, m)
	}

	for _, j := range joints {
		h := j.JointHeader()
		root := rootOf(h.BodyIndexA)
		if root < 0 {
			root = rootOf(h.BodyIndexB)
		}
		if root < 0 {
			continue
		}
		idx := islandIndexFor(root)
		islands[idx].Joints = append(islands[idx].Joints, j)
	}

	return islands
}
