package contact

// SortKey computes a fixed multiplicative hash over a constraint's body and
// sub-shape indices. Combined with (bodyA.id, bodyB.id) it gives the stable,
// bit-reproducible ordering the solver sorts contact constraints by before
// every velocity and position pass.
func SortKey(bodyAIdx, bodyBIdx, subShapeA, subShapeB int) uint64 {
	h := uint64(17)
	h = h*31 + uint64(uint32(bodyAIdx))
	h = h*31 + uint64(uint32(bodyBIdx))
	h = h*31 + uint64(uint32(subShapeA))
	h = h*31 + uint64(uint32(subShapeB))
	return h
}
