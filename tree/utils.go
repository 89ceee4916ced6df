package tree

import (
	"math/bits"
)

// maxLeaves returns the number of slots in a tree of the given depth.
func maxLeaves(depth uint8) uint64 {
	return 1 << depth
}

// critbit finds the row where the ascents of two different slots stop
// overlapping: the highest bit position where a and b differ.  At that
// row the two ancestors are siblings of each other, which is what makes
// proof patching a single substitution.  a and b must differ.
func critbit(a, b uint64) uint8 {
	return uint8(bits.Len64(a^b) - 1)
}

// buildEmptyRoots precomputes the hash of an all-sentinel subtree for
// every row.  Index 0 is the sentinel itself, index depth is the root
// of a completely empty tree.
func buildEmptyRoots(h Hasher, sentinel Hash, depth uint8) []Hash {
	es := make([]Hash, depth+1)
	es[0] = sentinel
	for r := uint8(1); r <= depth; r++ {
		es[r] = h.Parent(es[r-1], es[r-1])
	}
	return es
}
