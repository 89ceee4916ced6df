package tree

import (
	"fmt"
)

// RefTree is the dense observer-side tree: every node value held in
// memory, rows growing rightward as slots get appended.  It recomputes
// the same roots a Tree does for the same operations, serves fresh
// proofs, and is what the mirror package feeds with change events.
type RefTree struct {
	depth     uint8
	hasher    Hasher
	emptyLeaf Hash
	empties   []Hash
	numLeaves uint64

	// levels[r] holds row r left to right.  Unmaterialized nodes to
	// the right of a row read as empties[r].
	levels [][]Hash
}

// NewRefTree builds an empty RefTree from cfg.  MaxChangeLog is
// ignored here; the dense side doesn't patch proofs.
func NewRefTree(cfg Config) (*RefTree, error) {
	h, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	return &RefTree{
		depth:     cfg.Depth,
		hasher:    h,
		emptyLeaf: cfg.EmptyLeaf,
		empties:   buildEmptyRoots(h, cfg.EmptyLeaf, cfg.Depth),
		levels:    make([][]Hash, cfg.Depth+1),
	}, nil
}

// node reads row r index i, falling back to the empty subtree value.
func (rt *RefTree) node(r uint8, i uint64) Hash {
	row := rt.levels[r]
	if i < uint64(len(row)) {
		return row[i]
	}
	return rt.empties[r]
}

// write materializes row r out to index i and sets it.
func (rt *RefTree) write(r uint8, i uint64, h Hash) {
	row := rt.levels[r]
	for uint64(len(row)) <= i {
		row = append(row, rt.empties[r])
	}
	row[i] = h
	rt.levels[r] = row
}

// update sets a leaf and rehashes its branch to the root.
func (rt *RefTree) update(i uint64, leaf Hash) {
	rt.write(0, i, leaf)
	for r := uint8(1); r <= rt.depth; r++ {
		p := i >> r
		rt.write(r, p,
			rt.hasher.Parent(rt.node(r-1, 2*p), rt.node(r-1, 2*p+1)))
	}
}

// Append writes leaf into the next open slot.  Same sentinel rule as
// the writer side.
func (rt *RefTree) Append(leaf Hash) error {
	if leaf == rt.emptyLeaf {
		return ErrEmptyLeaf
	}
	if rt.numLeaves >= rt.Capacity() {
		return errTreeFull(rt.Capacity())
	}
	rt.update(rt.numLeaves, leaf)
	rt.numLeaves++
	return nil
}

// SetLeaf overwrites an appended slot.  Setting a slot back to the
// sentinel is allowed; the slot stays appended.
func (rt *RefTree) SetLeaf(index uint64, leaf Hash) error {
	if index >= rt.numLeaves {
		return errLeafOutOfRange(index, rt.numLeaves)
	}
	rt.update(index, leaf)
	return nil
}

// Leaf returns the current value of an appended slot.
func (rt *RefTree) Leaf(index uint64) (Hash, error) {
	if index >= rt.numLeaves {
		return empty, errLeafOutOfRange(index, rt.numLeaves)
	}
	return rt.node(0, index), nil
}

// ProveLeaf builds an inclusion proof for an appended slot against the
// current root.
func (rt *RefTree) ProveLeaf(index uint64) (Proof, error) {
	var pr Proof
	if index >= rt.numLeaves {
		return pr, errLeafOutOfRange(index, rt.numLeaves)
	}
	pr.LeafIndex = index
	pr.Leaf = rt.node(0, index)
	pr.Siblings = make([]Hash, rt.depth)
	for r := uint8(0); r < rt.depth; r++ {
		pr.Siblings[r] = rt.node(r, (index>>r)^1)
	}
	return pr, nil
}

// Verify checks an inclusion proof against the current root.
// returns false on any errors
func (rt *RefTree) Verify(p Proof) bool {
	if uint8(len(p.Siblings)) != rt.depth {
		log.Debugf("proof wrong size, expect %d got %d",
			rt.depth, len(p.Siblings))
		return false
	}
	return p.Root(rt.hasher) == rt.Root()
}

// Root returns the current root.
func (rt *RefTree) Root() Hash {
	return rt.node(rt.depth, 0)
}

// NumLeaves returns how many slots have been appended.
func (rt *RefTree) NumLeaves() uint64 {
	return rt.numLeaves
}

// Depth returns the fixed tree depth.
func (rt *RefTree) Depth() uint8 {
	return rt.depth
}

// Capacity returns the total slot count, 2**depth.
func (rt *RefTree) Capacity() uint64 {
	return maxLeaves(rt.depth)
}

// EmptyLeaf returns the sentinel unset slots read as.
func (rt *RefTree) EmptyLeaf() Hash {
	return rt.emptyLeaf
}

// ToString prints out the whole thing.  Only viable for small trees
func (rt *RefTree) ToString() string {
	fh := rt.depth
	// tree rows should be 6 or less
	if fh > 6 {
		return "tree too big to print "
	}

	output := make([]string, (fh*2)+1)
	for h := uint8(0); h <= fh; h++ {
		rowlen := uint64(1) << (fh - h)

		for j := uint64(0); j < rowlen; j++ {
			var valstring string
			if j < uint64(len(rt.levels[h])) {
				val := rt.levels[h][j]
				valstring = fmt.Sprintf("%x", val[:2])
			}
			if valstring != "" {
				output[h*2] += fmt.Sprintf("%02d:%s ", j, valstring)
			} else {
				output[h*2] += "        "
			}
			if h > 0 {
				output[(h*2)-1] += "|-------"
				for q := uint8(0); q < ((1<<h)-1)/2; q++ {
					output[(h*2)-1] += "--------"
				}
				output[(h*2)-1] += "\\       "
				for q := uint8(0); q < ((1<<h)-1)/2; q++ {
					output[(h*2)-1] += "        "
				}

				for q := uint8(0); q < (1<<h)-1; q++ {
					output[h*2] += "        "
				}
			}
		}
	}
	var s string
	for z := len(output) - 1; z >= 0; z-- {
		s += output[z] + "\n"
	}
	return s
}
