package tree

import (
	"fmt"
	"math/bits"
)

// Tree is the writer side of the concurrent merkle tree.  It stores no
// leaves: just the live root, the sibling branch of the next open
// append slot, and the changelog ring.  Everything a SetLeaf needs
// about current content arrives in the caller's proof and is verified
// before any state moves.
type Tree struct {
	depth     uint8
	hasher    Hasher
	emptyLeaf Hash

	// empties[r] is the hash of an all-sentinel subtree of height r,
	// so empties[depth] is the root of a fresh tree.
	empties []Hash

	root      Hash
	seq       uint64
	rightmost uint64 // next append slot, equal to the appended count

	// rmProof holds the sibling hashes of slot `rightmost`, bottom row
	// first.  Append consumes it and rolls it forward; SetLeaf patches
	// it.  Meaningless once the tree is full.
	rmProof []Hash

	clog *changeLog
	sink EventSink
}

// New builds an empty Tree and seeds the genesis changelog entry, so
// proofs fetched before the first mutation fast-forward like any
// others.
func New(cfg Config) (*Tree, error) {
	h, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	t := &Tree{
		depth:     cfg.Depth,
		hasher:    h,
		emptyLeaf: cfg.EmptyLeaf,
		empties:   buildEmptyRoots(h, cfg.EmptyLeaf, cfg.Depth),
		clog:      newChangeLog(cfg.MaxChangeLog),
	}
	t.root = t.empties[t.depth]
	t.rmProof = make([]Hash, t.depth)
	copy(t.rmProof, t.empties[:t.depth])

	genesis := ChangeLogEntry{Root: t.root, Path: make([]Hash, t.depth)}
	copy(genesis.Path, t.empties[:t.depth])
	t.clog.push(genesis)
	return t, nil
}

// NewFromProof spins up a Tree mid-stream from a proof of the last
// appended leaf, without replaying history.  seq numbers the bootstrap
// state in the existing event stream; mutations continue at seq+1.
func NewFromProof(cfg Config, pr Proof, seq uint64) (*Tree, error) {
	h, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if uint8(len(pr.Siblings)) != cfg.Depth {
		return nil, errProofLen(len(pr.Siblings), cfg.Depth)
	}
	if pr.LeafIndex >= maxLeaves(cfg.Depth) {
		return nil, errLeafOutOfRange(pr.LeafIndex, maxLeaves(cfg.Depth))
	}
	t := &Tree{
		depth:     cfg.Depth,
		hasher:    h,
		emptyLeaf: cfg.EmptyLeaf,
		empties:   buildEmptyRoots(h, cfg.EmptyLeaf, cfg.Depth),
		clog:      newChangeLog(cfg.MaxChangeLog),
	}
	path, root := t.ascend(pr.LeafIndex, pr.Leaf, pr.Siblings)
	t.root = root
	t.seq = seq
	t.rightmost = pr.LeafIndex + 1

	// derive the next slot's siblings from the bootstrap proof
	t.rmProof = make([]Hash, t.depth)
	if t.rightmost < t.Capacity() {
		tz := uint8(bits.TrailingZeros64(t.rightmost))
		for r := uint8(0); r < t.depth; r++ {
			switch {
			case r < tz:
				t.rmProof[r] = t.empties[r]
			case r == tz:
				t.rmProof[r] = path[tz]
			default:
				t.rmProof[r] = pr.Siblings[r]
			}
		}
	}

	t.clog.push(ChangeLogEntry{
		Seq: seq, LeafIndex: pr.LeafIndex, Root: root, Path: path})
	return t, nil
}

// SetSink wires in the event sink.  Pass nil to stop emitting.  Attach
// before the first mutation if an observer needs the whole stream.
func (t *Tree) SetSink(sink EventSink) {
	t.sink = sink
}

// Root returns the live root.
func (t *Tree) Root() Hash {
	return t.root
}

// Seq returns the sequence number of the latest applied mutation.
// A fresh tree reports 0.
func (t *Tree) Seq() uint64 {
	return t.seq
}

// NumLeaves returns how many slots have been appended.
func (t *Tree) NumLeaves() uint64 {
	return t.rightmost
}

// Depth returns the fixed tree depth.
func (t *Tree) Depth() uint8 {
	return t.depth
}

// Capacity returns the total slot count, 2**depth.
func (t *Tree) Capacity() uint64 {
	return maxLeaves(t.depth)
}

// Hasher returns the hasher this tree was built with.
func (t *Tree) Hasher() Hasher {
	return t.hasher
}

// EmptyLeaf returns the unset slot sentinel.
func (t *Tree) EmptyLeaf() Hash {
	return t.emptyLeaf
}

// ascend rehashes the branch of a slot from a new leaf value up,
// returning the ascent values (row 0 is the leaf itself) and the root
// they imply.
func (t *Tree) ascend(index uint64, leaf Hash, siblings []Hash) ([]Hash, Hash) {
	path := make([]Hash, t.depth)
	n := leaf
	for r := uint8(0); r < t.depth; r++ {
		path[r] = n
		sib := siblings[r]
		if 1<<uint(r)&index == 0 {
			n = t.hasher.Parent(n, sib)
		} else {
			n = t.hasher.Parent(sib, n)
		}
	}
	return path, n
}

// Append writes leaf into the next open slot.  The empty sentinel
// can't be appended: a slot holding it would be indistinguishable from
// one never written.
func (t *Tree) Append(leaf Hash) error {
	if leaf == t.emptyLeaf {
		return ErrEmptyLeaf
	}
	if t.rightmost >= t.Capacity() {
		return errTreeFull(t.Capacity())
	}
	i := t.rightmost
	path, newRoot := t.ascend(i, leaf, t.rmProof)

	// Roll rmProof forward to slot i+1.  Below the carry row everything
	// to the right of the new slot is still unset; at the carry row the
	// sibling is the subtree we just finished, whose fresh value is in
	// the ascent; above it the old siblings still stand.
	n := i + 1
	if n < t.Capacity() {
		tz := uint8(bits.TrailingZeros64(n))
		for r := uint8(0); r < tz; r++ {
			t.rmProof[r] = t.empties[r]
		}
		t.rmProof[tz] = path[tz]
	}
	t.rightmost = n
	return t.commit(i, t.emptyLeaf, leaf, path, newRoot)
}

// SetLeaf overwrites an appended slot.  pr proves the slot's current
// value against claimedRoot, which may be up to MaxChangeLog mutations
// behind the live root; the proof is patched forward across the
// changelog before it has to verify.  Only slots below the rightmost
// index are writable.
func (t *Tree) SetLeaf(newLeaf Hash, pr Proof, claimedRoot Hash) error {
	if uint8(len(pr.Siblings)) != t.depth {
		return errProofLen(len(pr.Siblings), t.depth)
	}
	if pr.LeafIndex >= t.rightmost {
		return errLeafOutOfRange(pr.LeafIndex, t.rightmost)
	}
	work := pr.clone()
	if err := t.fastForward(&work, claimedRoot); err != nil {
		return err
	}

	path, newRoot := t.ascend(work.LeafIndex, newLeaf, work.Siblings)

	// the write lands somewhere under the next append slot's branch;
	// fix the one sibling it moved
	if t.rightmost < t.Capacity() {
		c := critbit(t.rightmost, work.LeafIndex)
		t.rmProof[c] = path[c]
	}
	return t.commit(work.LeafIndex, work.Leaf, newLeaf, path, newRoot)
}

// fastForward patches work in place until it verifies against the live
// root.  claimedRoot names the state the proof was computed at; that
// state has to still be inside the changelog window.
func (t *Tree) fastForward(work *Proof, claimedRoot Hash) error {
	// short circuit for proofs that are already current
	if work.Root(t.hasher) == t.root {
		return nil
	}

	// find the state the proof was built against, newest first.  Equal
	// roots mean equal whole-tree states, so if a value cycle put the
	// same root in the window twice the newest occurrence is the right
	// place to start from.
	var matchSeq uint64
	found := false
	for off := uint64(0); off < t.clog.capacity() && off <= t.seq; off++ {
		s := t.seq - off
		e, ok := t.clog.lookup(s)
		if !ok {
			break
		}
		if e.Root == claimedRoot {
			matchSeq = s
			found = true
			break
		}
	}
	if !found {
		return errStaleProof(claimedRoot)
	}

	// replay everything newer than the match onto the proof
	updated := work.Leaf
	for s := matchSeq + 1; s <= t.seq; s++ {
		e, ok := t.clog.lookup(s)
		if !ok {
			panic(fmt.Sprintf("changelog hole at seq %d, window %d..%d",
				s, matchSeq, t.seq))
		}
		if e.LeafIndex == work.LeafIndex {
			updated = e.Path[0]
		} else {
			e.patch(work)
		}
	}

	// a newer write to the same slot wins unless it wrote the exact
	// value the caller claims is there
	if updated != work.Leaf {
		return errConflict(work.LeafIndex, work.Leaf, updated)
	}
	if got := work.Root(t.hasher); got != t.root {
		return errInvalidProof(got, t.root)
	}
	log.Debugf("fast forwarded proof for slot %d across %d entries",
		work.LeafIndex, t.seq-matchSeq)
	return nil
}

// commit advances the sequence, records the changelog entry, publishes
// the new root and emits the change event.  An Emit error surfaces to
// the caller but the mutation stays applied.
func (t *Tree) commit(index uint64, prev, leaf Hash, path []Hash, newRoot Hash) error {
	t.seq++
	t.clog.push(ChangeLogEntry{
		Seq: t.seq, LeafIndex: index, Root: newRoot, Path: path})
	t.root = newRoot
	log.Tracef("seq %d slot %d %x -> %x root %x",
		t.seq, index, prev.Prefix(), leaf.Prefix(), newRoot.Prefix())

	if t.sink == nil {
		return nil
	}
	err := t.sink.Emit(ChangeEvent{
		Seq:       t.seq,
		LeafIndex: index,
		PrevLeaf:  prev,
		NewLeaf:   leaf,
		NewRoot:   newRoot,
	})
	if err != nil {
		return errEmit(err)
	}
	return nil
}

// windowSize is how many changelog entries are currently live.
func (t *Tree) windowSize() uint64 {
	w := t.seq + 1
	if c := t.clog.capacity(); w > c {
		w = c
	}
	return w
}

// Stats :
func (t *Tree) Stats() string {
	return fmt.Sprintf("numleaves: %d depth: %d seq: %d window: %d root: %x",
		t.rightmost, t.depth, t.seq, t.windowSize(), t.root.Prefix())
}
