// Package mirror keeps an observer's copy of a tree in step with the
// authority's change event stream.  A Mirror owns a dense
// tree.RefTree, applies events strictly in sequence order, and cross
// checks every event's root against its own.  A sequence gap or a
// root mismatch freezes the mirror for good; the way back is a full
// restore from a trusted snapshot.
package mirror

import (
	"fmt"

	"github.com/mit-dci/cmtree/tree"
)

// Mirror replays change events into a RefTree and serves fresh proofs
// off it.  Single writer, like everything else here.
type Mirror struct {
	ref     *tree.RefTree
	nextSeq uint64

	// broken is sticky.  Set once on the first gap or divergence,
	// never cleared.
	broken error
}

// New builds an empty mirror expecting the authority's first event.
func New(cfg tree.Config) (*Mirror, error) {
	ref, err := tree.NewRefTree(cfg)
	if err != nil {
		return nil, err
	}
	return &Mirror{ref: ref, nextSeq: 1}, nil
}

// Apply replays one change event.  Events at the next open slot are
// appends, events below it are rewrites.  Any sequence gap marks the
// mirror desynced, and any disagreement with the event's prev value
// or resulting root marks it diverged.  Both stick: once Apply fails
// this way, every later call fails with the same error until the
// mirror is rebuilt.
//
// Apply matches tree.EventSink's Emit signature, so a Mirror can be
// wired straight onto a local Tree with tree.SinkFunc(m.Apply).
func (m *Mirror) Apply(ev tree.ChangeEvent) error {
	if m.broken != nil {
		return m.broken
	}
	if ev.Seq != m.nextSeq {
		m.broken = errDesync(ev.Seq, m.nextSeq)
		return m.broken
	}

	switch {
	case ev.LeafIndex == m.ref.NumLeaves():
		if ev.PrevLeaf != m.ref.EmptyLeaf() {
			m.broken = errDiverged(fmt.Sprintf(
				"append seq %d claims prev %x for an empty slot",
				ev.Seq, ev.PrevLeaf.Prefix()))
			return m.broken
		}
		if err := m.ref.Append(ev.NewLeaf); err != nil {
			m.broken = errDiverged(fmt.Sprintf("seq %d: %s", ev.Seq, err))
			return m.broken
		}
	case ev.LeafIndex < m.ref.NumLeaves():
		have, err := m.ref.Leaf(ev.LeafIndex)
		if err != nil {
			m.broken = errDiverged(fmt.Sprintf("seq %d: %s", ev.Seq, err))
			return m.broken
		}
		if have != ev.PrevLeaf {
			m.broken = errDiverged(fmt.Sprintf(
				"seq %d: slot %d holds %x, event says %x",
				ev.Seq, ev.LeafIndex, have.Prefix(), ev.PrevLeaf.Prefix()))
			return m.broken
		}
		if err := m.ref.SetLeaf(ev.LeafIndex, ev.NewLeaf); err != nil {
			m.broken = errDiverged(fmt.Sprintf("seq %d: %s", ev.Seq, err))
			return m.broken
		}
	default:
		m.broken = errDiverged(fmt.Sprintf(
			"seq %d targets slot %d with only %d appended",
			ev.Seq, ev.LeafIndex, m.ref.NumLeaves()))
		return m.broken
	}

	if got := m.ref.Root(); got != ev.NewRoot {
		m.broken = errDiverged(fmt.Sprintf(
			"seq %d: root %x, authority says %x",
			ev.Seq, got.Prefix(), ev.NewRoot.Prefix()))
		return m.broken
	}
	m.nextSeq++
	log.Tracef("mirrored seq %d leaf %d root %x",
		ev.Seq, ev.LeafIndex, ev.NewRoot.Prefix())
	return nil
}

// ProveLeaf builds a fresh inclusion proof for an appended slot.  A
// frozen mirror refuses; its proofs can't be trusted anymore.
func (m *Mirror) ProveLeaf(index uint64) (tree.Proof, error) {
	if m.broken != nil {
		return tree.Proof{}, m.broken
	}
	return m.ref.ProveLeaf(index)
}

// Leaf reads one appended slot's current value.
func (m *Mirror) Leaf(index uint64) (tree.Hash, error) {
	if m.broken != nil {
		return tree.Hash{}, m.broken
	}
	return m.ref.Leaf(index)
}

// Root returns the mirror's current root.  Valid through the last
// applied event even on a frozen mirror.
func (m *Mirror) Root() tree.Hash {
	return m.ref.Root()
}

// NumLeaves returns how many slots the mirror has seen appended.
func (m *Mirror) NumLeaves() uint64 {
	return m.ref.NumLeaves()
}

// NextSeq is the sequence number the mirror expects next.
func (m *Mirror) NextSeq() uint64 {
	return m.nextSeq
}

// Err reports why the mirror is frozen, nil while healthy.
func (m *Mirror) Err() error {
	return m.broken
}
