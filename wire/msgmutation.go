package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mit-dci/cmtree/common"
	"github.com/mit-dci/cmtree/tree"
)

// MutationVersion is the current MsgMutation layout version.
const MutationVersion = 1

// Mutation op codes.  One byte on the wire, so 254 more to go.
const (
	OpAppend  uint8 = 0
	OpSetLeaf uint8 = 1
)

// MsgMutation is a write request headed for a tree authority.  Appends
// only carry the new leaf; set requests carry the whole proof bundle.
//
// Append layout: 1B version, 1B op, 32B new leaf.
// SetLeaf layout: 1B version, 1B op, 4B leaf index, 32B prev leaf,
// 32B new leaf, 32B claimed root, 1B sibling count, 32B per sibling.
type MsgMutation struct {
	Op          uint8
	LeafIndex   uint32
	PrevLeaf    tree.Hash
	NewLeaf     tree.Hash
	ClaimedRoot tree.Hash
	Siblings    []tree.Hash
}

// NewAppend builds an append request.
func NewAppend(newLeaf tree.Hash) MsgMutation {
	return MsgMutation{Op: OpAppend, NewLeaf: newLeaf}
}

// NewSetLeaf builds a set request from the caller's proof and the root
// it was fetched against.
func NewSetLeaf(newLeaf tree.Hash, pr tree.Proof, claimedRoot tree.Hash) MsgMutation {
	return MsgMutation{
		Op:          OpSetLeaf,
		LeafIndex:   uint32(pr.LeafIndex),
		PrevLeaf:    pr.Leaf,
		NewLeaf:     newLeaf,
		ClaimedRoot: claimedRoot,
		Siblings:    pr.Siblings,
	}
}

// Proof rebuilds the tree.Proof a set request carries.
func (m *MsgMutation) Proof() tree.Proof {
	return tree.Proof{
		LeafIndex: uint64(m.LeafIndex),
		Leaf:      m.PrevLeaf,
		Siblings:  m.Siblings,
	}
}

// Apply runs the request against a tree and returns whatever the tree
// says.  Unknown ops error out before touching anything.
func (m *MsgMutation) Apply(t *tree.Tree) error {
	switch m.Op {
	case OpAppend:
		return t.Append(m.NewLeaf)
	case OpSetLeaf:
		return t.SetLeaf(m.NewLeaf, m.Proof(), m.ClaimedRoot)
	}
	return fmt.Errorf("unknown mutation op %d", m.Op)
}

// Serialize puts the MsgMutation onto a writer
func (m *MsgMutation) Serialize(w io.Writer) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	err := freeBytes.PutUint8(w, MutationVersion)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint8(w, m.Op)
	if err != nil {
		return err
	}

	if m.Op == OpAppend {
		n, err := w.Write(m.NewLeaf[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("append leaf wrote %d bytes", n)
		}
		return nil
	}

	err = freeBytes.PutUint32(w, binary.BigEndian, m.LeafIndex)
	if err != nil {
		return err
	}
	for _, h := range [3]tree.Hash{m.PrevLeaf, m.NewLeaf, m.ClaimedRoot} {
		n, err := w.Write(h[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("mutation hash wrote %d bytes", n)
		}
	}
	if len(m.Siblings) > tree.MaxDepth {
		return fmt.Errorf("mutation has %d siblings, max %d",
			len(m.Siblings), tree.MaxDepth)
	}
	err = freeBytes.PutUint8(w, uint8(len(m.Siblings)))
	if err != nil {
		return err
	}
	for _, sib := range m.Siblings {
		n, err := w.Write(sib[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("mutation sibling wrote %d bytes", n)
		}
	}
	return nil
}

// SerializeSize says how many bytes the MsgMutation takes on the wire
func (m *MsgMutation) SerializeSize() int {
	if m.Op == OpAppend {
		// 2B version/op, 32B leaf
		return 34
	}
	// 2B version/op, 4B index, 3 hashes, 1B sibling count, siblings
	return 103 + 32*len(m.Siblings)
}

// Deserialize gives you a MsgMutation back from a reader
func (m *MsgMutation) Deserialize(r io.Reader) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	version, err := freeBytes.Uint8(r)
	if err != nil {
		return err
	}
	if version != MutationVersion {
		return fmt.Errorf("unknown mutation version %d", version)
	}
	m.Op, err = freeBytes.Uint8(r)
	if err != nil {
		return err
	}

	switch m.Op {
	case OpAppend:
		_, err = io.ReadFull(r, m.NewLeaf[:])
		return err
	case OpSetLeaf:
	default:
		return fmt.Errorf("unknown mutation op %d", m.Op)
	}

	m.LeafIndex, err = freeBytes.Uint32(r, binary.BigEndian)
	if err != nil {
		return err
	}
	for _, h := range [3]*tree.Hash{&m.PrevLeaf, &m.NewLeaf, &m.ClaimedRoot} {
		_, err = io.ReadFull(r, h[:])
		if err != nil {
			return err
		}
	}
	count, err := freeBytes.Uint8(r)
	if err != nil {
		return err
	}
	if count > tree.MaxDepth {
		return fmt.Errorf("mutation claims %d siblings, max %d",
			count, tree.MaxDepth)
	}
	m.Siblings = make([]tree.Hash, count)
	for i := range m.Siblings {
		_, err = io.ReadFull(r, m.Siblings[i][:])
		if err != nil {
			return err
		}
	}
	return nil
}
