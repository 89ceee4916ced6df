// Package wire defines the fixed layout binary messages that move
// between a tree authority and its observers: MsgMutation going in,
// MsgChange coming out.  Transport is whoever's problem; these are
// just the bytes.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mit-dci/cmtree/common"
	"github.com/mit-dci/cmtree/tree"
)

// ChangeVersion is the current MsgChange layout version.
const ChangeVersion = 1

// MsgChangeSize is the wire size of a MsgChange.  The layout is fixed:
// 1B version, 8B seq, 4B leaf index, then prev leaf, new leaf and new
// root at 32B each.
const MsgChangeSize = 109

// MsgChange is one committed mutation, the wire form of a
// tree.ChangeEvent.  Leaf indexes ride as uint32 since tree depth is
// capped at 32.
type MsgChange struct {
	Seq       uint64
	LeafIndex uint32
	PrevLeaf  tree.Hash
	NewLeaf   tree.Hash
	NewRoot   tree.Hash
}

// NewMsgChange packs a tree.ChangeEvent for the wire.
func NewMsgChange(ev tree.ChangeEvent) MsgChange {
	return MsgChange{
		Seq:       ev.Seq,
		LeafIndex: uint32(ev.LeafIndex),
		PrevLeaf:  ev.PrevLeaf,
		NewLeaf:   ev.NewLeaf,
		NewRoot:   ev.NewRoot,
	}
}

// Event widens the message back into a tree.ChangeEvent.
func (m *MsgChange) Event() tree.ChangeEvent {
	return tree.ChangeEvent{
		Seq:       m.Seq,
		LeafIndex: uint64(m.LeafIndex),
		PrevLeaf:  m.PrevLeaf,
		NewLeaf:   m.NewLeaf,
		NewRoot:   m.NewRoot,
	}
}

// Serialize puts the MsgChange onto a writer
func (m *MsgChange) Serialize(w io.Writer) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	err := freeBytes.PutUint8(w, ChangeVersion)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint64(w, binary.BigEndian, m.Seq)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint32(w, binary.BigEndian, m.LeafIndex)
	if err != nil {
		return err
	}
	for _, h := range [3]tree.Hash{m.PrevLeaf, m.NewLeaf, m.NewRoot} {
		n, err := w.Write(h[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("change hash wrote %d bytes", n)
		}
	}
	return nil
}

// SerializeSize says how big a MsgChange is.  They're all the same.
func (m *MsgChange) SerializeSize() int {
	return MsgChangeSize
}

// Deserialize gives you a MsgChange back from a reader
func (m *MsgChange) Deserialize(r io.Reader) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	version, err := freeBytes.Uint8(r)
	if err != nil {
		return err
	}
	if version != ChangeVersion {
		return fmt.Errorf("unknown change version %d", version)
	}
	m.Seq, err = freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return err
	}
	m.LeafIndex, err = freeBytes.Uint32(r, binary.BigEndian)
	if err != nil {
		return err
	}
	for _, h := range [3]*tree.Hash{&m.PrevLeaf, &m.NewLeaf, &m.NewRoot} {
		_, err = io.ReadFull(r, h[:])
		if err != nil {
			return err
		}
	}
	return nil
}
