package tree

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mit-dci/cmtree/common"
)

// Proof is a single leaf inclusion branch.
type Proof struct {
	LeafIndex uint64 // where at the bottom of the tree it sits
	Leaf      Hash   // value of the thing itself (what's getting proved)
	Siblings  []Hash // slice of siblings up to the root, bottom row first
}

// Root hashes up the branch and returns the root this proof commits to.
// Row parity of LeafIndex decides which side the sibling goes on.
func (p *Proof) Root(h Hasher) Hash {
	n := p.Leaf
	for r, sib := range p.Siblings {
		if 1<<uint(r)&p.LeafIndex == 0 {
			n = h.Parent(n, sib)
		} else {
			n = h.Parent(sib, n)
		}
	}
	return n
}

// clone copies the proof so patching doesn't scribble on the caller's
// sibling slice.
func (p *Proof) clone() Proof {
	c := *p
	c.Siblings = make([]Hash, len(p.Siblings))
	copy(c.Siblings, p.Siblings)
	return c
}

// Serialize puts the Proof onto a writer
func (p *Proof) Serialize(w io.Writer) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	err := freeBytes.PutUint64(w, binary.BigEndian, p.LeafIndex)
	if err != nil {
		return err
	}
	n, err := w.Write(p.Leaf[:])
	if err != nil {
		return err
	}
	if n != 32 {
		return fmt.Errorf("proof leaf wrote %d bytes", n)
	}
	if len(p.Siblings) > MaxDepth {
		return fmt.Errorf("proof has %d siblings, max %d",
			len(p.Siblings), MaxDepth)
	}
	err = freeBytes.PutUint8(w, uint8(len(p.Siblings)))
	if err != nil {
		return err
	}
	for _, sib := range p.Siblings {
		n, err = w.Write(sib[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("proof sibling wrote %d bytes", n)
		}
	}
	return nil
}

// SerializeSize says how many bytes it would take to serialize the Proof
func (p *Proof) SerializeSize() int {
	// 8B index, 32B leaf, 1B sibling count, 32B per sibling
	return 41 + 32*len(p.Siblings)
}

// Deserialize gives you a Proof back from a reader
func (p *Proof) Deserialize(r io.Reader) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	var err error
	p.LeafIndex, err = freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return err
	}
	_, err = io.ReadFull(r, p.Leaf[:])
	if err != nil {
		return err
	}
	count, err := freeBytes.Uint8(r)
	if err != nil {
		return err
	}
	if count > MaxDepth {
		return fmt.Errorf("proof claims %d siblings, max %d", count, MaxDepth)
	}
	p.Siblings = make([]Hash, count)
	for i := range p.Siblings {
		_, err = io.ReadFull(r, p.Siblings[i][:])
		if err != nil {
			return err
		}
	}
	return nil
}
