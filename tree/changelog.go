package tree

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mit-dci/cmtree/common"
)

// ChangeLogEntry records a single applied mutation: which slot it hit,
// the root after it, and the node values along the slot's ascent.
// Path[0] is the new leaf itself, Path[depth-1] sits just under the
// root.  The genesis entry carries the initial root and an all empty
// ascent so freshly fetched proofs can be checked against it too.
type ChangeLogEntry struct {
	Seq       uint64
	LeafIndex uint64
	Root      Hash
	Path      []Hash
}

// patch rewrites the one sibling of p that this entry invalidated.
// Only valid for proofs of a slot other than e.LeafIndex: at the row
// where the two ascents merge, e's ancestor IS p's sibling, and Path
// has its fresh value.  Rows above the merge are shared and rows below
// are untouched by e, so one substitution is the whole fixup.
func (e *ChangeLogEntry) patch(p *Proof) {
	c := critbit(p.LeafIndex, e.LeafIndex)
	p.Siblings[c] = e.Path[c]
}

// Serialize puts the ChangeLogEntry onto a writer
func (e *ChangeLogEntry) Serialize(w io.Writer) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	err := freeBytes.PutUint64(w, binary.BigEndian, e.Seq)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint64(w, binary.BigEndian, e.LeafIndex)
	if err != nil {
		return err
	}
	n, err := w.Write(e.Root[:])
	if err != nil {
		return err
	}
	if n != 32 {
		return fmt.Errorf("entry root wrote %d bytes", n)
	}
	if len(e.Path) > MaxDepth {
		return fmt.Errorf("entry has %d path rows, max %d",
			len(e.Path), MaxDepth)
	}
	err = freeBytes.PutUint8(w, uint8(len(e.Path)))
	if err != nil {
		return err
	}
	for _, h := range e.Path {
		n, err = w.Write(h[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("entry path wrote %d bytes", n)
		}
	}
	return nil
}

// SerializeSize says how many bytes it would take to serialize the entry
func (e *ChangeLogEntry) SerializeSize() int {
	// 8B seq, 8B index, 32B root, 1B path count, 32B per path row
	return 49 + 32*len(e.Path)
}

// Deserialize gives you a ChangeLogEntry back from a reader
func (e *ChangeLogEntry) Deserialize(r io.Reader) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	var err error
	e.Seq, err = freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return err
	}
	e.LeafIndex, err = freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return err
	}
	_, err = io.ReadFull(r, e.Root[:])
	if err != nil {
		return err
	}
	count, err := freeBytes.Uint8(r)
	if err != nil {
		return err
	}
	if count > MaxDepth {
		return fmt.Errorf("entry claims %d path rows, max %d", count, MaxDepth)
	}
	e.Path = make([]Hash, count)
	for i := range e.Path {
		_, err = io.ReadFull(r, e.Path[i][:])
		if err != nil {
			return err
		}
	}
	return nil
}

// changeLog is the fixed ring of recent entries, keyed by sequence
// number.  Entries a full capacity apart share a slot; the newer one
// evicts the older.
type changeLog struct {
	entries []ChangeLogEntry
}

func newChangeLog(capacity uint16) *changeLog {
	return &changeLog{entries: make([]ChangeLogEntry, capacity)}
}

func (cl *changeLog) capacity() uint64 {
	return uint64(len(cl.entries))
}

// push stores e, evicting whatever held its slot.
func (cl *changeLog) push(e ChangeLogEntry) {
	cl.entries[e.Seq%cl.capacity()] = e
}

// lookup returns the entry for seq if it hasn't been evicted yet.  The
// Path nil check keeps never written slots from answering for seq 0.
func (cl *changeLog) lookup(seq uint64) (ChangeLogEntry, bool) {
	e := cl.entries[seq%cl.capacity()]
	if e.Seq != seq || e.Path == nil {
		return ChangeLogEntry{}, false
	}
	return e, true
}
