package tree

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mit-dci/cmtree/common"
)

// TreeStateVersion is the serialized writer state layout version.
const TreeStateVersion = 1

// RefStateVersion is the serialized RefTree state layout version.
const RefStateVersion = 1

// Serialize writes the whole writer state: config identity, root and
// rightmost bookkeeping, and the live changelog window oldest first.
// The layout is fixed size for a given config.
func (t *Tree) Serialize(w io.Writer) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	err := freeBytes.PutUint8(w, TreeStateVersion)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint8(w, t.hasher.ID())
	if err != nil {
		return err
	}
	err = freeBytes.PutUint8(w, t.depth)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint16(w, binary.BigEndian, uint16(t.clog.capacity()))
	if err != nil {
		return err
	}
	n, err := w.Write(t.emptyLeaf[:])
	if err != nil {
		return err
	}
	if n != 32 {
		return fmt.Errorf("sentinel wrote %d bytes", n)
	}
	err = freeBytes.PutUint64(w, binary.BigEndian, t.seq)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint64(w, binary.BigEndian, t.rightmost)
	if err != nil {
		return err
	}
	n, err = w.Write(t.root[:])
	if err != nil {
		return err
	}
	if n != 32 {
		return fmt.Errorf("root wrote %d bytes", n)
	}
	for _, sib := range t.rmProof {
		n, err = w.Write(sib[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("rightmost proof wrote %d bytes", n)
		}
	}

	count := t.windowSize()
	err = freeBytes.PutUint16(w, binary.BigEndian, uint16(count))
	if err != nil {
		return err
	}
	for s := t.seq + 1 - count; s <= t.seq; s++ {
		e, ok := t.clog.lookup(s)
		if !ok {
			return fmt.Errorf("changelog hole at seq %d while serializing", s)
		}
		err = e.Serialize(w)
		if err != nil {
			return err
		}
	}
	return nil
}

// SerializeSize says how many bytes Serialize would write
func (t *Tree) SerializeSize() int {
	// 3B version/hasher/depth, 2B ring cap, 32B sentinel, 8B seq,
	// 8B rightmost, 32B root, rightmost proof, 2B entry count, entries
	size := 85 + 32*int(t.depth)
	size += int(t.windowSize()) * (49 + 32*int(t.depth))
	return size
}

// DeserializeTree rebuilds a Tree from Serialize output.  The sink is
// not restored; wire one in with SetSink before mutating if observers
// are still listening.
func DeserializeTree(r io.Reader) (*Tree, error) {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	version, err := freeBytes.Uint8(r)
	if err != nil {
		return nil, err
	}
	if version != TreeStateVersion {
		return nil, errCorruptState(fmt.Sprintf(
			"state version %d, know %d", version, TreeStateVersion))
	}
	hasherID, err := freeBytes.Uint8(r)
	if err != nil {
		return nil, err
	}
	h, err := HasherByID(hasherID)
	if err != nil {
		return nil, err
	}
	depth, err := freeBytes.Uint8(r)
	if err != nil {
		return nil, err
	}
	if depth < 1 || depth > MaxDepth {
		return nil, errCorruptState(fmt.Sprintf("depth %d", depth))
	}
	ringCap, err := freeBytes.Uint16(r, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	if ringCap == 0 {
		return nil, errCorruptState("zero ring capacity")
	}

	t := &Tree{
		depth:  depth,
		hasher: h,
		clog:   newChangeLog(ringCap),
	}
	_, err = io.ReadFull(r, t.emptyLeaf[:])
	if err != nil {
		return nil, err
	}
	t.empties = buildEmptyRoots(h, t.emptyLeaf, depth)
	t.seq, err = freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	t.rightmost, err = freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	if t.rightmost > maxLeaves(depth) {
		return nil, errCorruptState(fmt.Sprintf(
			"rightmost %d beyond %d slots", t.rightmost, maxLeaves(depth)))
	}
	_, err = io.ReadFull(r, t.root[:])
	if err != nil {
		return nil, err
	}
	t.rmProof = make([]Hash, depth)
	for i := range t.rmProof {
		_, err = io.ReadFull(r, t.rmProof[i][:])
		if err != nil {
			return nil, err
		}
	}

	count, err := freeBytes.Uint16(r, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	want := t.windowSize()
	if uint64(count) != want {
		return nil, errCorruptState(fmt.Sprintf(
			"%d changelog entries, want %d", count, want))
	}
	for s := t.seq + 1 - want; s <= t.seq; s++ {
		var e ChangeLogEntry
		err = e.Deserialize(r)
		if err != nil {
			return nil, err
		}
		if e.Seq != s {
			return nil, errCorruptState(fmt.Sprintf(
				"changelog entry seq %d, want %d", e.Seq, s))
		}
		if uint8(len(e.Path)) != depth {
			return nil, errCorruptState(fmt.Sprintf(
				"entry path %d rows, want %d", len(e.Path), depth))
		}
		t.clog.push(e)
	}
	newest, ok := t.clog.lookup(t.seq)
	if !ok || newest.Root != t.root {
		return nil, errCorruptState("newest entry root doesn't match tree root")
	}
	return t, nil
}

// Serialize writes the RefTree state: config identity plus the leaf
// row.  Interior rows hash right back out of the leaves on restore, so
// they stay off the wire.
func (rt *RefTree) Serialize(w io.Writer) error {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	err := freeBytes.PutUint8(w, RefStateVersion)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint8(w, rt.hasher.ID())
	if err != nil {
		return err
	}
	err = freeBytes.PutUint8(w, rt.depth)
	if err != nil {
		return err
	}
	n, err := w.Write(rt.emptyLeaf[:])
	if err != nil {
		return err
	}
	if n != 32 {
		return fmt.Errorf("sentinel wrote %d bytes", n)
	}
	err = freeBytes.PutUint64(w, binary.BigEndian, rt.numLeaves)
	if err != nil {
		return err
	}
	for i := uint64(0); i < rt.numLeaves; i++ {
		leaf := rt.node(0, i)
		n, err = w.Write(leaf[:])
		if err != nil {
			return err
		}
		if n != 32 {
			return fmt.Errorf("leaf %d wrote %d bytes", i, n)
		}
	}
	return nil
}

// SerializeSize says how many bytes Serialize would write
func (rt *RefTree) SerializeSize() int {
	// 3B version/hasher/depth, 32B sentinel, 8B leaf count, leaves
	return 43 + 32*int(rt.numLeaves)
}

// DeserializeRefTree rebuilds a RefTree from Serialize output,
// rehashing every interior row from the leaves.
func DeserializeRefTree(r io.Reader) (*RefTree, error) {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	version, err := freeBytes.Uint8(r)
	if err != nil {
		return nil, err
	}
	if version != RefStateVersion {
		return nil, errCorruptState(fmt.Sprintf(
			"ref state version %d, know %d", version, RefStateVersion))
	}
	hasherID, err := freeBytes.Uint8(r)
	if err != nil {
		return nil, err
	}
	h, err := HasherByID(hasherID)
	if err != nil {
		return nil, err
	}
	depth, err := freeBytes.Uint8(r)
	if err != nil {
		return nil, err
	}
	if depth < 1 || depth > MaxDepth {
		return nil, errCorruptState(fmt.Sprintf("depth %d", depth))
	}

	rt := &RefTree{
		depth:  depth,
		hasher: h,
		levels: make([][]Hash, depth+1),
	}
	_, err = io.ReadFull(r, rt.emptyLeaf[:])
	if err != nil {
		return nil, err
	}
	rt.empties = buildEmptyRoots(h, rt.emptyLeaf, depth)
	rt.numLeaves, err = freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	if rt.numLeaves > maxLeaves(depth) {
		return nil, errCorruptState(fmt.Sprintf(
			"%d leaves beyond %d slots", rt.numLeaves, maxLeaves(depth)))
	}
	for i := uint64(0); i < rt.numLeaves; i++ {
		var leaf Hash
		_, err = io.ReadFull(r, leaf[:])
		if err != nil {
			return nil, err
		}
		rt.write(0, i, leaf)
	}
	for row := uint8(1); row <= depth; row++ {
		width := (rt.numLeaves + (uint64(1) << row) - 1) >> row
		for i := uint64(0); i < width; i++ {
			rt.write(row, i,
				h.Parent(rt.node(row-1, 2*i), rt.node(row-1, 2*i+1)))
		}
	}
	return rt, nil
}
