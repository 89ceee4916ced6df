package tree

import (
	"bytes"
	"errors"
	"testing"
)

func TestProofSerializeDeserialize(t *testing.T) {
	rt, _ := NewRefTree(Config{Depth: 4})
	for i := 0; i < 9; i++ {
		rt.Append(testLeaf(i))
	}
	pr, err := rt.ProveLeaf(6)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := pr.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != pr.SerializeSize() {
		t.Fatalf("wrote %d bytes, SerializeSize says %d",
			buf.Len(), pr.SerializeSize())
	}

	var back Proof
	if err := back.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if back.LeafIndex != pr.LeafIndex || back.Leaf != pr.Leaf {
		t.Fatal("round trip mangled the proof header")
	}
	if len(back.Siblings) != len(pr.Siblings) {
		t.Fatal("round trip mangled the sibling count")
	}
	if !rt.Verify(back) {
		t.Fatal("round tripped proof no longer verifies")
	}
}

func TestEntrySerializeDeserialize(t *testing.T) {
	e := ChangeLogEntry{
		Seq:       77,
		LeafIndex: 5,
		Root:      HashFromString("root"),
		Path: []Hash{
			HashFromString("p0"), HashFromString("p1"), HashFromString("p2"),
		},
	}

	var buf bytes.Buffer
	if err := e.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != e.SerializeSize() {
		t.Fatalf("wrote %d bytes, SerializeSize says %d",
			buf.Len(), e.SerializeSize())
	}

	var back ChangeLogEntry
	if err := back.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if back.Seq != e.Seq || back.LeafIndex != e.LeafIndex || back.Root != e.Root {
		t.Fatal("round trip mangled the entry header")
	}
	for i := range e.Path {
		if back.Path[i] != e.Path[i] {
			t.Fatalf("round trip mangled path row %d", i)
		}
	}
}

func TestTreeSerializeDeserialize(t *testing.T) {
	tr, rt := newPair(t, Config{Depth: 3, MaxChangeLog: 4})
	for i := 0; i < 5; i++ {
		tr.Append(testLeaf(i))
		rt.Append(testLeaf(i))
	}
	pr, _ := rt.ProveLeaf(2)
	if err := tr.SetLeaf(HashFromString("churn"), pr, tr.Root()); err != nil {
		t.Fatal(err)
	}
	rt.SetLeaf(2, HashFromString("churn"))

	var buf bytes.Buffer
	if err := tr.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != tr.SerializeSize() {
		t.Fatalf("wrote %d bytes, SerializeSize says %d",
			buf.Len(), tr.SerializeSize())
	}
	before := make([]byte, buf.Len())
	copy(before, buf.Bytes())

	back, err := DeserializeTree(bytes.NewReader(before))
	if err != nil {
		t.Fatal(err)
	}
	if back.Root() != tr.Root() || back.Seq() != tr.Seq() ||
		back.NumLeaves() != tr.NumLeaves() {
		t.Fatal("round trip mangled tree state")
	}

	var buf2 bytes.Buffer
	if err := back.Serialize(&buf2); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, buf2.Bytes()) {
		t.Fatal("serialized bytes differ after round trip")
	}

	// the restored tree keeps working, including fast-forwards across
	// the restore boundary
	stale, _ := rt.ProveLeaf(0)
	staleRoot := tr.Root()

	next := testLeaf(50)
	if err := tr.Append(next); err != nil {
		t.Fatal(err)
	}
	if err := back.Append(next); err != nil {
		t.Fatal(err)
	}
	rt.Append(next)
	if back.Root() != tr.Root() || back.Root() != rt.Root() {
		t.Fatal("restored tree diverged on append")
	}

	over := HashFromString("post restore")
	if err := tr.SetLeaf(over, stale, staleRoot); err != nil {
		t.Fatal(err)
	}
	if err := back.SetLeaf(over, stale, staleRoot); err != nil {
		t.Fatalf("restored tree rejected a stale proof it should patch: %v", err)
	}
	rt.SetLeaf(0, over)
	if back.Root() != tr.Root() || back.Root() != rt.Root() {
		t.Fatal("restored tree diverged on stale overwrite")
	}
}

func TestRefTreeSerializeDeserialize(t *testing.T) {
	rt, err := NewRefTree(Config{Depth: 4})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 11; i++ {
		if err := rt.Append(testLeaf(i)); err != nil {
			t.Fatal(err)
		}
	}
	// a burned slot has to survive the round trip too
	if err := rt.SetLeaf(4, Hash{}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := rt.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != rt.SerializeSize() {
		t.Fatalf("wrote %d bytes, SerializeSize says %d",
			buf.Len(), rt.SerializeSize())
	}

	back, err := DeserializeRefTree(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if back.Root() != rt.Root() || back.NumLeaves() != rt.NumLeaves() {
		t.Fatal("round trip mangled ref tree state")
	}
	leaf, err := back.Leaf(4)
	if err != nil {
		t.Fatal(err)
	}
	if leaf != (Hash{}) {
		t.Fatal("burned slot came back non empty")
	}
	for i := uint64(0); i < rt.NumLeaves(); i++ {
		pr, err := back.ProveLeaf(i)
		if err != nil {
			t.Fatal(err)
		}
		want, err := rt.ProveLeaf(i)
		if err != nil {
			t.Fatal(err)
		}
		if pr.Leaf != want.Leaf || !back.Verify(pr) {
			t.Fatalf("restored proof for slot %d is wrong", i)
		}
	}

	// restored tree keeps appending in step with the original
	if err := rt.Append(testLeaf(30)); err != nil {
		t.Fatal(err)
	}
	if err := back.Append(testLeaf(30)); err != nil {
		t.Fatal(err)
	}
	if back.Root() != rt.Root() {
		t.Fatal("restored ref tree diverged on append")
	}
}

func TestDeserializeTreeCorrupt(t *testing.T) {
	tr, _ := newPair(t, Config{Depth: 3})
	tr.Append(testLeaf(0))

	var buf bytes.Buffer
	if err := tr.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	good := buf.Bytes()

	// bad version byte
	bad := make([]byte, len(good))
	copy(bad, good)
	bad[0] = 0xff
	if _, err := DeserializeTree(bytes.NewReader(bad)); !errors.Is(err, ErrCorruptState) {
		t.Fatalf("bad version gave %v", err)
	}

	// unknown hasher id
	copy(bad, good)
	bad[1] = 0xee
	if _, err := DeserializeTree(bytes.NewReader(bad)); !errors.Is(err, ErrUnknownHasher) {
		t.Fatalf("unknown hasher gave %v", err)
	}

	// truncated stream
	if _, err := DeserializeTree(bytes.NewReader(good[:len(good)-10])); err == nil {
		t.Fatal("truncated stream deserialized")
	}

	// root that doesn't match the newest entry
	copy(bad, good)
	// root sits after version, hasher, depth, ring cap, sentinel, seq,
	// rightmost: 1+1+1+2+32+8+8 = 53
	bad[53] ^= 0x01
	if _, err := DeserializeTree(bytes.NewReader(bad)); !errors.Is(err, ErrCorruptState) {
		t.Fatalf("flipped root gave %v", err)
	}
}
