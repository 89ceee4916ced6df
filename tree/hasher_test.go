package tree

import (
	"errors"
	"testing"
)

func TestHasherRegistry(t *testing.T) {
	names := []string{"sha512_256", "sha256", "blake2b_256", "blake3_256"}
	ids := []uint8{0, 1, 2, 3}

	for i, name := range names {
		h, err := LookupHasher(name)
		if err != nil {
			t.Fatalf("LookupHasher(%s): %v", name, err)
		}
		if h.Name() != name || h.ID() != ids[i] {
			t.Fatalf("%s registered with wrong identity (%s, %d)",
				name, h.Name(), h.ID())
		}
		byID, err := HasherByID(ids[i])
		if err != nil {
			t.Fatalf("HasherByID(%d): %v", ids[i], err)
		}
		if byID.Name() != name {
			t.Fatalf("id %d resolves to %s, want %s",
				ids[i], byID.Name(), name)
		}
	}

	if _, err := LookupHasher("md5"); !errors.Is(err, ErrUnknownHasher) {
		t.Fatalf("unknown name gave %v", err)
	}
	if _, err := HasherByID(200); !errors.Is(err, ErrUnknownHasher) {
		t.Fatalf("unknown id gave %v", err)
	}
}

func TestHashersDisagree(t *testing.T) {
	l, r := HashFromString("left"), HashFromString("right")
	seen := make(map[Hash]string)
	for name := range hashersByName {
		h, _ := LookupHasher(name)
		p := h.Parent(l, r)
		if prev, ok := seen[p]; ok {
			t.Fatalf("%s and %s produced the same parent", name, prev)
		}
		seen[p] = name
	}
}

func TestTreePerHasher(t *testing.T) {
	for name := range hashersByName {
		cfg := Config{Depth: 3, Hasher: name}
		tr, rt := newPair(t, cfg)
		for i := 0; i < 6; i++ {
			if err := tr.Append(testLeaf(i)); err != nil {
				t.Fatalf("%s: append %d: %v", name, i, err)
			}
			rt.Append(testLeaf(i))
		}
		pr, _ := rt.ProveLeaf(3)
		if err := tr.SetLeaf(HashFromString(name), pr, tr.Root()); err != nil {
			t.Fatalf("%s: set: %v", name, err)
		}
		rt.SetLeaf(3, HashFromString(name))
		if tr.Root() != rt.Root() {
			t.Fatalf("%s: roots diverged", name)
		}
	}
}
