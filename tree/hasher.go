package tree

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/mit-dci/cmtree/common"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Hasher turns two children into a parent node.  Implementations are
// registered by name for config lookup and by a one byte id that goes
// into serialized state, so ids are forever.
type Hasher interface {
	// Name is the config string for this hasher
	Name() string

	// ID is the single byte written into serialized trees
	ID() uint8

	// Parent gives you the merkle parent of two children hashes
	Parent(l, r Hash) Hash

	// Digest hashes arbitrary bytes down to a Hash
	Digest(data []byte) Hash
}

// DefaultHasher is used when a Config doesn't name one.
const DefaultHasher = "sha512_256"

var (
	hashersByName = make(map[string]Hasher)
	hashersByID   = make(map[uint8]Hasher)
)

// RegisterHasher makes a hasher available to LookupHasher and
// HasherByID.  Registering a duplicate name or id is a programming
// error and panics.
func RegisterHasher(h Hasher) {
	if _, ok := hashersByName[h.Name()]; ok {
		panic("hasher " + h.Name() + " registered twice")
	}
	if _, ok := hashersByID[h.ID()]; ok {
		panic(fmt.Sprintf("hasher id %d registered twice", h.ID()))
	}
	hashersByName[h.Name()] = h
	hashersByID[h.ID()] = h
}

// LookupHasher finds a registered hasher by its config name.
func LookupHasher(name string) (Hasher, error) {
	h, ok := hashersByName[name]
	if !ok {
		return nil, errUnknownHasher(name)
	}
	return h, nil
}

// HasherByID finds a registered hasher by its serialized id.
func HasherByID(id uint8) (Hasher, error) {
	h, ok := hashersByID[id]
	if !ok {
		return nil, errUnknownHasher(fmt.Sprintf("id %d", id))
	}
	return h, nil
}

func init() {
	RegisterHasher(sha512t256Hasher{})
	RegisterHasher(sha256Hasher{})
	RegisterHasher(blake2b256Hasher{})
	RegisterHasher(blake3256Hasher{})
}

// concat glues two hashes into a pooled 64 byte buffer and runs sum
// over it.  All the hashers share this; only sum differs.
func concat(l, r Hash, sum func([]byte) Hash) Hash {
	buf := common.NewFreeBytes()
	defer buf.Free()
	buf.Bytes = append(buf.Bytes, l[:]...)
	buf.Bytes = append(buf.Bytes, r[:]...)
	return sum(buf.Bytes)
}

type sha512t256Hasher struct{}

func (sha512t256Hasher) Name() string { return "sha512_256" }
func (sha512t256Hasher) ID() uint8    { return 0 }
func (sha512t256Hasher) Parent(l, r Hash) Hash {
	return concat(l, r, func(b []byte) Hash { return sha512.Sum512_256(b) })
}
func (sha512t256Hasher) Digest(data []byte) Hash {
	return sha512.Sum512_256(data)
}

type sha256Hasher struct{}

func (sha256Hasher) Name() string { return "sha256" }
func (sha256Hasher) ID() uint8    { return 1 }
func (sha256Hasher) Parent(l, r Hash) Hash {
	return concat(l, r, func(b []byte) Hash { return sha256.Sum256(b) })
}
func (sha256Hasher) Digest(data []byte) Hash {
	return sha256.Sum256(data)
}

type blake2b256Hasher struct{}

func (blake2b256Hasher) Name() string { return "blake2b_256" }
func (blake2b256Hasher) ID() uint8    { return 2 }
func (blake2b256Hasher) Parent(l, r Hash) Hash {
	return concat(l, r, func(b []byte) Hash { return blake2b.Sum256(b) })
}
func (blake2b256Hasher) Digest(data []byte) Hash {
	return blake2b.Sum256(data)
}

type blake3256Hasher struct{}

func (blake3256Hasher) Name() string { return "blake3_256" }
func (blake3256Hasher) ID() uint8    { return 3 }
func (blake3256Hasher) Parent(l, r Hash) Hash {
	return concat(l, r, func(b []byte) Hash { return blake3.Sum256(b) })
}
func (blake3256Hasher) Digest(data []byte) Hash {
	return blake3.Sum256(data)
}
