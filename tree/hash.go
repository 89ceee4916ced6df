package tree

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is the 32 bytes of a node or leaf value
type Hash [32]byte

// Prefix for printfs
func (h Hash) Prefix() []byte {
	return h[:4]
}

// String returns the full hash in hex
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromString takes a string and hashes with sha256
func HashFromString(s string) Hash {
	return sha256.Sum256([]byte(s))
}

// empty is what an unset Hash looks like; used all over for detection
var empty Hash
