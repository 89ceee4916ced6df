package tree

import (
	"errors"
	"fmt"
)

var (
	ErrProofLen       = errors.New("Wrong proof length")
	ErrLeafOutOfRange = errors.New("Leaf index out of range")
	ErrTreeFull       = errors.New("Tree is full")
	ErrStaleProof     = errors.New("Proof root not found in changelog window")
	ErrConflict       = errors.New("Conflicting write to the same leaf")
	ErrInvalidProof   = errors.New("Invalid proof")
	ErrEmptyLeaf      = errors.New("Can't append the empty sentinel leaf")
	ErrBadConfig      = errors.New("Bad tree config")
	ErrCorruptState   = errors.New("Corrupt serialized tree")
	ErrUnknownHasher  = errors.New("Unknown hasher")
	ErrEmit           = errors.New("Event sink failed")
)

func errProofLen(got int, want uint8) error {
	return fmt.Errorf("%w: got %d siblings, want %d", ErrProofLen, got, want)
}

func errLeafOutOfRange(index, limit uint64) error {
	return fmt.Errorf("%w: index %d, limit %d", ErrLeafOutOfRange, index, limit)
}

func errTreeFull(capacity uint64) error {
	return fmt.Errorf("%w: all %d slots appended", ErrTreeFull, capacity)
}

func errStaleProof(root Hash) error {
	return fmt.Errorf("%w: root %x", ErrStaleProof, root.Prefix())
}

func errConflict(index uint64, want, got Hash) error {
	return fmt.Errorf("%w: leaf %d is %x, caller claims %x",
		ErrConflict, index, got.Prefix(), want.Prefix())
}

func errInvalidProof(got, want Hash) error {
	return fmt.Errorf("%w: computed root %x, live root %x",
		ErrInvalidProof, got.Prefix(), want.Prefix())
}

func errBadConfig(detail string) error {
	return fmt.Errorf("%w: %s", ErrBadConfig, detail)
}

func errCorruptState(detail string) error {
	return fmt.Errorf("%w: %s", ErrCorruptState, detail)
}

func errUnknownHasher(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownHasher, name)
}

func errEmit(err error) error {
	return fmt.Errorf("%w: %v", ErrEmit, err)
}
