package tree

import "fmt"

const (
	// MaxDepth caps tree depth so leaf indexes always fit a uint32 on
	// the wire.
	MaxDepth = 32

	// DefaultMaxChangeLog is the ring size used when a Config doesn't
	// set one.  Proofs fetched more than this many mutations ago can't
	// be patched and have to be refetched.
	DefaultMaxChangeLog = 64
)

// Config parameterizes a Tree or RefTree.  The zero value is not
// usable; Depth has to be set.
type Config struct {
	// Depth is the fixed tree depth, 1 through MaxDepth.  Capacity is
	// 2**Depth slots.
	Depth uint8

	// MaxChangeLog is how many recent mutations stay patchable.
	// 0 means DefaultMaxChangeLog.
	MaxChangeLog uint16

	// EmptyLeaf is the sentinel an unset slot reads as.  Usually left
	// all zero.
	EmptyLeaf Hash

	// Hasher names a registered hasher.  "" means DefaultHasher.
	Hasher string
}

// validate fills in defaults and resolves the hasher.
func (c *Config) validate() (Hasher, error) {
	if c.Depth < 1 || c.Depth > MaxDepth {
		return nil, errBadConfig(fmt.Sprintf(
			"depth %d outside 1..%d", c.Depth, MaxDepth))
	}
	if c.MaxChangeLog == 0 {
		c.MaxChangeLog = DefaultMaxChangeLog
	}
	if c.Hasher == "" {
		c.Hasher = DefaultHasher
	}
	return LookupHasher(c.Hasher)
}
