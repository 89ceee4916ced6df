package tree

// ChangeEvent describes one applied mutation.  Seq starts at 1 and
// increments by exactly one per mutation; an observer seeing a gap has
// lost events and can't trust its state anymore.  For appends PrevLeaf
// is the empty sentinel.
type ChangeEvent struct {
	Seq       uint64
	LeafIndex uint64
	PrevLeaf  Hash
	NewLeaf   Hash
	NewRoot   Hash
}

// EventSink receives change events as mutations commit.  Emit is
// called after the tree state is updated; an Emit error surfaces to
// the mutating caller but does not roll the mutation back.
type EventSink interface {
	Emit(ev ChangeEvent) error
}

// SinkFunc adapts a plain function to the EventSink interface.
type SinkFunc func(ChangeEvent) error

// Emit calls f(ev).
func (f SinkFunc) Emit(ev ChangeEvent) error {
	return f(ev)
}
