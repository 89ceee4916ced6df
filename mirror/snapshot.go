package mirror

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mit-dci/cmtree/common"
	"github.com/mit-dci/cmtree/tree"
)

// mirrorSnapVersion is the snapshot layout version.
const mirrorSnapVersion = 1

// Snapshot writes the mirror state so another observer can pick up
// from here.  A frozen mirror refuses; snapshotting known bad state
// just spreads it around.
func (m *Mirror) Snapshot(w io.Writer) error {
	if m.broken != nil {
		return m.broken
	}
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	err := freeBytes.PutUint8(w, mirrorSnapVersion)
	if err != nil {
		return err
	}
	err = freeBytes.PutUint64(w, binary.BigEndian, m.nextSeq)
	if err != nil {
		return err
	}
	return m.ref.Serialize(w)
}

// RestoreMirror rebuilds a mirror from Snapshot output.  This is also
// the only way back after a desync: fetch a snapshot taken past the
// gap from a trusted observer and resume from there.
func RestoreMirror(r io.Reader) (*Mirror, error) {
	freeBytes := common.NewFreeBytes()
	defer freeBytes.Free()

	version, err := freeBytes.Uint8(r)
	if err != nil {
		return nil, err
	}
	if version != mirrorSnapVersion {
		return nil, errBadSnapshot(fmt.Sprintf(
			"version %d, know %d", version, mirrorSnapVersion))
	}
	nextSeq, err := freeBytes.Uint64(r, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	if nextSeq == 0 {
		return nil, errBadSnapshot("zero next seq")
	}
	ref, err := tree.DeserializeRefTree(r)
	if err != nil {
		return nil, err
	}
	log.Debugf("restored mirror at seq %d, %d leaves",
		nextSeq, ref.NumLeaves())
	return &Mirror{ref: ref, nextSeq: nextSeq}, nil
}
