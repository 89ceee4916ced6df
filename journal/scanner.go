package journal

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mit-dci/cmtree/tree"
	"github.com/mit-dci/cmtree/wire"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	dbutil "github.com/syndtr/goleveldb/leveldb/util"
)

// Scanner walks journaled events oldest to newest, enforcing
// contiguity as it goes.  Use it like bufio.Scanner:
//
//	s := j.NewScanner(1)
//	defer s.Close()
//	for s.Scan() {
//		apply(s.Event())
//	}
//	if s.Err() != nil {
//		// journal broken mid scan
//	}
type Scanner struct {
	iter iterator.Iterator
	next uint64
	ev   tree.ChangeEvent
	err  error
}

// NewScanner starts a scan at sequence number from; 0 also means the
// start.  The scanner holds a db iterator, so Close it when done.
func (j *Journal) NewScanner(from uint64) *Scanner {
	if from == 0 {
		from = 1
	}
	rng := &dbutil.Range{
		Start: eventKey(from),
		Limit: dbutil.BytesPrefix(eventPrefix).Limit,
	}
	return &Scanner{iter: j.lvdb.NewIterator(rng, nil), next: from}
}

// Scan moves to the next event.  False means the scan is over; check
// Err to tell a clean end from a broken journal.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.iter.Next() {
		s.err = s.iter.Error()
		return false
	}
	key := s.iter.Key()
	if len(key) != 9 {
		s.err = errJournalCorrupt(fmt.Sprintf("event key %x", key))
		return false
	}
	keySeq := binary.BigEndian.Uint64(key[1:])
	if keySeq != s.next {
		s.err = errJournalGap(keySeq, s.next)
		return false
	}
	var m wire.MsgChange
	if err := m.Deserialize(bytes.NewReader(s.iter.Value())); err != nil {
		s.err = errJournalCorrupt(fmt.Sprintf("seq %d: %s", keySeq, err))
		return false
	}
	if m.Seq != keySeq {
		s.err = errJournalCorrupt(fmt.Sprintf(
			"key seq %d holds event seq %d", keySeq, m.Seq))
		return false
	}
	s.ev = m.Event()
	s.next++
	return true
}

// Event is the event Scan just landed on.
func (s *Scanner) Event() tree.ChangeEvent {
	return s.ev
}

// Err reports what stopped the scan, nil for a clean end.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the underlying iterator.
func (s *Scanner) Close() {
	s.iter.Release()
}
