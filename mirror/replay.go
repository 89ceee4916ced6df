package mirror

import (
	"github.com/mit-dci/cmtree/journal"
)

// CatchUp replays journaled events from the mirror's next expected
// sequence number through the end of the journal.  A hole in the
// journal surfaces as the scanner's error; the mirror stays healthy
// at wherever it got to, so the caller can retry against a better
// event source.
func (m *Mirror) CatchUp(j *journal.Journal) error {
	if m.broken != nil {
		return m.broken
	}
	s := j.NewScanner(m.nextSeq)
	defer s.Close()

	var n int
	for s.Scan() {
		if err := m.Apply(s.Event()); err != nil {
			return err
		}
		n++
	}
	if err := s.Err(); err != nil {
		return err
	}
	log.Debugf("caught up %d events, expecting seq %d", n, m.nextSeq)
	return nil
}

// ReplayJournal builds a fresh mirror for the journal's tree and
// replays the whole thing into it.
func ReplayJournal(j *journal.Journal) (*Mirror, error) {
	cfg, err := j.Config()
	if err != nil {
		return nil, err
	}
	m, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := m.CatchUp(j); err != nil {
		return nil, err
	}
	return m, nil
}
