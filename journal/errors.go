package journal

import (
	"errors"
	"fmt"
)

var (
	ErrJournalGap     = errors.New("Event sequence gap")
	ErrJournalCorrupt = errors.New("Corrupt journal record")
	ErrWrongJournal   = errors.New("Journal belongs to a different tree")
	ErrNoEvent        = errors.New("Event not in journal")
	ErrBadConfig      = errors.New("Bad journal config")
)

func errJournalGap(got, want uint64) error {
	return fmt.Errorf("%w: got seq %d, want %d", ErrJournalGap, got, want)
}

func errJournalCorrupt(detail string) error {
	return fmt.Errorf("%w: %s", ErrJournalCorrupt, detail)
}

func errWrongJournal(detail string) error {
	return fmt.Errorf("%w: %s", ErrWrongJournal, detail)
}

func errNoEvent(seq uint64) error {
	return fmt.Errorf("%w: seq %d", ErrNoEvent, seq)
}

func errBadConfig(detail string) error {
	return fmt.Errorf("%w: %s", ErrBadConfig, detail)
}
