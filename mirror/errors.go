package mirror

import (
	"errors"
	"fmt"
)

var (
	ErrDesync      = errors.New("Event sequence gap, mirror desynced")
	ErrDiverged    = errors.New("Mirror state diverged from the authority")
	ErrBadSnapshot = errors.New("Bad mirror snapshot")
)

func errDesync(got, want uint64) error {
	return fmt.Errorf("%w: got seq %d, want %d", ErrDesync, got, want)
}

func errDiverged(detail string) error {
	return fmt.Errorf("%w: %s", ErrDiverged, detail)
}

func errBadSnapshot(detail string) error {
	return fmt.Errorf("%w: %s", ErrBadSnapshot, detail)
}
