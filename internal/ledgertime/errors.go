package ledgertime

import "errors"

var (
	// ErrZeroUnitDuration is returned when a window is configured with no
	// ticks per slot; slot arithmetic would divide by zero.
	ErrZeroUnitDuration = errors.New("unit duration must be at least one tick")

	// ErrZeroSlotsPerEra is returned when a window is configured with
	// empty eras; the era decomposition would divide by zero.
	ErrZeroSlotsPerEra = errors.New("slots per era must be at least one")

	// ErrZeroValidityWindow is returned when a window is configured with a
	// zero-width validity window, under which every batch would be born
	// expired.
	ErrZeroValidityWindow = errors.New("validity window must span at least one slot")
)
