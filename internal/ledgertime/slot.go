package ledgertime

import (
	"math"
)

// Slot is the flat monotonic index of a minting window. Every tick belongs
// to exactly one slot; all units minted while a slot is current share its
// expiry horizon.
type Slot uint64

// MaxSlot is the last representable slot. Arithmetic that would pass it
// saturates rather than wrapping.
const MaxSlot Slot = math.MaxUint64

// Next returns the following slot, staying at MaxSlot once reached.
func (s Slot) Next() Slot {
	if s == MaxSlot {
		return s
	}
	return s + 1
}

// Prev returns the preceding slot, staying at zero once reached.
func (s Slot) Prev() Slot {
	if s == 0 {
		return s
	}
	return s - 1
}

// Add returns s advanced by n slots, saturating at MaxSlot.
func (s Slot) Add(n uint64) Slot {
	if uint64(s) > math.MaxUint64-n {
		return MaxSlot
	}
	return s + Slot(n)
}
