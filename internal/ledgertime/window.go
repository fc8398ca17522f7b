// Package ledgertime defines the window coordinate system of the expiring
// ledger: external time arrives as an opaque Tick (block height or timestamp
// units), ticks are binned into Slots, and a configured number of consecutive
// slots forms the validity window inside which minted units stay spendable.
// Eras exist only as a display decomposition of the flat slot index.
package ledgertime

import (
	"fmt"
	"math"
)

// Tick is an absolute point on the external time axis. The ledger never
// reads a clock itself; every operation receives its tick from the caller.
type Tick uint64

// Window is the immutable time configuration of a ledger instance.
// All three fields must be non-zero; Validate rejects anything else.
type Window struct {
	// UnitDuration is the number of ticks that make up one slot.
	UnitDuration Tick

	// SlotsPerEra is the number of slots composing one era. Eras carry no
	// expiry semantics of their own.
	SlotsPerEra uint64

	// ValiditySlots is the number of consecutive slots, counted from the
	// minting slot, during which a minted batch remains spendable.
	ValiditySlots uint64
}

// Validate reports whether the window configuration is usable.
func (w Window) Validate() error {
	if w.UnitDuration == 0 {
		return ErrZeroUnitDuration
	}
	if w.SlotsPerEra == 0 {
		return ErrZeroSlotsPerEra
	}
	if w.ValiditySlots == 0 {
		return ErrZeroValidityWindow
	}
	return nil
}

// SlotAt converts a tick to the slot containing it.
func (w Window) SlotAt(t Tick) Slot {
	return Slot(uint64(t) / uint64(w.UnitDuration))
}

// SlotStart returns the first tick of the given slot, saturating at the
// largest representable tick.
func (w Window) SlotStart(s Slot) Tick {
	if uint64(s) > math.MaxUint64/uint64(w.UnitDuration) {
		return Tick(math.MaxUint64)
	}
	return Tick(uint64(s) * uint64(w.UnitDuration))
}

// ExpirySlot returns the first slot in which a batch minted at mintSlot is
// no longer spendable. The addition saturates at MaxSlot: a batch whose
// horizon would pass the representable range simply never expires.
func (w Window) ExpirySlot(mintSlot Slot) Slot {
	return mintSlot.Add(w.ValiditySlots)
}

// IsExpired reports whether a batch minted at mintSlot is expired at tick t.
// The comparison is strict >= on slot indexes, never on raw ticks, so a
// batch minted in the current slot is always live.
func (w Window) IsExpired(mintSlot Slot, t Tick) bool {
	return w.SlotAt(t) >= w.ExpirySlot(mintSlot)
}

// LiveFloor returns the oldest mint slot that is still live when current is
// the present slot, saturating at zero.
func (w Window) LiveFloor(current Slot) Slot {
	if uint64(current) < w.ValiditySlots {
		return 0
	}
	return current - Slot(w.ValiditySlots) + 1
}

// ValidityTicks returns the width of the validity window on the tick axis,
// saturating on overflow.
func (w Window) ValidityTicks() Tick {
	if w.ValiditySlots > math.MaxUint64/uint64(w.UnitDuration) {
		return Tick(math.MaxUint64)
	}
	return Tick(w.ValiditySlots * uint64(w.UnitDuration))
}

// EraAndSlot decomposes a tick into its era and the slot number within that
// era. Display convenience only.
func (w Window) EraAndSlot(t Tick) (Era, uint64) {
	s := w.SlotAt(t)
	return w.EraOf(s), w.SlotInEra(s)
}

// EraOf returns the era containing the given slot.
func (w Window) EraOf(s Slot) Era {
	return Era(uint64(s) / w.SlotsPerEra)
}

// SlotInEra returns the slot's offset within its era.
func (w Window) SlotInEra(s Slot) uint64 {
	return uint64(s) % w.SlotsPerEra
}

// EraBounds returns the first and last slot of an era. The bounds saturate
// at MaxSlot for eras past the representable range.
func (w Window) EraBounds(e Era) (first, last Slot) {
	if uint64(e) > math.MaxUint64/w.SlotsPerEra {
		return MaxSlot, MaxSlot
	}
	first = Slot(uint64(e) * w.SlotsPerEra)
	return first, first.Add(w.SlotsPerEra - 1)
}

// String renders the window configuration for logs and error context.
func (w Window) String() string {
	return fmt.Sprintf("window{unit=%d slots/era=%d validity=%d}", w.UnitDuration, w.SlotsPerEra, w.ValiditySlots)
}
