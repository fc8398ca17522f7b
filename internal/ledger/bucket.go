package ledger

import "github.com/eigerco/hourglass/internal/ledgertime"

// Bucket aggregates the value an account minted, or received with a
// preserved stamp, during one slot. An account's buckets are held
// sorted ascending by slot, so every scan runs oldest first.
type Bucket struct {
	Slot   ledgertime.Slot
	Amount uint64
}
