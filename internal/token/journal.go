package token

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
)

// Op identifies the kind of a journal entry.
type Op uint8

const (
	OpMint Op = iota + 1
	OpBurn
	OpTransfer
)

func (o Op) String() string {
	switch o {
	case OpMint:
		return "mint"
	case OpBurn:
		return "burn"
	case OpTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Entry records one applied operation. The id is a ULID, so entries
// sort by creation time. From is zero on mints, To is zero on burns.
type Entry struct {
	ID     ulid.ULID
	Op     Op
	From   ledger.Address
	To     ledger.Address
	Amount uint64
	Slot   ledgertime.Slot
	Tick   ledgertime.Tick
}

// Journal receives one entry per applied operation.
type Journal interface {
	Append(Entry) error
}

// NewEntryID returns a fresh time-ordered entry id.
func NewEntryID() ulid.ULID {
	return ulid.Make()
}
