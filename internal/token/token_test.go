package token

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
)

const slotTicks = uint64(ledgertime.DefaultUnitDuration)

func addrOf(b byte) ledger.Address {
	var a ledger.Address
	a[ledger.AddressSize-1] = b
	return a
}

func newTestToken(t *testing.T, opts ...Option) (*Token, *ManualClock) {
	t.Helper()
	l, err := ledger.New(ledgertime.DefaultWindow())
	require.NoError(t, err, "failed to construct ledger")
	clock := NewManualClock(0)
	tok, err := New(l, clock, opts...)
	require.NoError(t, err, "failed to construct token")
	return tok, clock
}

type recorderJournal struct {
	entries []Entry
}

func (r *recorderJournal) Append(e Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

type failingJournal struct {
	err error
}

func (f failingJournal) Append(Entry) error {
	return f.err
}

func TestNewRequiresLedgerAndClock(t *testing.T) {
	l, err := ledger.New(ledgertime.DefaultWindow())
	require.NoError(t, err)

	_, err = New(nil, NewManualClock(0))
	require.Error(t, err, "nil ledger should be refused")

	_, err = New(l, nil)
	require.Error(t, err, "nil clock should be refused")
}

func TestZeroAddressGuards(t *testing.T) {
	tok, _ := newTestToken(t, WithAllowances(NewMapAllowances()))
	alice := addrOf(1)

	require.ErrorIs(t, tok.Mint(ledger.ZeroAddress, 1), ErrInvalidReceiver)
	require.ErrorIs(t, tok.Burn(ledger.ZeroAddress, 1), ErrInvalidSender)
	require.ErrorIs(t, tok.Transfer(ledger.ZeroAddress, alice, 1), ErrInvalidSender)
	require.ErrorIs(t, tok.Transfer(alice, ledger.ZeroAddress, 1), ErrInvalidReceiver)
	require.ErrorIs(t, tok.TransferFrom(ledger.ZeroAddress, alice, alice, 1), ErrInvalidSender)
	require.ErrorIs(t, tok.TransferFrom(alice, ledger.ZeroAddress, alice, 1), ErrInvalidSender)
	require.ErrorIs(t, tok.TransferFrom(alice, alice, ledger.ZeroAddress, 1), ErrInvalidReceiver)
}

func TestBalanceFollowsClock(t *testing.T) {
	tok, clock := newTestToken(t)
	alice := addrOf(1)

	require.NoError(t, tok.Mint(alice, 10))
	require.Equal(t, uint64(10), tok.BalanceOf(alice))
	require.Equal(t, uint64(10), tok.TotalSupply())

	// Two slots later the batch is expired but still recorded.
	clock.Advance(2 * slotTicks)
	require.Equal(t, uint64(0), tok.BalanceOf(alice))
	require.Equal(t, uint64(10), tok.RawBalanceOf(alice))
	require.Equal(t, uint64(0), tok.TotalSupply())
	require.Equal(t, uint64(10), tok.TotalRawSupply())
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(5)
	require.Equal(t, ledgertime.Tick(5), c.Ticks())

	c.Set(100)
	require.Equal(t, ledgertime.Tick(100), c.Ticks())

	c.Advance(20)
	require.Equal(t, ledgertime.Tick(120), c.Ticks())
}

func TestWallClockMapsElapsedTime(t *testing.T) {
	origin := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	restore := now
	defer func() { now = restore }()

	c, err := NewWallClock(origin, time.Second)
	require.NoError(t, err)

	now = func() time.Time { return origin.Add(2500 * time.Millisecond) }
	require.Equal(t, ledgertime.Tick(2), c.Ticks(), "partial intervals round down")

	now = func() time.Time { return origin.Add(-time.Hour) }
	require.Equal(t, ledgertime.Tick(0), c.Ticks(), "pre-origin instants clamp to zero")

	_, err = NewWallClock(origin, 0)
	require.ErrorIs(t, err, ErrInvalidTickDuration)
}

func TestTransferFromAllowanceLifecycle(t *testing.T) {
	allowances := NewMapAllowances()
	tok, _ := newTestToken(t, WithAllowances(allowances))
	alice := addrOf(1)
	bob := addrOf(2)
	carol := addrOf(3)

	require.NoError(t, tok.Mint(alice, 20))
	allowances.Approve(alice, carol, 10)

	require.NoError(t, tok.TransferFrom(carol, alice, bob, 7))
	require.Equal(t, uint64(7), tok.BalanceOf(bob))
	require.Equal(t, uint64(13), tok.BalanceOf(alice))
	require.Equal(t, uint64(3), allowances.Allowance(alice, carol))

	err := tok.TransferFrom(carol, alice, bob, 4)
	require.ErrorIs(t, err, ErrInsufficientAllowance)
	require.Equal(t, uint64(7), tok.BalanceOf(bob), "refused transfer should not move value")
}

func TestTransferFromWithoutStore(t *testing.T) {
	tok, _ := newTestToken(t)
	alice := addrOf(1)
	bob := addrOf(2)

	require.ErrorIs(t, tok.TransferFrom(bob, alice, bob, 1), ErrNoAllowanceStore)
}

func TestTransferFromRefundsOnFailedTransfer(t *testing.T) {
	allowances := NewMapAllowances()
	tok, _ := newTestToken(t, WithAllowances(allowances))
	alice := addrOf(1)
	bob := addrOf(2)
	carol := addrOf(3)

	// Grant covers the request but alice has nothing to move.
	allowances.Approve(alice, carol, 10)

	err := tok.TransferFrom(carol, alice, bob, 5)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	require.Equal(t, uint64(10), allowances.Allowance(alice, carol), "failed transfer must restore the grant")
}

func TestJournalRecordsOperations(t *testing.T) {
	journal := &recorderJournal{}
	tok, clock := newTestToken(t, WithJournal(journal))
	alice := addrOf(1)
	bob := addrOf(2)

	clock.Set(ledgertime.Tick(slotTicks + 37))
	require.NoError(t, tok.Mint(alice, 10))
	require.NoError(t, tok.Burn(alice, 3))
	require.NoError(t, tok.Transfer(alice, bob, 2))

	require.Len(t, journal.entries, 3)

	mint := journal.entries[0]
	require.Equal(t, OpMint, mint.Op)
	require.Equal(t, ledger.ZeroAddress, mint.From)
	require.Equal(t, alice, mint.To)
	require.Equal(t, uint64(10), mint.Amount)
	require.Equal(t, ledgertime.Slot(1), mint.Slot)
	require.Equal(t, ledgertime.Tick(slotTicks+37), mint.Tick)

	burn := journal.entries[1]
	require.Equal(t, OpBurn, burn.Op)
	require.Equal(t, alice, burn.From)
	require.Equal(t, ledger.ZeroAddress, burn.To)

	transfer := journal.entries[2]
	require.Equal(t, OpTransfer, transfer.Op)
	require.Equal(t, alice, transfer.From)
	require.Equal(t, bob, transfer.To)

	// ULIDs order by creation.
	require.Negative(t, mint.ID.Compare(burn.ID))
	require.Negative(t, burn.ID.Compare(transfer.ID))
}

func TestJournalFailureSurfaces(t *testing.T) {
	boom := errors.New("disk gone")
	tok, _ := newTestToken(t, WithJournal(failingJournal{err: boom}))
	alice := addrOf(1)

	err := tok.Mint(alice, 10)
	require.ErrorIs(t, err, boom)
	require.Equal(t, uint64(10), tok.BalanceOf(alice), "the mint itself stands")
}

func TestZeroAmountOpsSkipJournal(t *testing.T) {
	journal := &recorderJournal{}
	tok, _ := newTestToken(t, WithJournal(journal), WithAllowances(NewMapAllowances()))
	alice := addrOf(1)
	bob := addrOf(2)

	require.NoError(t, tok.Mint(alice, 0))
	require.NoError(t, tok.Burn(alice, 0))
	require.NoError(t, tok.Transfer(alice, bob, 0))
	require.NoError(t, tok.TransferFrom(bob, alice, bob, 0))
	require.Empty(t, journal.entries)
}

func TestQueryExtensions(t *testing.T) {
	tok, clock := newTestToken(t)
	alice := addrOf(1)

	require.Equal(t, uint64(4), tok.EpochLength())
	require.Equal(t, uint64(2), tok.ValidityDuration())

	clock.Set(ledgertime.Tick(2*slotTicks + 37))
	era, slot := tok.CurrentEraAndSlot()
	require.Equal(t, ledgertime.Era(0), era)
	require.Equal(t, uint64(2), slot)

	clock.Set(ledgertime.Tick(5 * slotTicks))
	era, slot = tok.CurrentEraAndSlot()
	require.Equal(t, ledgertime.Era(1), era)
	require.Equal(t, uint64(1), slot)

	require.NoError(t, tok.Mint(alice, 10))
	require.Equal(t, uint64(10), tok.BalanceOfAtEpoch(1, alice))
	require.Equal(t, uint64(0), tok.BalanceOfAtEpoch(0, alice))

	// Era 0 ends at slot 3; its last batch would expire entering slot 5.
	clock.Set(ledgertime.Tick(4 * slotTicks))
	require.False(t, tok.IsEpochExpired(0))
	clock.Set(ledgertime.Tick(5 * slotTicks))
	require.True(t, tok.IsEpochExpired(0))
}

func TestLedgerAccessor(t *testing.T) {
	tok, clock := newTestToken(t)
	alice := addrOf(1)

	require.NoError(t, tok.Mint(alice, 5))
	require.Equal(t, uint64(5), tok.Ledger().BalanceAt(alice, clock.Ticks()))
}
