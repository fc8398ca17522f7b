// Package token is the external face of the expiring ledger. It
// supplies ambient time from a TickSource, guards the reserved zero
// address, consults an allowance collaborator on delegated transfers,
// and journals applied operations.
//
// The zero-address convention mirrors the usual fungible-token
// surface: supply enters by minting and leaves by burning, never by
// transferring to or from the zero address.
package token

import (
	"errors"
	"fmt"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
)

// Token wraps a ledger with ambient time and the collaborator hooks.
type Token struct {
	ledger     *ledger.Ledger
	clock      TickSource
	journal    Journal
	allowances AllowanceStore
}

// Option adjusts token construction.
type Option func(*Token)

// WithJournal records every applied operation in j.
func WithJournal(j Journal) Option {
	return func(t *Token) {
		t.journal = j
	}
}

// WithAllowances enables TransferFrom against the given store.
func WithAllowances(a AllowanceStore) Option {
	return func(t *Token) {
		t.allowances = a
	}
}

// New wires the facade around an existing ledger.
func New(l *ledger.Ledger, clock TickSource, opts ...Option) (*Token, error) {
	if l == nil {
		return nil, errors.New("token: nil ledger")
	}
	if clock == nil {
		return nil, errors.New("token: nil tick source")
	}
	t := &Token{ledger: l, clock: clock}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Ledger exposes the wrapped ledger for checkpointing and inspection.
func (t *Token) Ledger() *ledger.Ledger {
	return t.ledger
}

// Mint creates amount for to in the current slot.
func (t *Token) Mint(to ledger.Address, amount uint64) error {
	if to.IsZero() {
		return fmt.Errorf("mint: %w", ErrInvalidReceiver)
	}
	if amount == 0 {
		return nil
	}
	tick := t.clock.Ticks()
	if err := t.ledger.Mint(to, amount, tick); err != nil {
		return err
	}
	return t.record(OpMint, ledger.ZeroAddress, to, amount, tick)
}

// Burn destroys amount out of from's live balance.
func (t *Token) Burn(from ledger.Address, amount uint64) error {
	if from.IsZero() {
		return fmt.Errorf("burn: %w", ErrInvalidSender)
	}
	if amount == 0 {
		return nil
	}
	tick := t.clock.Ticks()
	if err := t.ledger.Burn(from, amount, tick); err != nil {
		return err
	}
	return t.record(OpBurn, from, ledger.ZeroAddress, amount, tick)
}

// Transfer moves amount from one account to another under the ledger's
// stamping policy.
func (t *Token) Transfer(from, to ledger.Address, amount uint64) error {
	if from.IsZero() {
		return fmt.Errorf("transfer: %w", ErrInvalidSender)
	}
	if to.IsZero() {
		return fmt.Errorf("transfer: %w", ErrInvalidReceiver)
	}
	if amount == 0 {
		return nil
	}
	tick := t.clock.Ticks()
	if err := t.ledger.Transfer(from, to, amount, tick); err != nil {
		return err
	}
	return t.record(OpTransfer, from, to, amount, tick)
}

// TransferFrom moves amount out of from on behalf of spender,
// consuming the spender's grant. A transfer that fails to apply
// refunds the grant.
func (t *Token) TransferFrom(spender, from, to ledger.Address, amount uint64) error {
	if spender.IsZero() || from.IsZero() {
		return fmt.Errorf("transfer from: %w", ErrInvalidSender)
	}
	if to.IsZero() {
		return fmt.Errorf("transfer from: %w", ErrInvalidReceiver)
	}
	if t.allowances == nil {
		return fmt.Errorf("transfer from: %w", ErrNoAllowanceStore)
	}
	if amount == 0 {
		return nil
	}
	if err := t.allowances.Use(from, spender, amount); err != nil {
		return fmt.Errorf("transfer from: %w", err)
	}
	tick := t.clock.Ticks()
	if err := t.ledger.Transfer(from, to, amount, tick); err != nil {
		t.allowances.Refund(from, spender, amount)
		return err
	}
	return t.record(OpTransfer, from, to, amount, tick)
}

// BalanceOf returns the spendable balance at the current tick.
func (t *Token) BalanceOf(account ledger.Address) uint64 {
	return t.ledger.BalanceAt(account, t.clock.Ticks())
}

// RawBalanceOf returns the recorded balance, expired batches included.
func (t *Token) RawBalanceOf(account ledger.Address) uint64 {
	return t.ledger.RawBalance(account)
}

// TotalSupply returns the spendable supply at the current tick.
func (t *Token) TotalSupply() uint64 {
	return t.ledger.TotalSpendableAt(t.clock.Ticks())
}

// TotalRawSupply returns the recorded supply, expired batches included.
func (t *Token) TotalRawSupply() uint64 {
	return t.ledger.TotalRaw()
}

// CurrentEraAndSlot returns the display decomposition of the current
// tick.
func (t *Token) CurrentEraAndSlot() (ledgertime.Era, uint64) {
	return t.ledger.Window().EraAndSlot(t.clock.Ticks())
}

// EpochLength returns the number of slots composing one era.
func (t *Token) EpochLength() uint64 {
	return t.ledger.Window().SlotsPerEra
}

// ValidityDuration returns the validity window in slots.
func (t *Token) ValidityDuration() uint64 {
	return t.ledger.Window().ValiditySlots
}

// BalanceOfAtEpoch returns the live portion of the balance that was
// minted during era.
func (t *Token) BalanceOfAtEpoch(era ledgertime.Era, account ledger.Address) uint64 {
	return t.ledger.BalanceInEra(account, era, t.clock.Ticks())
}

// IsEpochExpired reports whether every slot of era is already past the
// validity window.
func (t *Token) IsEpochExpired(era ledgertime.Era) bool {
	w := t.ledger.Window()
	_, last := w.EraBounds(era)
	return w.IsExpired(last, t.clock.Ticks())
}

// record appends a journal entry for an operation that already
// applied. A failed append surfaces on the call, and the error says
// the mutation stands.
func (t *Token) record(op Op, from, to ledger.Address, amount uint64, tick ledgertime.Tick) error {
	if t.journal == nil {
		return nil
	}
	entry := Entry{
		ID:     NewEntryID(),
		Op:     op,
		From:   from,
		To:     to,
		Amount: amount,
		Slot:   t.ledger.Window().SlotAt(tick),
		Tick:   tick,
	}
	if err := t.journal.Append(entry); err != nil {
		return fmt.Errorf("%s applied but not journaled: %w", op, err)
	}
	return nil
}
