// Package ledger implements the expiring balance core: per-account
// value is recorded in mint-slot buckets and a bucket stops counting
// toward the spendable balance once the sliding validity window moves
// past its slot. Expiry is computed on read; nothing is swept unless
// PruneExpired is called.
//
// Time never comes from the system clock. Every operation takes the
// tick it should be evaluated at, which keeps the core deterministic
// and testable. The token facade layers an ambient clock on top.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/eigerco/hourglass/internal/ledgertime"
	"github.com/eigerco/hourglass/internal/safemath"
)

// StampPolicy selects the mint slot recorded on the receiving side of
// a transfer.
type StampPolicy int

const (
	// PreserveMintSlot credits transferred value under its original
	// mint slot. The expiry countdown survives the transfer, so a
	// near-expiry batch is still near expiry in the receiver's hands.
	PreserveMintSlot StampPolicy = iota

	// RestampAtTransfer credits transferred value under the slot the
	// transfer executes in, as if the receiver had minted it fresh.
	RestampAtTransfer
)

func (p StampPolicy) String() string {
	switch p {
	case PreserveMintSlot:
		return "preserve-mint-slot"
	case RestampAtTransfer:
		return "restamp-at-transfer"
	default:
		return fmt.Sprintf("StampPolicy(%d)", int(p))
	}
}

// ParseStampPolicy maps the configuration names onto a policy.
func ParseStampPolicy(s string) (StampPolicy, error) {
	switch s {
	case "preserve-mint-slot", "preserve":
		return PreserveMintSlot, nil
	case "restamp-at-transfer", "restamp":
		return RestampAtTransfer, nil
	default:
		return 0, fmt.Errorf("unknown stamp policy %q", s)
	}
}

// accountState holds one account's buckets sorted ascending by slot.
// raw is the sum of every bucket amount, expired buckets included, and
// is what the overflow guards protect.
type accountState struct {
	buckets []Bucket
	raw     uint64
}

// Ledger tracks per-account balances split into mint-slot buckets and
// applies the sliding validity window on every read.
//
// A single RWMutex serializes mutations; balance queries run under the
// read lock. All methods are safe for concurrent use.
type Ledger struct {
	window ledgertime.Window
	policy StampPolicy

	mu        sync.RWMutex
	accounts  map[Address]*accountState
	rawSupply uint64
}

// Option adjusts ledger construction.
type Option func(*Ledger)

// WithStampPolicy overrides the default PreserveMintSlot transfer
// policy.
func WithStampPolicy(p StampPolicy) Option {
	return func(l *Ledger) {
		l.policy = p
	}
}

// New validates the window and returns an empty ledger.
func New(w ledgertime.Window, opts ...Option) (*Ledger, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("ledger window: %w", err)
	}
	l := &Ledger{
		window:   w,
		policy:   PreserveMintSlot,
		accounts: make(map[Address]*accountState),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Window returns the validity window configuration.
func (l *Ledger) Window() ledgertime.Window {
	return l.window
}

// Policy returns the transfer stamping policy.
func (l *Ledger) Policy() StampPolicy {
	return l.policy
}

// Mint records amount against the (to, current slot) bucket. A zero
// amount is accepted and records nothing. Minting fails only when the
// amount would wrap the account's raw total or the raw supply.
func (l *Ledger) Mint(to Address, amount uint64, tick ledgertime.Tick) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credit(to, amount, l.window.SlotAt(tick))
}

// Burn consumes amount from the account's live buckets, oldest first,
// skipping expired ones. The debit is all-or-nothing: if the live
// balance at tick is short, nothing changes and the returned error
// wraps ErrInsufficientBalance with the amount that was available.
func (l *Ledger) Burn(from Address, amount uint64, tick ledgertime.Tick) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.debit(from, amount, l.window.SlotAt(tick))
	return err
}

// Transfer debits the sender exactly as Burn does and credits the
// debited batches to the receiver according to the stamping policy.
// Under PreserveMintSlot the receiver inherits each batch's original
// mint slot; under RestampAtTransfer the whole amount lands in the
// current slot.
func (l *Ledger) Transfer(from, to Address, amount uint64, tick ledgertime.Tick) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	// The credit side cannot overflow: the amount was just debited from
	// the same guarded supply, so every raw total stays within range.
	current := l.window.SlotAt(tick)
	parts, err := l.debit(from, amount, current)
	if err != nil {
		return err
	}
	for _, p := range parts {
		slot := p.Slot
		if l.policy == RestampAtTransfer {
			slot = current
		}
		if err := l.credit(to, p.Amount, slot); err != nil {
			return err
		}
	}
	return nil
}

// BalanceAt returns the spendable balance at tick: the sum of buckets
// whose slot is inside the validity window ending at the current slot.
func (l *Ledger) BalanceAt(account Address, tick ledgertime.Tick) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.spendableAtSlot(account, l.window.SlotAt(tick))
}

// BalanceAtSlot evaluates the spendable balance as of slot: buckets
// minted after slot are excluded along with buckets the window had
// already expired by then.
func (l *Ledger) BalanceAtSlot(account Address, slot ledgertime.Slot) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.spendableAtSlot(account, slot)
}

// BalanceInEra returns the portion of the account's balance that was
// minted during era and is still live at tick.
func (l *Ledger) BalanceInEra(account Address, era ledgertime.Era, tick ledgertime.Tick) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := l.accounts[account]
	if st == nil {
		return 0
	}
	current := l.window.SlotAt(tick)
	floor := l.window.LiveFloor(current)
	lo, hi := l.window.EraBounds(era)

	var total uint64
	for _, b := range st.buckets {
		if b.Slot > hi || b.Slot > current {
			break
		}
		if b.Slot < lo || b.Slot < floor {
			continue
		}
		total += b.Amount
	}
	return total
}

// RawBalance returns everything recorded for the account that has not
// been consumed or pruned, expired buckets included. BalanceAt never
// exceeds it.
func (l *Ledger) RawBalance(account Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if st := l.accounts[account]; st != nil {
		return st.raw
	}
	return 0
}

// Buckets returns a copy of the account's buckets, oldest first. The
// copy is the caller's to keep; later mutations do not show through.
func (l *Ledger) Buckets(account Address) []Bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := l.accounts[account]
	if st == nil || len(st.buckets) == 0 {
		return nil
	}
	out := make([]Bucket, len(st.buckets))
	copy(out, st.buckets)
	return out
}

// TotalSpendableAt sums every account's live balance at tick.
func (l *Ledger) TotalSpendableAt(tick ledgertime.Tick) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	current := l.window.SlotAt(tick)
	floor := l.window.LiveFloor(current)
	var total uint64
	for _, st := range l.accounts {
		for _, b := range st.buckets {
			if b.Slot < floor {
				continue
			}
			if b.Slot > current {
				break
			}
			total += b.Amount
		}
	}
	return total
}

// TotalRaw returns the recorded supply, expired buckets included.
func (l *Ledger) TotalRaw() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rawSupply
}

// PruneExpired physically deletes every bucket already expired at tick
// and returns the total amount removed. Spendable balances are
// unaffected: pruning discards only what the window excludes anyway.
func (l *Ledger) PruneExpired(tick ledgertime.Tick) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	floor := l.window.LiveFloor(l.window.SlotAt(tick))
	var removed uint64
	for addr, st := range l.accounts {
		n := 0
		for n < len(st.buckets) && st.buckets[n].Slot < floor {
			n++
		}
		if n == 0 {
			continue
		}
		for _, b := range st.buckets[:n] {
			removed += b.Amount
			st.raw -= b.Amount
			l.rawSupply -= b.Amount
		}
		st.buckets = append(st.buckets[:0], st.buckets[n:]...)
		if len(st.buckets) == 0 && st.raw == 0 {
			delete(l.accounts, addr)
		}
	}
	return removed
}

// Snapshot returns a deep copy of every account's buckets, for
// checkpointing. Buckets come back oldest first; map order is up to
// the caller.
func (l *Ledger) Snapshot() map[Address][]Bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[Address][]Bucket, len(l.accounts))
	for addr, st := range l.accounts {
		buckets := make([]Bucket, len(st.buckets))
		copy(buckets, st.buckets)
		out[addr] = buckets
	}
	return out
}

// Restore merges recorded buckets into the account, preserving their
// mint slots. Checkpoint reload is built on it.
func (l *Ledger) Restore(account Address, buckets []Bucket) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range buckets {
		if b.Amount == 0 {
			continue
		}
		if err := l.credit(account, b.Amount, b.Slot); err != nil {
			return err
		}
	}
	return nil
}

// credit merges amount into the (account, slot) bucket, guarding the
// account raw total and the raw supply against wrap. Callers hold the
// write lock.
func (l *Ledger) credit(account Address, amount uint64, slot ledgertime.Slot) error {
	st := l.accounts[account]
	if st == nil {
		st = &accountState{}
		l.accounts[account] = st
	}
	newRaw, ok := safemath.Add(st.raw, amount)
	if !ok {
		return fmt.Errorf("crediting %d to %s: %w", amount, account, ErrAmountOverflow)
	}
	newSupply, ok := safemath.Add(l.rawSupply, amount)
	if !ok {
		return fmt.Errorf("crediting %d to %s: supply: %w", amount, account, ErrAmountOverflow)
	}

	i := sort.Search(len(st.buckets), func(i int) bool {
		return st.buckets[i].Slot >= slot
	})
	if i < len(st.buckets) && st.buckets[i].Slot == slot {
		st.buckets[i].Amount += amount
	} else {
		st.buckets = append(st.buckets, Bucket{})
		copy(st.buckets[i+1:], st.buckets[i:])
		st.buckets[i] = Bucket{Slot: slot, Amount: amount}
	}
	st.raw = newRaw
	l.rawSupply = newSupply
	return nil
}

// debit removes amount from the account's live buckets oldest first
// and returns the (slot, amount) parts taken, for the transfer credit
// path. Callers hold the write lock.
func (l *Ledger) debit(from Address, amount uint64, current ledgertime.Slot) ([]Bucket, error) {
	available := l.spendableAtSlot(from, current)
	if available < amount {
		return nil, fmt.Errorf("account %s has %d live at slot %d, want %d: %w",
			from, available, current, amount, ErrInsufficientBalance)
	}

	st := l.accounts[from]
	floor := l.window.LiveFloor(current)
	remaining := amount
	parts := make([]Bucket, 0, 2)
	for i := 0; remaining > 0 && i < len(st.buckets); {
		b := st.buckets[i]
		if b.Slot < floor || b.Slot > current {
			i++
			continue
		}
		take := remaining
		if take > b.Amount {
			take = b.Amount
		}
		if err := st.removeOrDecrement(i, take); err != nil {
			return parts, err
		}
		l.rawSupply -= take
		parts = append(parts, Bucket{Slot: b.Slot, Amount: take})
		remaining -= take
		if take < b.Amount {
			i++
		}
	}
	if len(st.buckets) == 0 && st.raw == 0 {
		delete(l.accounts, from)
	}
	return parts, nil
}

// spendableAtSlot sums the live buckets at the given slot. Callers
// hold at least the read lock.
func (l *Ledger) spendableAtSlot(account Address, current ledgertime.Slot) uint64 {
	st := l.accounts[account]
	if st == nil {
		return 0
	}
	floor := l.window.LiveFloor(current)
	var total uint64
	for _, b := range st.buckets {
		if b.Slot < floor {
			continue
		}
		if b.Slot > current {
			break
		}
		total += b.Amount
	}
	return total
}

// removeOrDecrement takes amount out of the bucket at index i, deleting
// the bucket when it reaches zero.
func (st *accountState) removeOrDecrement(i int, amount uint64) error {
	b := &st.buckets[i]
	if b.Amount < amount {
		return fmt.Errorf("bucket at slot %d holds %d, want %d: %w",
			b.Slot, b.Amount, amount, ErrInsufficientBucketAmount)
	}
	b.Amount -= amount
	st.raw -= amount
	if b.Amount == 0 {
		st.buckets = append(st.buckets[:i], st.buckets[i+1:]...)
	}
	return nil
}
