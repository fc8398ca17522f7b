package token

import (
	"fmt"
	"math"
	"sync"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/safemath"
)

// AllowanceStore is the external collaborator consulted on delegated
// transfers. Use atomically checks and consumes; it must leave the
// grant unchanged when it returns an error. Refund compensates a grant
// consumed for a transfer that then failed to apply.
type AllowanceStore interface {
	Use(owner, spender ledger.Address, amount uint64) error
	Refund(owner, spender ledger.Address, amount uint64)
}

// MapAllowances is a minimal in-memory AllowanceStore for tests and
// the demo binary. Safe for concurrent use.
type MapAllowances struct {
	mu     sync.Mutex
	grants map[[2]ledger.Address]uint64
}

func NewMapAllowances() *MapAllowances {
	return &MapAllowances{grants: make(map[[2]ledger.Address]uint64)}
}

// Approve sets the spender's grant over the owner's balance. A zero
// amount revokes it.
func (m *MapAllowances) Approve(owner, spender ledger.Address, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]ledger.Address{owner, spender}
	if amount == 0 {
		delete(m.grants, key)
		return
	}
	m.grants[key] = amount
}

// Allowance returns the spender's remaining grant.
func (m *MapAllowances) Allowance(owner, spender ledger.Address) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grants[[2]ledger.Address{owner, spender}]
}

// Use consumes amount from the grant, failing without change when the
// grant is short.
func (m *MapAllowances) Use(owner, spender ledger.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]ledger.Address{owner, spender}
	have := m.grants[key]
	rest, ok := safemath.Sub(have, amount)
	if !ok {
		return fmt.Errorf("spender %s holds %d of %s, want %d: %w",
			spender, have, owner, amount, ErrInsufficientAllowance)
	}
	if rest == 0 {
		delete(m.grants, key)
	} else {
		m.grants[key] = rest
	}
	return nil
}

// Refund returns amount to the grant, saturating at the maximum.
func (m *MapAllowances) Refund(owner, spender ledger.Address, amount uint64) {
	if amount == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]ledger.Address{owner, spender}
	rest, ok := safemath.Add(m.grants[key], amount)
	if !ok {
		rest = math.MaxUint64
	}
	m.grants[key] = rest
}
