package store

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
	"github.com/eigerco/hourglass/internal/testutils"
	"github.com/eigerco/hourglass/pkg/db/badger"
	"github.com/eigerco/hourglass/pkg/db/pebble"
)

func TestCheckpointRoundTrip(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer func() {
		err := kv.Close()
		require.NoError(t, err, "failed to close db")
	}()

	w := ledgertime.DefaultWindow()
	l, err := ledger.New(w)
	require.NoError(t, err)

	alice := testutils.RandomAddress(t)
	bob := testutils.RandomAddress(t)

	require.NoError(t, l.Mint(alice, 100, w.SlotStart(0)), "failed to mint")
	require.NoError(t, l.Mint(alice, 50, w.SlotStart(1)), "failed to mint")
	require.NoError(t, l.Mint(bob, 70, w.SlotStart(1)), "failed to mint")
	// The transfer moves slot-0 value, so bob's copy keeps the old stamp.
	require.NoError(t, l.Transfer(alice, bob, 30, w.SlotStart(1)), "failed to transfer")

	saveTick := w.SlotStart(1)
	cp := NewCheckpoint(kv)
	require.NoError(t, cp.Save(l, saveTick), "failed to save checkpoint")

	restored, tick, err := cp.Load(w)
	require.NoError(t, err, "failed to load checkpoint")
	require.Equal(t, saveTick, tick, "saved tick mismatch")

	requireEqualLedgers(t, l, restored)
	require.Equal(t, l.BalanceAt(alice, saveTick), restored.BalanceAt(alice, saveTick), "alice balance mismatch")
	require.Equal(t, l.BalanceAt(bob, w.SlotStart(2)), restored.BalanceAt(bob, w.SlotStart(2)), "bob balance mismatch after expiry")
}

func TestCheckpointRoundTripBadger(t *testing.T) {
	kv, err := badger.NewKVStore()
	require.NoError(t, err)
	defer func() {
		err := kv.Close()
		require.NoError(t, err, "failed to close db")
	}()

	w := ledgertime.DefaultWindow()
	l, err := ledger.New(w)
	require.NoError(t, err)

	addr := testutils.RandomAddress(t)
	require.NoError(t, l.Mint(addr, 9, w.SlotStart(0)), "failed to mint")
	require.NoError(t, l.Mint(addr, 4, w.SlotStart(1)), "failed to mint")

	cp := NewCheckpoint(kv)
	require.NoError(t, cp.Save(l, w.SlotStart(1)), "failed to save checkpoint")

	restored, tick, err := cp.Load(w)
	require.NoError(t, err, "failed to load checkpoint")
	require.Equal(t, w.SlotStart(1), tick, "saved tick mismatch")
	requireEqualLedgers(t, l, restored)
}

func TestLoadWithoutCheckpoint(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer func() {
		err := kv.Close()
		require.NoError(t, err, "failed to close db")
	}()

	_, _, err = NewCheckpoint(kv).Load(ledgertime.DefaultWindow())
	require.ErrorIs(t, err, ErrNoCheckpoint, "expected missing checkpoint error")
}

func TestLoadDetectsCorruption(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer func() {
		err := kv.Close()
		require.NoError(t, err, "failed to close db")
	}()

	w := ledgertime.DefaultWindow()
	l, err := ledger.New(w)
	require.NoError(t, err)

	addr := testutils.RandomAddress(t)
	require.NoError(t, l.Mint(addr, 100, w.SlotStart(0)), "failed to mint")

	cp := NewCheckpoint(kv)
	require.NoError(t, cp.Save(l, w.SlotStart(0)), "failed to save checkpoint")

	// Flip the stored amount behind the checkpoint's back.
	err = kv.Put(makeBucketKey(addr, 0), encodeAmount(999))
	require.NoError(t, err, "failed to overwrite row")

	_, _, err = cp.Load(w)
	require.ErrorIs(t, err, ErrChecksumMismatch, "expected digest verification to fail")
}

func TestSaveReplacesPrevious(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer func() {
		err := kv.Close()
		require.NoError(t, err, "failed to close db")
	}()

	w := ledgertime.DefaultWindow()
	cp := NewCheckpoint(kv)

	first, err := ledger.New(w)
	require.NoError(t, err)
	alice := testutils.RandomAddress(t)
	require.NoError(t, first.Mint(alice, 100, w.SlotStart(0)), "failed to mint")
	require.NoError(t, cp.Save(first, w.SlotStart(0)), "failed to save first checkpoint")

	second, err := ledger.New(w)
	require.NoError(t, err)
	carol := testutils.RandomAddress(t)
	require.NoError(t, second.Mint(carol, 55, w.SlotStart(3)), "failed to mint")
	require.NoError(t, cp.Save(second, w.SlotStart(3)), "failed to save second checkpoint")

	restored, tick, err := cp.Load(w)
	require.NoError(t, err, "failed to load checkpoint")
	require.Equal(t, w.SlotStart(3), tick, "saved tick mismatch")
	require.Equal(t, uint64(0), restored.RawBalance(alice), "first checkpoint's account should be gone")
	requireEqualLedgers(t, second, restored)
}

// requireEqualLedgers compares two ledgers bucket by bucket and fails
// the test with a unified diff of their dumps when they differ.
func requireEqualLedgers(t *testing.T, expected, actual *ledger.Ledger) {
	t.Helper()

	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(dumpLedger(expected)),
		B:        difflib.SplitLines(dumpLedger(actual)),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	if diff != "" {
		t.Fatalf("Ledger mismatch:\n%s", diff)
	}
}

func dumpLedger(l *ledger.Ledger) string {
	snap := l.Snapshot()
	addrs := make([]ledger.Address, 0, len(snap))
	for addr := range snap {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	var sb strings.Builder
	for _, addr := range addrs {
		for _, b := range snap[addr] {
			fmt.Fprintf(&sb, "%s slot=%d amount=%d\n", addr, b.Slot, b.Amount)
		}
	}
	fmt.Fprintf(&sb, "raw supply %d\n", l.TotalRaw())
	return sb.String()
}
