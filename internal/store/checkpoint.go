package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/eigerco/hourglass/internal/checksum"
	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
	"github.com/eigerco/hourglass/pkg/db"
)

var (
	// ErrNoCheckpoint is returned by Load when nothing was saved yet.
	ErrNoCheckpoint = errors.New("no checkpoint saved")

	// ErrChecksumMismatch means the stored bucket rows do not hash to
	// the digest the checkpoint header recorded.
	ErrChecksumMismatch = errors.New("checkpoint digest mismatch")
)

// The header row format is: [tick(8 bytes)][row count(8 bytes)][digest(32 bytes)].
const checkpointHeaderSize = 8 + 8 + checksum.Size

// Checkpoint persists a whole ledger and reloads it with integrity
// verification: the header row carries a blake2b digest over the
// bucket rows in key order.
type Checkpoint struct {
	db.KVStore
}

// NewCheckpoint creates a checkpoint store using KVStore
func NewCheckpoint(kv db.KVStore) *Checkpoint {
	return &Checkpoint{KVStore: kv}
}

// Save replaces any previous checkpoint with the ledger's state at
// tick. Old rows, new rows and the header land in one atomic batch.
func (c *Checkpoint) Save(l *ledger.Ledger, tick ledgertime.Tick) error {
	snap := l.Snapshot()

	addrs := make([]ledger.Address, 0, len(snap))
	for addr := range snap {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	batch := c.NewBatch()
	defer closeBatch(batch)

	// Drop the previous checkpoint's rows so removed accounts do not
	// bleed into the new one.
	start, end := prefixRange(prefixBucket)
	iter, err := c.NewIterator(start, end)
	if err != nil {
		return fmt.Errorf("create iterator: %w", err)
	}
	for iter.Next() {
		if err := batch.Delete(iter.Key()); err != nil {
			closeIterator(iter)
			return fmt.Errorf("batch delete key: %w", err)
		}
	}
	closeIterator(iter)

	// Sorted addresses and ascending slots write the rows in key
	// order, the same order Load re-reads them in, so both sides hash
	// the identical stream.
	var (
		parts [][]byte
		rows  uint64
	)
	for _, addr := range addrs {
		for _, b := range snap[addr] {
			key := makeBucketKey(addr, b.Slot)
			value := encodeAmount(b.Amount)
			if err := batch.Put(key, value); err != nil {
				return fmt.Errorf("put bucket: %w", err)
			}
			parts = append(parts, key, value)
			rows++
		}
	}
	digest := checksum.Of(parts...)

	header := make([]byte, checkpointHeaderSize)
	binary.BigEndian.PutUint64(header[0:8], uint64(tick))
	binary.BigEndian.PutUint64(header[8:16], rows)
	copy(header[16:], digest[:])

	if err := batch.Put([]byte{prefixCheckpoint}, header); err != nil {
		return fmt.Errorf("put checkpoint header: %w", err)
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// Load rebuilds a ledger from the last checkpoint and returns it with
// the tick it was saved at. The row stream is verified against the
// header digest before the ledger is handed out.
func (c *Checkpoint) Load(w ledgertime.Window, opts ...ledger.Option) (*ledger.Ledger, ledgertime.Tick, error) {
	header, err := c.Get([]byte{prefixCheckpoint})
	if errors.Is(err, db.ErrNotFound) {
		return nil, 0, ErrNoCheckpoint
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get checkpoint header: %w", err)
	}
	if len(header) != checkpointHeaderSize {
		return nil, 0, fmt.Errorf("checkpoint header is %d bytes, want %d", len(header), checkpointHeaderSize)
	}

	tick := ledgertime.Tick(binary.BigEndian.Uint64(header[0:8]))
	rows := binary.BigEndian.Uint64(header[8:16])
	var want checksum.Digest
	copy(want[:], header[16:])

	l, err := ledger.New(w, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("rebuild ledger: %w", err)
	}

	start, end := prefixRange(prefixBucket)
	iter, err := c.NewIterator(start, end)
	if err != nil {
		return nil, 0, fmt.Errorf("create iterator: %w", err)
	}
	defer closeIterator(iter)

	var (
		parts [][]byte
		seen  uint64
	)
	for iter.Next() {
		key := iter.Key()
		addr, slot, ok := parseBucketKey(key)
		if !ok {
			return nil, 0, fmt.Errorf("malformed bucket key %x", key)
		}

		value, err := iter.Value()
		if err != nil {
			return nil, 0, fmt.Errorf("get iterator value: %w", err)
		}
		amount, err := decodeAmount(value)
		if err != nil {
			return nil, 0, fmt.Errorf("decode bucket: %w", err)
		}

		if err := l.Restore(addr, []ledger.Bucket{{Slot: slot, Amount: amount}}); err != nil {
			return nil, 0, fmt.Errorf("restore bucket: %w", err)
		}
		parts = append(parts, key, value)
		seen++
	}

	got := checksum.Of(parts...)
	if seen != rows || got != want {
		return nil, 0, fmt.Errorf("read %d rows, want %d, digest %s: %w", seen, rows, got, ErrChecksumMismatch)
	}

	return l, tick, nil
}
