package store

import (
	"fmt"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
	"github.com/eigerco/hourglass/pkg/db"
	"github.com/eigerco/hourglass/pkg/log"
)

// Ledger is the bucket row store: one row per (account, mint slot)
// pair, scanned oldest first per account.
type Ledger struct {
	db.KVStore
}

// NewLedger creates a bucket store using KVStore
func NewLedger(kv db.KVStore) *Ledger {
	return &Ledger{KVStore: kv}
}

// PutBucket stores the amount recorded for (addr, bucket slot).
func (s *Ledger) PutBucket(addr ledger.Address, b ledger.Bucket) error {
	if err := s.Put(makeBucketKey(addr, b.Slot), encodeAmount(b.Amount)); err != nil {
		return fmt.Errorf("put bucket: %w", err)
	}
	return nil
}

// GetBucket retrieves the amount stored for (addr, slot). The error
// wraps db.ErrNotFound when no row exists.
func (s *Ledger) GetBucket(addr ledger.Address, slot ledgertime.Slot) (uint64, error) {
	value, err := s.Get(makeBucketKey(addr, slot))
	if err != nil {
		return 0, fmt.Errorf("get bucket: %w", err)
	}
	amount, err := decodeAmount(value)
	if err != nil {
		return 0, fmt.Errorf("decode bucket: %w", err)
	}
	return amount, nil
}

// DeleteBucket removes one bucket row.
func (s *Ledger) DeleteBucket(addr ledger.Address, slot ledgertime.Slot) error {
	if err := s.Delete(makeBucketKey(addr, slot)); err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}
	return nil
}

// AccountBuckets retrieves all stored buckets for an account, ordered
// oldest first.
func (s *Ledger) AccountBuckets(addr ledger.Address) ([]ledger.Bucket, error) {
	start := accountPrefix(addr)
	iter, err := s.NewIterator(start, upperBound(start))
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer closeIterator(iter)

	var buckets []ledger.Bucket
	for iter.Next() {
		key := iter.Key()
		_, slot, ok := parseBucketKey(key)
		if !ok {
			return nil, fmt.Errorf("malformed bucket key %x", key)
		}

		value, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("get iterator value: %w", err)
		}
		amount, err := decodeAmount(value)
		if err != nil {
			return nil, fmt.Errorf("decode bucket: %w", err)
		}

		buckets = append(buckets, ledger.Bucket{Slot: slot, Amount: amount})
	}

	return buckets, nil
}

// DeleteBucketsThrough removes the account's rows with mint slot <=
// through, atomically. It returns the number of rows removed.
func (s *Ledger) DeleteBucketsThrough(addr ledger.Address, through ledgertime.Slot) (int, error) {
	start := makeBucketKey(addr, 0)
	end := upperBound(accountPrefix(addr))
	if through < ledgertime.MaxSlot {
		end = makeBucketKey(addr, through+1)
	}

	iter, err := s.NewIterator(start, end)
	if err != nil {
		return 0, fmt.Errorf("create iterator: %w", err)
	}
	defer closeIterator(iter)

	batch := s.NewBatch()
	defer closeBatch(batch)

	removed := 0
	for iter.Next() {
		if err := batch.Delete(iter.Key()); err != nil {
			return 0, fmt.Errorf("batch delete key: %w", err)
		}
		removed++
	}

	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}

	return removed, nil
}

// SweepExpired removes every bucket row minted before floor, across
// all accounts, in one atomic batch. Rows that fail to parse are
// logged and left in place. It returns the number of rows removed.
func (s *Ledger) SweepExpired(floor ledgertime.Slot) (int, error) {
	start, end := prefixRange(prefixBucket)
	iter, err := s.NewIterator(start, end)
	if err != nil {
		return 0, fmt.Errorf("create iterator: %w", err)
	}
	defer closeIterator(iter)

	batch := s.NewBatch()
	defer closeBatch(batch)

	removed := 0
	for iter.Next() {
		key := iter.Key()
		_, slot, ok := parseBucketKey(key)
		if !ok {
			log.Store.Warn().Hex("key", key).Msg("skipping malformed bucket key")
			continue
		}
		if slot >= floor {
			continue
		}
		if err := batch.Delete(key); err != nil {
			return 0, fmt.Errorf("batch delete key: %w", err)
		}
		removed++
	}

	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}

	return removed, nil
}
