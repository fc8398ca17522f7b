// Package store persists ledger state on a db.KVStore: per-account
// bucket rows, digest-verified checkpoints of a whole ledger, and the
// operation journal. Rows are fixed-width binary and every key starts
// with a 1-byte type prefix, so each store scans only its own range.
package store

import (
	"encoding/binary"
	"fmt"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
	"github.com/eigerco/hourglass/pkg/db"
	"github.com/eigerco/hourglass/pkg/log"
)

// Prefix constants for all store types
const (
	prefixBucket byte = iota + 1
	prefixCheckpoint
	prefixJournal
)

const (
	bucketKeySize  = 1 + ledger.AddressSize + 8
	journalKeySize = 1 + 16
	amountSize     = 8
)

// makeBucketKey builds a bucket row key.
// The key format is: [prefix(1 byte)][address(20 bytes)][slot(8 bytes, big endian)].
// Big-endian slots make an account's rows iterate oldest first.
func makeBucketKey(addr ledger.Address, slot ledgertime.Slot) []byte {
	key := make([]byte, bucketKeySize)
	key[0] = prefixBucket
	copy(key[1:], addr[:])
	binary.BigEndian.PutUint64(key[1+ledger.AddressSize:], uint64(slot))
	return key
}

// parseBucketKey reverses makeBucketKey.
func parseBucketKey(key []byte) (ledger.Address, ledgertime.Slot, bool) {
	if len(key) != bucketKeySize || key[0] != prefixBucket {
		return ledger.Address{}, 0, false
	}
	var addr ledger.Address
	copy(addr[:], key[1:1+ledger.AddressSize])
	slot := ledgertime.Slot(binary.BigEndian.Uint64(key[1+ledger.AddressSize:]))
	return addr, slot, true
}

// accountPrefix is the shared prefix of one account's bucket rows.
func accountPrefix(addr ledger.Address) []byte {
	key := make([]byte, 1+ledger.AddressSize)
	key[0] = prefixBucket
	copy(key[1:], addr[:])
	return key
}

// prefixRange returns the [start, end) bounds covering every key with
// the given type prefix.
func prefixRange(prefix byte) (start, end []byte) {
	return []byte{prefix}, []byte{prefix + 1}
}

// upperBound returns the key just past every key starting with prefix,
// incrementing the last byte and carrying as needed. A nil result
// means no upper bound exists.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func encodeAmount(amount uint64) []byte {
	value := make([]byte, amountSize)
	binary.BigEndian.PutUint64(value, amount)
	return value
}

func decodeAmount(value []byte) (uint64, error) {
	if len(value) != amountSize {
		return 0, fmt.Errorf("amount value is %d bytes, want %d", len(value), amountSize)
	}
	return binary.BigEndian.Uint64(value), nil
}

func closeIterator(iter db.Iterator) {
	if err := iter.Close(); err != nil {
		log.Store.Warn().Err(err).Msg("closing iterator")
	}
}

func closeBatch(batch db.Batch) {
	if err := batch.Close(); err != nil {
		log.Store.Warn().Err(err).Msg("closing batch")
	}
}
