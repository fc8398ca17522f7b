package store

import (
	"encoding/binary"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
	"github.com/eigerco/hourglass/internal/token"
	"github.com/eigerco/hourglass/pkg/db"
)

// The row format is: [op(1 byte)][from(20 bytes)][to(20 bytes)]
// [amount(8 bytes)][slot(8 bytes)][tick(8 bytes)]. The entry id lives
// in the key.
const journalRowSize = 1 + 2*ledger.AddressSize + 8 + 8 + 8

// Journal is the persisted operation log. It satisfies token.Journal,
// so a Token wired to it records every applied operation durably.
// ULID keys keep the rows in creation-time order.
type Journal struct {
	db.KVStore
}

// NewJournal creates a journal store using KVStore
func NewJournal(kv db.KVStore) *Journal {
	return &Journal{KVStore: kv}
}

// Append stores one entry under its id.
func (j *Journal) Append(e token.Entry) error {
	row := make([]byte, journalRowSize)
	row[0] = byte(e.Op)
	copy(row[1:21], e.From[:])
	copy(row[21:41], e.To[:])
	binary.BigEndian.PutUint64(row[41:49], e.Amount)
	binary.BigEndian.PutUint64(row[49:57], uint64(e.Slot))
	binary.BigEndian.PutUint64(row[57:65], uint64(e.Tick))

	if err := j.Put(makeJournalKey(e.ID), row); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Entries retrieves up to limit entries in creation-time order. A
// non-positive limit returns everything.
func (j *Journal) Entries(limit int) ([]token.Entry, error) {
	start, end := prefixRange(prefixJournal)
	iter, err := j.NewIterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer closeIterator(iter)

	var entries []token.Entry
	for iter.Next() {
		if limit > 0 && len(entries) == limit {
			break
		}

		key := iter.Key()
		if len(key) != journalKeySize {
			return nil, fmt.Errorf("malformed journal key %x", key)
		}

		value, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("get iterator value: %w", err)
		}
		if len(value) != journalRowSize {
			return nil, fmt.Errorf("journal row is %d bytes, want %d", len(value), journalRowSize)
		}

		var e token.Entry
		copy(e.ID[:], key[1:])
		e.Op = token.Op(value[0])
		copy(e.From[:], value[1:21])
		copy(e.To[:], value[21:41])
		e.Amount = binary.BigEndian.Uint64(value[41:49])
		e.Slot = ledgertime.Slot(binary.BigEndian.Uint64(value[49:57]))
		e.Tick = ledgertime.Tick(binary.BigEndian.Uint64(value[57:65]))

		entries = append(entries, e)
	}

	return entries, nil
}

// makeJournalKey builds a journal row key.
// The key format is: [prefix(1 byte)][ulid(16 bytes)].
func makeJournalKey(id ulid.ULID) []byte {
	key := make([]byte, journalKeySize)
	key[0] = prefixJournal
	copy(key[1:], id[:])
	return key
}
