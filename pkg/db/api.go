// Package db defines the key-value storage contract the ledger stores
// are built on. Engine implementations live in subpackages and must
// return the sentinel errors declared here, so callers never depend on
// a particular engine.
package db

// KVStore is a flat key-value store with atomic batches and ordered
// iteration.
type KVStore interface {
	Writer
	// Get returns the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error
	// NewBatch collects writes to apply atomically on Commit.
	NewBatch() Batch
	// NewIterator iterates the keys in [start, end) in ascending byte
	// order. A nil end means no upper bound.
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

// Writer is the write half shared by stores and batches.
type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch is an atomic group of writes. A batch is single-use: once
// committed or closed it only returns ErrBatchDone.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator walks a key range in ascending order. Next advances to the
// first entry on its first call; an exhausted iterator stays exhausted.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
