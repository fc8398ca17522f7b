package badger

import (
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"

	"github.com/eigerco/hourglass/pkg/db"
)

type batchOp struct {
	del   bool
	key   []byte
	value []byte
}

// Batch buffers writes and applies them in one transaction on Commit.
type Batch struct {
	store *KVStore
	ops   []batchOp
	done  atomic.Bool
}

func (s *KVStore) NewBatch() db.Batch {
	return &Batch{store: s}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, batchOp{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, batchOp{
		del: true,
		key: append([]byte(nil), key...),
	})
	return nil
}

func (b *Batch) Commit() error {
	if b.done.Load() {
		return db.ErrBatchDone
	}

	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	if b.store.closed {
		return db.ErrClosed
	}

	err := b.store.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if op.del {
				if err := txn.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.done.Store(true)
	return nil
}

func (b *Batch) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	b.ops = nil
	return nil
}
