package badger

import (
	"bytes"

	"github.com/dgraph-io/badger/v3"

	"github.com/eigerco/hourglass/pkg/db"
)

// Iterator wraps a read transaction. Badger has no native upper bound,
// so the end key is enforced here; keys ascend, so once a key reaches
// the bound the iterator is exhausted for good.
type Iterator struct {
	txn     *badger.Txn
	iter    *badger.Iterator
	start   []byte
	end     []byte
	started bool
}

func (s *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}

	txn := s.db.NewTransaction(false)
	return &Iterator{
		txn:   txn,
		iter:  txn.NewIterator(badger.DefaultIteratorOptions),
		start: start,
		end:   end,
	}, nil
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		if it.start != nil {
			it.iter.Seek(it.start)
		} else {
			it.iter.Rewind()
		}
		return it.inBounds()
	}
	if !it.iter.Valid() {
		return false
	}
	it.iter.Next()
	return it.inBounds()
}

func (it *Iterator) inBounds() bool {
	if !it.iter.Valid() {
		return false
	}
	return it.end == nil || bytes.Compare(it.iter.Item().Key(), it.end) < 0
}

func (it *Iterator) Key() []byte {
	if !it.inBounds() {
		return nil
	}
	return it.iter.Item().KeyCopy(nil)
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.inBounds() {
		return nil, db.ErrIteratorInvalid
	}
	return it.iter.Item().ValueCopy(nil)
}

func (it *Iterator) Valid() bool {
	return it.inBounds()
}

func (it *Iterator) Close() error {
	it.iter.Close()
	it.txn.Discard()
	return nil
}
