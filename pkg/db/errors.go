package db

import "errors"

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrBatchDone is returned by operations on a batch that was
	// already committed or closed.
	ErrBatchDone = errors.New("batch already finished")

	// ErrIteratorInvalid is returned by Value when the iterator is not
	// positioned on an entry.
	ErrIteratorInvalid = errors.New("iterator is not positioned")
)
