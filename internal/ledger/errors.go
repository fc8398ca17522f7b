package ledger

import "errors"

var (
	// ErrInsufficientBalance is returned when a burn or transfer asks for
	// more than the account's live balance at the evaluation tick. The
	// wrapping error carries the account, the live amount and the request.
	ErrInsufficientBalance = errors.New("insufficient spendable balance")

	// ErrInsufficientBucketAmount is returned when a bucket decrement
	// exceeds what the bucket holds. The consumption loop pre-checks the
	// live total, so seeing this error means a caller bug, not a normal
	// shortfall.
	ErrInsufficientBucketAmount = errors.New("bucket holds less than requested")

	// ErrAmountOverflow is returned when recording an amount would wrap
	// the account's raw total or the module's raw supply.
	ErrAmountOverflow = errors.New("amount overflows recorded total")
)
