package token

import "errors"

var (
	// ErrInvalidReceiver is returned when an operation would credit the
	// reserved zero address.
	ErrInvalidReceiver = errors.New("receiver is the zero address")

	// ErrInvalidSender is returned when an operation would debit the
	// reserved zero address, or when the acting spender is zero.
	ErrInvalidSender = errors.New("sender is the zero address")

	// ErrInsufficientAllowance is returned by allowance stores when a
	// delegated transfer asks for more than the spender's grant.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrNoAllowanceStore is returned by TransferFrom when the token was
	// built without an allowance collaborator.
	ErrNoAllowanceStore = errors.New("no allowance store configured")

	// ErrInvalidTickDuration is returned when a wall clock is given a
	// non-positive tick length.
	ErrInvalidTickDuration = errors.New("tick duration must be positive")
)
