package models

import "errors"

// Business-rule errors. These are deterministic: the transaction was rolled
// back and retrying without changing state will fail the same way.
var (
	ErrNotFound             = errors.New("not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrBlockClosed          = errors.New("block already closed")
	ErrBlockAlreadyResolved = errors.New("block outcome already revealed")
	ErrPriorBlockUnresolved = errors.New("prior block still unresolved")
	ErrTooManyActiveBets    = errors.New("active bet cap reached")
)

// Transient errors. The operation had no effect; callers should retry with
// backoff.
var (
	ErrConcurrencyConflict = errors.New("transaction could not be serialized")
	ErrLockTimeout         = errors.New("timed out waiting for row lock")
)

// IsRetryable reports whether an error is a transient concurrency failure
// rather than a business-rule violation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrLockTimeout)
}
