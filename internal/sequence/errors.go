package sequence

import (
	"errors"
	"fmt"
)

var (
	// ErrCounterNotFound indicates a missing counter row.
	ErrCounterNotFound = errors.New("sequence: counter not found")
	// ErrKeyRequired rejects a blank type key.
	ErrKeyRequired = errors.New("sequence: type key required")
	// ErrNegativeCounter rejects an administrative overwrite below zero.
	ErrNegativeCounter = errors.New("sequence: counter value must be non-negative")
)

// TxFailure reports that the allocation transaction could not commit after
// the bounded retry budget. The enclosing business operation must fail; no
// number was issued and no counter mutation is visible.
type TxFailure struct {
	TypeKey string
	Err     error
}

func (e *TxFailure) Error() string {
	return fmt.Sprintf("sequence: allocation for %s failed: %v", e.TypeKey, e.Err)
}

func (e *TxFailure) Unwrap() error { return e.Err }
