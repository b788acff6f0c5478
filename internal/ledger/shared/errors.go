// Package shared holds the error taxonomy of the ledger core. These errors
// are never swallowed: the posting engine and resolvers surface them verbatim
// so administrators can correct account setup or calling code.
package shared

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sentinel errors for the ledger core.
var (
	// ErrVoucherNotFound indicates a missing journal voucher.
	ErrVoucherNotFound = errors.New("ledger: voucher not found")
	// ErrAccountNotFound indicates a missing chart-of-accounts node.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrMapNotConfigured indicates the finance account map row is absent.
	ErrMapNotConfigured = errors.New("ledger: finance account map not configured")
	// ErrInvalidPosting marks structural posting-input failures.
	ErrInvalidPosting = errors.New("ledger: invalid posting input")
	// ErrVoucherActive rejects a permanent delete on a voucher that has not
	// been soft-deleted first.
	ErrVoucherActive = errors.New("ledger: voucher must be soft-deleted before permanent deletion")
)

// BalanceTolerance is the absolute epsilon applied to the debit/credit
// balance check. Amounts are currency-scale so the tolerance is absolute,
// not relative.
const BalanceTolerance = 1e-4

// AccountsNotFoundError lists every referenced account id missing from the
// chart of accounts, not just the first.
type AccountsNotFoundError struct {
	Missing []int64
}

func (e *AccountsNotFoundError) Error() string {
	return fmt.Sprintf("ledger: accounts not found: %s", joinIDs(e.Missing))
}

// NonLeafAccountsError lists referenced accounts that exist but are grouping
// nodes; only leaf accounts may receive postings.
type NonLeafAccountsError struct {
	IDs []int64
}

func (e *NonLeafAccountsError) Error() string {
	return fmt.Sprintf("ledger: accounts are not leaf accounts: %s", joinIDs(e.IDs))
}

// UnbalancedEntryError reports a debit/credit mismatch beyond tolerance. It
// indicates a bug in the calling business logic and is never auto-corrected.
type UnbalancedEntryError struct {
	Debit  float64
	Credit float64
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("ledger: unbalanced entry: debit %.4f credit %.4f delta %.4f",
		e.Debit, e.Credit, e.Delta())
}

// Delta returns the absolute debit/credit difference.
func (e *UnbalancedEntryError) Delta() float64 {
	return math.Abs(e.Debit - e.Credit)
}

// DuplicateNumberError reports an attempt to record a second voucher under an
// already-issued invoice number. The unique index on journal_vouchers backs
// this; it also catches re-issued numbers after a counter overwrite.
type DuplicateNumberError struct {
	Number string
}

func (e *DuplicateNumberError) Error() string {
	return fmt.Sprintf("ledger: invoice number %s already recorded", e.Number)
}

// UnmappedAccountError names a semantic role the finance account map does not
// define yet.
type UnmappedAccountError struct {
	Role string
}

func (e *UnmappedAccountError) Error() string {
	return fmt.Sprintf("ledger: no account mapped for role %q", e.Role)
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}
