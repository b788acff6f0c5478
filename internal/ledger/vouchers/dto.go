package vouchers

import (
	"fmt"
	"time"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
)

// PostingLineInput describes one journal line of a posting request. Exactly
// one of Debit/Credit must be non-zero.
type PostingLineInput struct {
	AccountID   int64
	Debit       float64
	Credit      float64
	Description string
}

// PostingInput groups everything required to record a voucher. The invoice
// number must already have been allocated; the posting engine never mints or
// discards numbers, so a failed post after a successful allocation burns the
// number (documented, gap-tolerant behaviour).
type PostingInput struct {
	InvoiceNumber     string
	Date              time.Time
	Currency          string
	SourceType        string
	SourceID          string
	CreatedBy         string
	Lines             []PostingLineInput
	OriginalData      map[string]any
	DirectCashRevenue bool
}

// Validate enforces the structural preconditions. Account existence and
// balance are checked by the posting engine afterwards so their failures can
// carry richer detail.
func (in PostingInput) Validate() error {
	if in.InvoiceNumber == "" {
		return fmt.Errorf("%w: invoice number required before posting", ledgershared.ErrInvalidPosting)
	}
	if in.SourceType == "" {
		return fmt.Errorf("%w: source type required", ledgershared.ErrInvalidPosting)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: at least one line required", ledgershared.ErrInvalidPosting)
	}
	for idx, line := range in.Lines {
		if line.AccountID <= 0 {
			return fmt.Errorf("%w: line %d missing account", ledgershared.ErrInvalidPosting, idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("%w: line %d negative amount", ledgershared.ErrInvalidPosting, idx)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("%w: line %d cannot be both debit and credit", ledgershared.ErrInvalidPosting, idx)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return fmt.Errorf("%w: line %d has no amount", ledgershared.ErrInvalidPosting, idx)
		}
	}
	return nil
}

// AccountIDs returns the account ids referenced by the posting, in order.
func (in PostingInput) AccountIDs() []int64 {
	ids := make([]int64, 0, len(in.Lines))
	for _, line := range in.Lines {
		ids = append(ids, line.AccountID)
	}
	return ids
}

// Split groups the lines into ordered debit and credit entries.
func (in PostingInput) Split() (debits, credits []EntryLine) {
	for _, line := range in.Lines {
		entry := EntryLine{AccountID: line.AccountID, Description: line.Description}
		if line.Debit > 0 {
			entry.Amount = line.Debit
			debits = append(debits, entry)
		} else {
			entry.Amount = line.Credit
			credits = append(credits, entry)
		}
	}
	return debits, credits
}

// ListFilter narrows voucher listings.
type ListFilter struct {
	Page           int
	PerPage        int
	SourceType     string
	IncludeDeleted bool
}
