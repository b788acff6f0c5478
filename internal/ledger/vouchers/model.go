package vouchers

import (
	"time"

	"github.com/google/uuid"
)

// EntryLine is one side of a posting: an amount against a leaf account.
type EntryLine struct {
	AccountID   int64   `json:"account_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// JournalVoucher is a recorded double-entry financial event. Vouchers are
// soft-deleted, never mutated, except through the lifecycle manager or the
// administrative permanent-delete path.
type JournalVoucher struct {
	ID                uuid.UUID      `json:"id"`
	InvoiceNumber     string         `json:"invoice_number"`
	Date              time.Time      `json:"date"`
	Currency          string         `json:"currency"`
	SourceType        string         `json:"source_type"`
	SourceID          string         `json:"source_id"`
	DebitEntries      []EntryLine    `json:"debit_entries"`
	CreditEntries     []EntryLine    `json:"credit_entries"`
	CreatedBy         string         `json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	IsDeleted         bool           `json:"is_deleted"`
	DeletedAt         *time.Time     `json:"deleted_at,omitempty"`
	DeletedBy         *string        `json:"deleted_by,omitempty"`
	DirectCashRevenue bool           `json:"direct_cash_revenue,omitempty"`
	OriginalData      map[string]any `json:"original_data,omitempty"`
}

// TotalDebit sums the debit side.
func (v JournalVoucher) TotalDebit() float64 {
	var sum float64
	for _, e := range v.DebitEntries {
		sum += e.Amount
	}
	return sum
}

// TotalCredit sums the credit side.
func (v JournalVoucher) TotalCredit() float64 {
	var sum float64
	for _, e := range v.CreditEntries {
		sum += e.Amount
	}
	return sum
}
