// Package finmap resolves semantic finance roles ("default cash account",
// "revenue account for visas") to concrete chart-of-accounts ids. The map is
// a singleton configuration row, read on every posting and cached briefly.
package finmap

import "time"

// FinanceAccountMap binds semantic roles to account ids.
type FinanceAccountMap struct {
	ReceivableAccountID      int64            `json:"receivable_account_id"`
	PayableAccountID         int64            `json:"payable_account_id"`
	DefaultCashID            int64            `json:"default_cash_id"`
	DefaultBankID            int64            `json:"default_bank_id"`
	RevenueMap               map[string]int64 `json:"revenue_map"`
	ExpenseMap               map[string]int64 `json:"expense_map"`
	PreventDirectCashRevenue bool             `json:"prevent_direct_cash_revenue"`
	UpdatedAt                time.Time        `json:"updated_at"`
}
