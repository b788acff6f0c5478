package finmap

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
)

type Repository interface {
	Get(ctx context.Context) (FinanceAccountMap, error)
	Save(ctx context.Context, m FinanceAccountMap) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// The map lives in a single row keyed id=1; the settings screen overwrites it.
func (r *repository) Get(ctx context.Context) (FinanceAccountMap, error) {
	var m FinanceAccountMap
	var revenueJSON, expenseJSON []byte
	err := r.db.QueryRow(ctx, `SELECT receivable_account_id, payable_account_id, default_cash_id, default_bank_id,
revenue_map, expense_map, prevent_direct_cash_revenue, updated_at
FROM finance_account_map WHERE id=1`).
		Scan(&m.ReceivableAccountID, &m.PayableAccountID, &m.DefaultCashID, &m.DefaultBankID,
			&revenueJSON, &expenseJSON, &m.PreventDirectCashRevenue, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FinanceAccountMap{}, ledgershared.ErrMapNotConfigured
		}
		return FinanceAccountMap{}, err
	}
	if err := json.Unmarshal(revenueJSON, &m.RevenueMap); err != nil {
		return FinanceAccountMap{}, err
	}
	if err := json.Unmarshal(expenseJSON, &m.ExpenseMap); err != nil {
		return FinanceAccountMap{}, err
	}
	return m, nil
}

func (r *repository) Save(ctx context.Context, m FinanceAccountMap) error {
	revenueJSON, err := json.Marshal(emptyIfNil(m.RevenueMap))
	if err != nil {
		return err
	}
	expenseJSON, err := json.Marshal(emptyIfNil(m.ExpenseMap))
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO finance_account_map
(id, receivable_account_id, payable_account_id, default_cash_id, default_bank_id, revenue_map, expense_map, prevent_direct_cash_revenue, updated_at)
VALUES (1,$1,$2,$3,$4,$5,$6,$7,NOW())
ON CONFLICT (id) DO UPDATE SET receivable_account_id=EXCLUDED.receivable_account_id,
payable_account_id=EXCLUDED.payable_account_id, default_cash_id=EXCLUDED.default_cash_id,
default_bank_id=EXCLUDED.default_bank_id, revenue_map=EXCLUDED.revenue_map,
expense_map=EXCLUDED.expense_map, prevent_direct_cash_revenue=EXCLUDED.prevent_direct_cash_revenue,
updated_at=NOW()`,
		m.ReceivableAccountID, m.PayableAccountID, m.DefaultCashID, m.DefaultBankID,
		revenueJSON, expenseJSON, m.PreventDirectCashRevenue)
	return err
}

func emptyIfNil(m map[string]int64) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}
