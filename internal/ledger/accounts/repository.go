package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]Account, error)
	Insert(ctx context.Context, a Account) (Account, error)
	MarkParentNonLeaf(ctx context.Context, parentID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, parent_id, is_leaf, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ledgershared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// GetByIDs fetches all requested accounts in one round trip. Missing ids are
// simply absent from the result map; existence reporting is the caller's job.
func (r *repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]Account, error) {
	out := make(map[int64]Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, a Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, type, parent_id, is_leaf, is_active)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING `+accountColumns,
		a.Code, a.Name, a.Type, a.ParentID, a.IsLeaf, a.IsActive)
	return scanAccount(row)
}

func (r *repository) MarkParentNonLeaf(ctx context.Context, parentID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET is_leaf=FALSE, updated_at=NOW() WHERE id=$1`, parentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsLeaf, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
