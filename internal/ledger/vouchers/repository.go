package vouchers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
	"github.com/voyager-erp/voyager-erp/internal/platform/db"
)

// Repository encapsulates voucher persistence. Lifecycle transitions run in
// WithTx so the voucher flag and its source-document cascade commit together.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (JournalVoucher, error)
	List(ctx context.Context, filter ListFilter) ([]JournalVoucher, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available within a lifecycle or posting transaction.
type TxRepository interface {
	InsertVoucher(ctx context.Context, v JournalVoucher) (JournalVoucher, error)
	InsertEntries(ctx context.Context, voucherID uuid.UUID, debits, credits []EntryLine) error
	UpsertSourceDocument(ctx context.Context, sourceType, sourceID string, voucherID uuid.UUID) error
	GetVoucherForUpdate(ctx context.Context, id uuid.UUID) (JournalVoucher, error)
	SetVoucherDeleted(ctx context.Context, id uuid.UUID, deletedAt *time.Time, deletedBy *string) error
	SetSourceDocumentDeleted(ctx context.Context, sourceType, sourceID string, deleted bool) error
	DeleteVoucher(ctx context.Context, id uuid.UUID) error
	UnlinkSourceDocument(ctx context.Context, voucherID uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const voucherColumns = `id, invoice_number, date, currency, source_type, source_id, created_by,
created_at, updated_at, is_deleted, deleted_at, deleted_by, direct_cash_revenue, original_data`

func (r *repository) Get(ctx context.Context, id uuid.UUID) (JournalVoucher, error) {
	row := r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM journal_vouchers WHERE id=$1`, id)
	v, err := scanVoucher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalVoucher{}, ledgershared.ErrVoucherNotFound
		}
		return JournalVoucher{}, err
	}
	if err := r.loadEntries(ctx, &v); err != nil {
		return JournalVoucher{}, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalVoucher, int, error) {
	where := `WHERE ($1 = '' OR source_type = $1) AND ($2 OR NOT is_deleted)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_vouchers `+where,
		filter.SourceType, filter.IncludeDeleted).Scan(&total); err != nil {
		return nil, 0, err
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	rows, err := r.db.Query(ctx, `SELECT `+voucherColumns+` FROM journal_vouchers `+where+`
ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		filter.SourceType, filter.IncludeDeleted, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []JournalVoucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := r.loadEntries(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r *repository) loadEntries(ctx context.Context, v *JournalVoucher) error {
	rows, err := r.db.Query(ctx, `SELECT side, account_id, amount, description
FROM journal_voucher_lines WHERE voucher_id=$1 ORDER BY position ASC`, v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var side string
		var entry EntryLine
		if err := rows.Scan(&side, &entry.AccountID, &entry.Amount, &entry.Description); err != nil {
			return err
		}
		if side == "DEBIT" {
			v.DebitEntries = append(v.DebitEntries, entry)
		} else {
			v.CreditEntries = append(v.CreditEntries, entry)
		}
	}
	return rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertVoucher(ctx context.Context, v JournalVoucher) (JournalVoucher, error) {
	originalJSON, err := json.Marshal(v.OriginalData)
	if err != nil {
		return JournalVoucher{}, err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_vouchers
(id, invoice_number, date, currency, source_type, source_id, created_by, direct_cash_revenue, original_data)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at, updated_at`,
		v.ID, v.InvoiceNumber, v.Date, v.Currency, v.SourceType, v.SourceID, v.CreatedBy,
		v.DirectCashRevenue, originalJSON)
	if err := row.Scan(&v.CreatedAt, &v.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return JournalVoucher{}, &ledgershared.DuplicateNumberError{Number: v.InvoiceNumber}
		}
		return JournalVoucher{}, err
	}
	return v, nil
}

func (r *txRepository) InsertEntries(ctx context.Context, voucherID uuid.UUID, debits, credits []EntryLine) error {
	position := 0
	insert := func(side string, entries []EntryLine) error {
		for _, entry := range entries {
			if _, err := r.tx.Exec(ctx, `INSERT INTO journal_voucher_lines (voucher_id, position, side, account_id, amount, description)
VALUES ($1,$2,$3,$4,$5,$6)`, voucherID, position, side, entry.AccountID, entry.Amount, entry.Description); err != nil {
				return err
			}
			position++
		}
		return nil
	}
	if err := insert("DEBIT", debits); err != nil {
		return err
	}
	return insert("CREDIT", credits)
}

func (r *txRepository) UpsertSourceDocument(ctx context.Context, sourceType, sourceID string, voucherID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_documents (source_type, source_id, voucher_id)
VALUES ($1,$2,$3)
ON CONFLICT (source_type, source_id) DO UPDATE SET voucher_id=EXCLUDED.voucher_id, updated_at=NOW()`,
		sourceType, sourceID, voucherID)
	return err
}

func (r *txRepository) GetVoucherForUpdate(ctx context.Context, id uuid.UUID) (JournalVoucher, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM journal_vouchers WHERE id=$1 FOR UPDATE`, id)
	v, err := scanVoucher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalVoucher{}, ledgershared.ErrVoucherNotFound
		}
		return JournalVoucher{}, err
	}
	return v, nil
}

func (r *txRepository) SetVoucherDeleted(ctx context.Context, id uuid.UUID, deletedAt *time.Time, deletedBy *string) error {
	deleted := deletedAt != nil
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_vouchers SET is_deleted=$2, deleted_at=$3, deleted_by=$4, updated_at=NOW() WHERE id=$1`,
		id, deleted, deletedAt, deletedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledgershared.ErrVoucherNotFound
	}
	return nil
}

func (r *txRepository) SetSourceDocumentDeleted(ctx context.Context, sourceType, sourceID string, deleted bool) error {
	_, err := r.tx.Exec(ctx, `UPDATE source_documents SET is_deleted=$3, updated_at=NOW()
WHERE source_type=$1 AND source_id=$2`, sourceType, sourceID, deleted)
	return err
}

func (r *txRepository) DeleteVoucher(ctx context.Context, id uuid.UUID) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_voucher_lines WHERE voucher_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_vouchers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledgershared.ErrVoucherNotFound
	}
	return nil
}

func (r *txRepository) UnlinkSourceDocument(ctx context.Context, voucherID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `UPDATE source_documents SET voucher_id=NULL, updated_at=NOW() WHERE voucher_id=$1`, voucherID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoucher(row rowScanner) (JournalVoucher, error) {
	var v JournalVoucher
	var originalJSON []byte
	err := row.Scan(&v.ID, &v.InvoiceNumber, &v.Date, &v.Currency, &v.SourceType, &v.SourceID,
		&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt, &v.IsDeleted, &v.DeletedAt, &v.DeletedBy,
		&v.DirectCashRevenue, &originalJSON)
	if err != nil {
		return JournalVoucher{}, err
	}
	if len(originalJSON) > 0 {
		if err := json.Unmarshal(originalJSON, &v.OriginalData); err != nil {
			return JournalVoucher{}, err
		}
	}
	return v, nil
}
