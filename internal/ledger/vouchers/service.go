package vouchers

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/voyager-erp/voyager-erp/internal/ledger/accounts"
	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
	"github.com/voyager-erp/voyager-erp/internal/observability"
	"github.com/voyager-erp/voyager-erp/internal/shared"
)

// AccountLookup validates posting targets against the chart of accounts.
type AccountLookup interface {
	ResolvePostingTargets(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
}

// ListResult packages a voucher page with its pagination metadata.
type ListResult struct {
	Vouchers   []JournalVoucher  `json:"vouchers"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service is the journal posting engine and voucher lifecycle manager.
type Service struct {
	repo    Repository
	lookup  AccountLookup
	cache   *Cache
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, lookup AccountLookup, cache *Cache, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, lookup: lookup, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post validates and durably records one journal voucher. Validation order
// is fixed: structural checks, account existence and leaf checks (all
// failures listed at once), then the balance invariant. Nothing is persisted
// on failure; the already-allocated invoice number stays burned.
func (s *Service) Post(ctx context.Context, input PostingInput) (JournalVoucher, error) {
	if err := input.Validate(); err != nil {
		s.metrics.RecordPosting("rejected")
		return JournalVoucher{}, err
	}
	if _, err := s.lookup.ResolvePostingTargets(ctx, input.AccountIDs()); err != nil {
		s.metrics.RecordPosting("rejected")
		return JournalVoucher{}, err
	}
	var debit, credit float64
	for _, line := range input.Lines {
		debit += line.Debit
		credit += line.Credit
	}
	if math.Abs(debit-credit) > ledgershared.BalanceTolerance {
		s.metrics.RecordPosting("rejected")
		return JournalVoucher{}, &ledgershared.UnbalancedEntryError{Debit: debit, Credit: credit}
	}

	sourceID := input.SourceID
	if sourceID == "" {
		// Manual entries have no originating record; a synthetic id keeps the
		// source link unique.
		sourceID = "synthetic:" + uuid.NewString()
	}
	debits, credits := input.Split()
	voucher := JournalVoucher{
		InvoiceNumber:     input.InvoiceNumber,
		Date:              input.Date,
		Currency:          input.Currency,
		SourceType:        input.SourceType,
		SourceID:          sourceID,
		DebitEntries:      debits,
		CreditEntries:     credits,
		CreatedBy:         input.CreatedBy,
		DirectCashRevenue: input.DirectCashRevenue,
		OriginalData:      input.OriginalData,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertVoucher(ctx, voucher)
		if err != nil {
			return err
		}
		if err := tx.InsertEntries(ctx, inserted.ID, debits, credits); err != nil {
			return err
		}
		if err := tx.UpsertSourceDocument(ctx, inserted.SourceType, inserted.SourceID, inserted.ID); err != nil {
			return err
		}
		voucher = inserted
		return nil
	})
	if err != nil {
		s.metrics.RecordPosting("failed")
		return JournalVoucher{}, err
	}
	s.metrics.RecordPosting("posted")
	s.bumpCache(ctx)
	return voucher, nil
}

// SoftDelete marks a voucher deleted and cascades the flag to its source
// document in the same transaction. Deleting an already-deleted voucher is a
// no-op success; the original deletion stamp is preserved.
func (s *Service) SoftDelete(ctx context.Context, voucherID uuid.UUID, actor shared.Actor) (JournalVoucher, error) {
	var out JournalVoucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetVoucherForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if current.IsDeleted {
			out = current
			return nil
		}
		now := s.now().UTC()
		by := actor.ID
		if err := tx.SetVoucherDeleted(ctx, voucherID, &now, &by); err != nil {
			return err
		}
		if err := tx.SetSourceDocumentDeleted(ctx, current.SourceType, current.SourceID, true); err != nil {
			return err
		}
		current.IsDeleted = true
		current.DeletedAt = &now
		current.DeletedBy = &by
		out = current
		return nil
	})
	if err != nil {
		return JournalVoucher{}, err
	}
	s.bumpCache(ctx)
	return out, nil
}

// Restore transitions a soft-deleted voucher back to active, clearing the
// cascade on its source document. Idempotent on active vouchers.
func (s *Service) Restore(ctx context.Context, voucherID uuid.UUID, actor shared.Actor) (JournalVoucher, error) {
	var out JournalVoucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetVoucherForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if !current.IsDeleted {
			out = current
			return nil
		}
		if err := tx.SetVoucherDeleted(ctx, voucherID, nil, nil); err != nil {
			return err
		}
		if err := tx.SetSourceDocumentDeleted(ctx, current.SourceType, current.SourceID, false); err != nil {
			return err
		}
		current.IsDeleted = false
		current.DeletedAt = nil
		current.DeletedBy = nil
		out = current
		return nil
	})
	if err != nil {
		return JournalVoucher{}, err
	}
	s.bumpCache(ctx)
	return out, nil
}

// PermanentDelete physically removes the voucher, its lines, and the journal
// reference on its source document. Administrative path only, and only
// reachable from the soft-deleted state; the freed sequence number is never
// reused.
func (s *Service) PermanentDelete(ctx context.Context, voucherID uuid.UUID, actor shared.Actor) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetVoucherForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if !current.IsDeleted {
			return ledgershared.ErrVoucherActive
		}
		if err := tx.UnlinkSourceDocument(ctx, voucherID); err != nil {
			return err
		}
		return tx.DeleteVoucher(ctx, voucherID)
	})
	if err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

// Get loads one voucher with its entries.
func (s *Service) Get(ctx context.Context, voucherID uuid.UUID) (JournalVoucher, error) {
	return s.repo.Get(ctx, voucherID)
}

// List returns a voucher page, served from the versioned cache when one is
// configured.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	key, err := s.cache.BuildKey(ctx, "vouchers", "list",
		filter.SourceType,
		strconv.Itoa(filter.Page),
		strconv.Itoa(filter.PerPage),
		strconv.FormatBool(filter.IncludeDeleted))
	if err != nil {
		// Cache trouble must not take listings down.
		s.logWarn("voucher cache key", err)
		return s.listUncached(ctx, filter)
	}
	var result ListResult
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		fresh, err := s.listUncached(ctx, filter)
		if err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		s.logWarn("voucher cache fetch", err)
		return s.listUncached(ctx, filter)
	}
	return result, nil
}

func (s *Service) listUncached(ctx context.Context, filter ListFilter) (ListResult, error) {
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Vouchers:   list,
		Pagination: shared.NewPagination(filter.Page, filter.PerPage, total),
	}, nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logWarn("voucher cache bump", err)
	}
}

func (s *Service) logWarn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err))
	}
}
