package finmap

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
)

// Resolver caches the finance account map in memory with a short TTL. Every
// posting consults the map, so the cache bounds configuration reads while a
// settings edit becomes visible within the TTL.
type Resolver struct {
	repo Repository
	ttl  time.Duration

	mu        sync.RWMutex
	cached    FinanceAccountMap
	fetchedAt time.Time

	group singleflight.Group
}

// NewResolver builds a resolver. A non-positive ttl falls back to 5 seconds.
func NewResolver(repo Repository, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Resolver{repo: repo, ttl: ttl}
}

// GetMap returns the cached map, refreshing it behind a singleflight so a
// posting burst after expiry triggers a single configuration read.
func (r *Resolver) GetMap(ctx context.Context) (FinanceAccountMap, error) {
	r.mu.RLock()
	if !r.fetchedAt.IsZero() && time.Since(r.fetchedAt) < r.ttl {
		m := r.cached
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do("finmap", func() (any, error) {
		m, err := r.repo.Get(ctx)
		if err != nil {
			return FinanceAccountMap{}, err
		}
		r.mu.Lock()
		r.cached = m
		r.fetchedAt = time.Now()
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return FinanceAccountMap{}, err
	}
	return v.(FinanceAccountMap), nil
}

// Invalidate drops the cached map so the next read hits the store. Called
// after a settings update in this process; other replicas converge within
// the TTL.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()
}

// ResolveRevenueAccount maps a service kind (tickets, visas, ...) to its
// revenue account.
func (r *Resolver) ResolveRevenueAccount(ctx context.Context, serviceKind string) (int64, error) {
	m, err := r.GetMap(ctx)
	if err != nil {
		return 0, err
	}
	id, ok := m.RevenueMap[serviceKind]
	if !ok || id == 0 {
		return 0, &ledgershared.UnmappedAccountError{Role: "revenue:" + serviceKind}
	}
	return id, nil
}

// ResolveExpenseAccount maps a cost kind to its expense account.
func (r *Resolver) ResolveExpenseAccount(ctx context.Context, costKind string) (int64, error) {
	m, err := r.GetMap(ctx)
	if err != nil {
		return 0, err
	}
	id, ok := m.ExpenseMap[costKind]
	if !ok || id == 0 {
		return 0, &ledgershared.UnmappedAccountError{Role: "expense:" + costKind}
	}
	return id, nil
}

// ResolveReceivable returns the AR account. When no AR account is mapped and
// policy allows it, the default cash (then bank) account substitutes;
// directCash reports that the policy exception was taken so the caller tags
// the resulting voucher.
func (r *Resolver) ResolveReceivable(ctx context.Context) (accountID int64, directCash bool, err error) {
	m, err := r.GetMap(ctx)
	if err != nil {
		return 0, false, err
	}
	if m.ReceivableAccountID != 0 {
		return m.ReceivableAccountID, false, nil
	}
	if m.PreventDirectCashRevenue {
		return 0, false, &ledgershared.UnmappedAccountError{Role: "receivable"}
	}
	if m.DefaultCashID != 0 {
		return m.DefaultCashID, true, nil
	}
	if m.DefaultBankID != 0 {
		return m.DefaultBankID, true, nil
	}
	return 0, false, &ledgershared.UnmappedAccountError{Role: "receivable"}
}

// ResolvePayable returns the AP account.
func (r *Resolver) ResolvePayable(ctx context.Context) (int64, error) {
	m, err := r.GetMap(ctx)
	if err != nil {
		return 0, err
	}
	if m.PayableAccountID == 0 {
		return 0, &ledgershared.UnmappedAccountError{Role: "payable"}
	}
	return m.PayableAccountID, nil
}
