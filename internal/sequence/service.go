package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/voyager-erp/voyager-erp/internal/observability"
	"github.com/voyager-erp/voyager-erp/internal/platform/db"
)

// Service is the sequence allocator. It owns the only retry loop in the
// ledger core; callers treat an error as a hard failure of the whole business
// operation.
type Service struct {
	repo    Repository
	metrics *observability.Metrics
}

func NewService(repo Repository, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, metrics: metrics}
}

// Allocate mints the next voucher number for the given business name or type
// key. Two concurrent callers for the same key never observe the same value;
// committed allocations have no gaps.
func (s *Service) Allocate(ctx context.Context, typeKeyRaw string) (string, error) {
	key, _ := Normalize(typeKeyRaw)
	if key == "" {
		return "", ErrKeyRequired
	}
	counter, err := s.repo.Allocate(ctx, key, DefaultsFor(key))
	if err != nil {
		if isContention(err) {
			return "", &TxFailure{TypeKey: key, Err: err}
		}
		return "", fmt.Errorf("sequence: allocate %s: %w", key, err)
	}
	s.metrics.RecordAllocation(key)
	return Format(counter.Prefix, counter.PadWidth, counter.Value), nil
}

// Set administratively overwrites a counter, e.g. to fix a mis-seeded value.
// It runs under the same transactional discipline as Allocate.
func (s *Service) Set(ctx context.Context, typeKeyRaw string, in SetInput) (Counter, error) {
	key, _ := Normalize(typeKeyRaw)
	if key == "" {
		return Counter{}, ErrKeyRequired
	}
	if in.Value < 0 {
		return Counter{}, ErrNegativeCounter
	}
	counter, err := s.repo.Set(ctx, key, in)
	if err != nil {
		if isContention(err) {
			return Counter{}, &TxFailure{TypeKey: key, Err: err}
		}
		return Counter{}, fmt.Errorf("sequence: set %s: %w", key, err)
	}
	return counter, nil
}

// isContention reports whether err is serialization contention, the only
// failure class TxFailure stands for. Cancellation and permanent database
// errors pass through untranslated.
func isContention(err error) bool {
	return errors.Is(err, db.ErrTxRetriesExhausted) || db.IsSerializationFailure(err)
}

// Get returns one counter row.
func (s *Service) Get(ctx context.Context, typeKeyRaw string) (Counter, error) {
	key, _ := Normalize(typeKeyRaw)
	return s.repo.Get(ctx, key)
}

// List enumerates all counters for the settings screens.
func (s *Service) List(ctx context.Context) ([]Counter, error) {
	return s.repo.List(ctx)
}
