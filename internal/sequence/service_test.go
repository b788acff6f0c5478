package sequence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyager-erp/voyager-erp/internal/platform/db"
)

// memRepo is an in-memory sequence store. The mutex stands in for the
// serializable transaction: allocations are strictly ordered, as the real
// store guarantees via retry-on-conflict.
type memRepo struct {
	mu       sync.Mutex
	counters map[string]Counter

	allocErr error
	setErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{counters: make(map[string]Counter)}
}

func (r *memRepo) Allocate(ctx context.Context, key string, defaults Defaults) (Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allocErr != nil {
		return Counter{}, r.allocErr
	}
	c, ok := r.counters[key]
	if !ok {
		c = Counter{TypeKey: key, Label: defaults.Label, Prefix: defaults.Prefix, PadWidth: ClampPadWidth(defaults.PadWidth)}
	}
	c.Value++
	r.counters[key] = c
	return c, nil
}

func (r *memRepo) Set(ctx context.Context, key string, in SetInput) (Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return Counter{}, r.setErr
	}
	c := r.counters[key]
	c.TypeKey = key
	if in.Label != "" {
		c.Label = in.Label
	}
	if in.Prefix != "" {
		c.Prefix = in.Prefix
	}
	if in.PadWidth != 0 {
		c.PadWidth = ClampPadWidth(in.PadWidth)
	}
	if c.PadWidth == 0 {
		c.PadWidth = DefaultPadWidth
	}
	c.Value = in.Value
	r.counters[key] = c
	return c, nil
}

func (r *memRepo) Get(ctx context.Context, key string) (Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[key]
	if !ok {
		return Counter{}, ErrCounterNotFound
	}
	return c, nil
}

func (r *memRepo) List(ctx context.Context) ([]Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Counter, 0, len(r.counters))
	for _, c := range r.counters {
		out = append(out, c)
	}
	return out, nil
}

func TestAllocateFromEmptyState(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	first, err := svc.Allocate(ctx, "RC")
	require.NoError(t, err)
	assert.Equal(t, "RC-00001", first)

	second, err := svc.Allocate(ctx, "RC")
	require.NoError(t, err)
	assert.Equal(t, "RC-00002", second)
}

func TestAllocateNormalizesAliases(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	number, err := svc.Allocate(ctx, "visa")
	require.NoError(t, err)
	assert.Equal(t, "VS-00001", number)

	// The alias and the canonical key share one counter.
	number, err = svc.Allocate(ctx, "VS")
	require.NoError(t, err)
	assert.Equal(t, "VS-00002", number)
}

func TestAllocateUnknownKeyPassthrough(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	number, err := svc.Allocate(context.Background(), "insurance")
	require.NoError(t, err)
	assert.Equal(t, "INSURANCE-00001", number)
}

func TestAllocateConcurrentUniqueness(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	const n = 100
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := svc.Allocate(ctx, "BK")
			assert.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	var got []string
	for number := range numbers {
		got = append(got, number)
	}
	require.Len(t, got, n)
	sort.Strings(got)
	for i := 0; i < n; i++ {
		// Distinct, strictly increasing, gap-free when every call commits.
		assert.Equal(t, fmt.Sprintf("BK-%05d", i+1), got[i])
	}
}

func TestAllocateDifferentKeysIndependent(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	_, err := svc.Allocate(ctx, "RC")
	require.NoError(t, err)
	number, err := svc.Allocate(ctx, "PV")
	require.NoError(t, err)
	assert.Equal(t, "PV-00001", number)
}

func TestAllocateWrapsExhaustedRetries(t *testing.T) {
	repo := newMemRepo()
	repo.allocErr = fmt.Errorf("%w: serialization conflict", db.ErrTxRetriesExhausted)
	svc := NewService(repo, nil)

	_, err := svc.Allocate(context.Background(), "RC")
	var txFailure *TxFailure
	require.ErrorAs(t, err, &txFailure)
	assert.Equal(t, "RC", txFailure.TypeKey)
}

func TestAllocatePermanentErrorIsNotTransient(t *testing.T) {
	repo := newMemRepo()
	repo.allocErr = errors.New("permission denied for table sequence_counters")
	svc := NewService(repo, nil)

	// Only contention becomes TxFailure; a permanent database error must not
	// masquerade as retry-later.
	_, err := svc.Allocate(context.Background(), "RC")
	require.Error(t, err)
	var txFailure *TxFailure
	assert.False(t, errors.As(err, &txFailure))
	assert.ErrorIs(t, err, repo.allocErr)
}

func TestAllocateRequiresKey(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Allocate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestSetOverwritesCounter(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Set(ctx, "RC", SetInput{Label: "Receipts", Prefix: "RCP", Value: 100, PadWidth: 6})
	require.NoError(t, err)

	number, err := svc.Allocate(ctx, "RC")
	require.NoError(t, err)
	assert.Equal(t, "RCP-000101", number)
}

func TestSetRejectsNegativeValue(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Set(context.Background(), "RC", SetInput{Value: -1})
	assert.ErrorIs(t, err, ErrNegativeCounter)
}

func TestAllocatePersistsAcrossServices(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	first := NewService(repo, nil)
	_, err := first.Allocate(ctx, "JE")
	require.NoError(t, err)

	// A fresh service over the same store continues the sequence: the store
	// is the source of truth, never process memory.
	second := NewService(repo, nil)
	number, err := second.Allocate(ctx, "JE")
	require.NoError(t, err)
	assert.Equal(t, "JE-00002", number)
}
