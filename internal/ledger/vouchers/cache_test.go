package vouchers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return ListResult{Vouchers: []JournalVoucher{{InvoiceNumber: "RC-00001"}}}, nil
	}

	key, err := cache.BuildKey(ctx, "vouchers", "list", "", "1", "20", "false")
	require.NoError(t, err)

	var first ListResult
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	var second ListResult
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, loads)
	require.Len(t, second.Vouchers, 1)
	assert.Equal(t, "RC-00001", second.Vouchers[0].InvoiceNumber)
}

func TestBumpInvalidatesKeys(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "vouchers", "list", "1")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "vouchers", "list", "1")
	require.NoError(t, err)

	// Advancing the version reroutes every lookup to fresh keys; stale
	// entries just expire.
	assert.NotEqual(t, before, after)
}

func TestVersionInitialisesOnce(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	v1, err := cache.Version(ctx)
	require.NoError(t, err)
	v2, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestCacheDisabledWithoutClient(t *testing.T) {
	cache := NewCache(nil, 0)
	ctx := context.Background()

	require.NoError(t, cache.Bump(ctx))
	key, err := cache.BuildKey(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", key)

	loads := 0
	var out ListResult
	loader := func(ctx context.Context) (any, error) {
		loads++
		return ListResult{}, nil
	}
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	assert.Equal(t, 2, loads)
}
