package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestReadCachePopulatesOnMiss(t *testing.T) {
	cache := NewReadCache(testRedis(t), time.Minute)
	key := Key("t1", "coupon", "/v1/coupons", "page=1")

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return map[string]string{"id": "c-1"}, nil
	}

	var first, second map[string]string
	require.NoError(t, cache.FetchJSON(context.Background(), key, &first, loader))
	require.NoError(t, cache.FetchJSON(context.Background(), key, &second, loader))

	require.Equal(t, 1, loads)
	require.Equal(t, "c-1", second["id"])
}

func TestReadCacheInvalidateScopedToService(t *testing.T) {
	cache := NewReadCache(testRedis(t), time.Minute)

	loads := map[string]int{}
	loaderFor := func(name string) func(context.Context) (any, error) {
		return func(ctx context.Context) (any, error) {
			loads[name]++
			return map[string]string{"from": name}, nil
		}
	}

	couponKey := Key("t1", "coupon", "/v1/coupons", "")
	taxKey := Key("t1", "tax", "/v1/classes", "")
	var out map[string]string
	require.NoError(t, cache.FetchJSON(context.Background(), couponKey, &out, loaderFor("coupon")))
	require.NoError(t, cache.FetchJSON(context.Background(), taxKey, &out, loaderFor("tax")))

	require.NoError(t, cache.Invalidate(context.Background(), "t1", "coupon"))

	require.NoError(t, cache.FetchJSON(context.Background(), couponKey, &out, loaderFor("coupon")))
	require.NoError(t, cache.FetchJSON(context.Background(), taxKey, &out, loaderFor("tax")))

	require.Equal(t, 2, loads["coupon"])
	require.Equal(t, 1, loads["tax"])
}

func TestReadCacheNilClientDegradesToLoader(t *testing.T) {
	var cache *ReadCache
	var out map[string]string
	err := cache.FetchJSON(context.Background(), "any", &out, func(ctx context.Context) (any, error) {
		return map[string]string{"direct": "yes"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "yes", out["direct"])
}
