package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/client"
)

func newTestCache(t *testing.T) (*OTPCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewOTPCache(client.WrapRedisClient(rdb)), mr
}

func TestOTPCacheSetGet(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetCode(ctx, "+14155550100", "123456", 600))

	code, err := cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	ttl := mr.TTL("otp:+14155550100")
	assert.Equal(t, 600*time.Second, ttl)
}

func TestOTPCacheMissReturnsEmpty(t *testing.T) {
	cache, _ := newTestCache(t)

	code, err := cache.GetCode(context.Background(), "+19998887766")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestOTPCacheOverwriteResetsTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetCode(ctx, "+14155550100", "111111", 600))
	mr.FastForward(300 * time.Second)
	require.NoError(t, cache.SetCode(ctx, "+14155550100", "222222", 600))

	code, err := cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Equal(t, "222222", code)
	assert.Equal(t, 600*time.Second, mr.TTL("otp:+14155550100"))
}

func TestOTPCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetCode(ctx, "+14155550100", "123456", 600))
	mr.FastForward(601 * time.Second)

	code, err := cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestOTPCacheDelete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetCode(ctx, "+14155550100", "123456", 600))
	require.NoError(t, cache.DeleteCode(ctx, "+14155550100"))

	code, err := cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Empty(t, code)
}
