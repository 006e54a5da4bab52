package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestAside_FetchesOnceThenServesFromCache(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{Name: "golang", Count: 3}
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, "k", &first, time.Minute, fetch(&first)))
	var second payload
	require.NoError(t, Aside(ctx, "k", &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("k"))
	assert.InDelta(t, time.Minute.Seconds(), mr.TTL("k").Seconds(), 1)
}

func TestAside_FetchErrorIsReturnedAndNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("boom")

	var dest payload
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestAside_WithoutRedisAlwaysFetches(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest payload
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "k", &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestRevokeToken(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	assert.False(t, IsTokenRevoked(ctx, "jti-1"))
	require.NoError(t, RevokeToken(ctx, "jti-1", time.Minute))
	assert.True(t, IsTokenRevoked(ctx, "jti-1"))
	assert.False(t, IsTokenRevoked(ctx, "jti-2"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, IsTokenRevoked(ctx, "jti-1"))
}

func TestInvalidatePopularTags(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PopularTagsKey(10), []string{"a"}, time.Minute))
	require.NoError(t, SetJSON(ctx, PopularTagsKey(20), []string{"b"}, time.Minute))
	require.NoError(t, SetJSON(ctx, PublicProfileKey("alice"), "x", time.Minute))

	InvalidatePopularTags(ctx)

	assert.False(t, mr.Exists(PopularTagsKey(10)))
	assert.False(t, mr.Exists(PopularTagsKey(20)))
	assert.True(t, mr.Exists(PublicProfileKey("alice")))
}

func TestMetadataKey_IsStableAndBounded(t *testing.T) {
	a := MetadataKey("https://example.com/a")
	assert.Equal(t, a, MetadataKey("https://example.com/a"))
	assert.NotEqual(t, a, MetadataKey("https://example.com/b"))
	assert.Len(t, a, len("metadata:")+64)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { SetClient(nil) })

	t.Run("Plain address", func(t *testing.T) {
		rdb := InitRedis(mr.Addr())
		require.NotNil(t, rdb)
		assert.Same(t, rdb, GetClient())
		_ = rdb.Close()
	})

	t.Run("URL", func(t *testing.T) {
		rdb := InitRedis("redis://" + mr.Addr() + "/0")
		require.NotNil(t, rdb)
		_ = rdb.Close()
	})

	t.Run("Unreachable server leaves the cache disabled", func(t *testing.T) {
		addr := mr.Addr()
		mr.Close()
		assert.Nil(t, InitRedis(addr))
		assert.Nil(t, GetClient())
	})

	t.Run("Malformed URL", func(t *testing.T) {
		assert.Nil(t, InitRedis("redis://:bad:port/x"))
	})
}
