package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	in := ProductDTO{ID: "p1", Name: "Organic Jaggery", Slug: "organic-jaggery"}
	require.NoError(t, cache.SetJSON(ctx, "catalog:product:organic-jaggery", in))

	var out ProductDTO
	ok, err := cache.GetJSON(ctx, "catalog:product:organic-jaggery", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in, out)
}

func TestCacheMissReportsFalse(t *testing.T) {
	cache, _ := newTestCache(t)
	var out ProductDTO
	ok, err := cache.GetJSON(context.Background(), "catalog:product:missing", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheTTLExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "catalog:categories", []CategoryDTO{{Slug: "grains"}}))

	mr.FastForward(2 * time.Minute)

	var out []CategoryDTO
	ok, err := cache.GetJSON(ctx, "catalog:categories", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "catalog:product:a", ProductDTO{ID: "a"}))
	require.NoError(t, cache.Invalidate(ctx, "catalog:product:a"))

	var out ProductDTO
	ok, err := cache.GetJSON(ctx, "catalog:product:a", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *Cache
	require.NoError(t, cache.SetJSON(context.Background(), "k", "v"))
	ok, err := cache.GetJSON(context.Background(), "k", new(string))
	require.NoError(t, err)
	require.False(t, ok)
}
