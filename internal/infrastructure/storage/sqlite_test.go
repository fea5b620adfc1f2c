package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestSlugMapRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	updatedAt, err := cache.SlugsUpdatedAt(ctx)
	require.NoError(t, err)
	assert.Zero(t, updatedAt)

	_, ok, err := cache.SlugFor(ctx, "btc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.ReplaceSlugs(ctx, map[string]string{
		"btc": "bitcoin",
		"eth": "ethereum",
	}))

	slug, ok, err := cache.SlugFor(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bitcoin", slug)

	updatedAt, err = cache.SlugsUpdatedAt(ctx)
	require.NoError(t, err)
	assert.NotZero(t, updatedAt)

	// Replace drops entries missing from the new map.
	require.NoError(t, cache.ReplaceSlugs(ctx, map[string]string{"sol": "solana"}))
	_, ok, err = cache.SlugFor(ctx, "btc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetricsCacheTTL(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	score := 83.5
	m := &domain.CoinMetrics{CommunityScore: &score}
	require.NoError(t, cache.SaveMetrics(ctx, "bitcoin", m))

	got, hit, err := cache.CachedMetrics(ctx, "bitcoin", 3600)
	require.NoError(t, err)
	require.True(t, hit)
	require.NotNil(t, got.CommunityScore)
	assert.Equal(t, score, *got.CommunityScore)
	assert.Nil(t, got.DeveloperScore)

	// A zero max age makes everything stale.
	_, hit, err = cache.CachedMetrics(ctx, "bitcoin", -1)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = cache.CachedMetrics(ctx, "ethereum", 3600)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSaveMetricsUpserts(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	first, second := 10.0, 20.0
	require.NoError(t, cache.SaveMetrics(ctx, "bitcoin", &domain.CoinMetrics{DeveloperScore: &first}))
	require.NoError(t, cache.SaveMetrics(ctx, "bitcoin", &domain.CoinMetrics{DeveloperScore: &second}))

	got, hit, err := cache.CachedMetrics(ctx, "bitcoin", 3600)
	require.NoError(t, err)
	require.True(t, hit)
	require.NotNil(t, got.DeveloperScore)
	assert.Equal(t, second, *got.DeveloperScore)
}
