package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoedge/tradecore/internal/models"
)

func newTestCache(t *testing.T) (*MarketCache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewMarketCache(client, logger), server
}

func TestMarketCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	metrics := &models.MarketMetrics{
		Symbol:         "BTCUSDT",
		Price:          50000,
		Volume24h:      2.5e9,
		MarketCap:      1e12,
		PriceChange24h: -3.2,
		Timestamp:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, cache.Set(ctx, metrics))

	got, err := cache.Get(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, metrics, got)
}

func TestMarketCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), "ETHUSDT")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestMarketCacheExpiry(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.MarketMetrics{Symbol: "BTCUSDT", Price: 50000}))

	server.FastForward(defaultTTL + time.Second)

	_, err := cache.Get(ctx, "BTCUSDT")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestMarketCacheGetAllSkipsMissing(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.MarketMetrics{Symbol: "BTCUSDT", Price: 50000}))
	require.NoError(t, cache.Set(ctx, &models.MarketMetrics{Symbol: "SOLUSDT", Price: 150}))

	got := cache.GetAll(ctx, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"})

	require.Len(t, got, 2)
	assert.Contains(t, got, "BTCUSDT")
	assert.Contains(t, got, "SOLUSDT")
	assert.NotContains(t, got, "ETHUSDT")
}

func TestMarketCacheDelete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.MarketMetrics{Symbol: "BTCUSDT", Price: 50000}))
	require.NoError(t, cache.Delete(ctx, "BTCUSDT"))

	_, err := cache.Get(ctx, "BTCUSDT")
	assert.ErrorIs(t, err, ErrNotCached)
}
