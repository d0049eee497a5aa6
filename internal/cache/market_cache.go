package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/models"
)

// ErrNotCached is returned when no metrics are cached for a symbol.
var ErrNotCached = errors.New("market metrics not cached")

// defaultTTL bounds how long cached market metrics stay fresh.
const defaultTTL = 5 * time.Minute

// MarketCache stores the latest market metrics per symbol in Redis so the
// risk endpoints can fall back to recent data when the caller omits it.
type MarketCache struct {
	client *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
}

// NewMarketCache creates a market metrics cache with the default TTL.
func NewMarketCache(client *redis.Client, logger *logrus.Logger) *MarketCache {
	return &MarketCache{
		client: client,
		logger: logger,
		ttl:    defaultTTL,
	}
}

func marketKey(symbol string) string {
	return fmt.Sprintf("market:metrics:%s", symbol)
}

// Set stores the latest metrics for one symbol.
func (c *MarketCache) Set(ctx context.Context, metrics *models.MarketMetrics) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode market metrics: %w", err)
	}

	if err := c.client.Set(ctx, marketKey(metrics.Symbol), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache market metrics for %s: %w", metrics.Symbol, err)
	}
	return nil
}

// Get returns the cached metrics for a symbol, or ErrNotCached.
func (c *MarketCache) Get(ctx context.Context, symbol string) (*models.MarketMetrics, error) {
	payload, err := c.client.Get(ctx, marketKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read market metrics for %s: %w", symbol, err)
	}

	var metrics models.MarketMetrics
	if err := json.Unmarshal(payload, &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode market metrics for %s: %w", symbol, err)
	}
	return &metrics, nil
}

// GetAll returns whatever cached metrics exist for the given symbols,
// keyed by symbol. Missing symbols are skipped; transport errors are
// logged and skipped so a degraded cache never blocks an evaluation.
func (c *MarketCache) GetAll(ctx context.Context, symbols []string) map[string]models.MarketMetrics {
	result := make(map[string]models.MarketMetrics)

	for _, symbol := range symbols {
		metrics, err := c.Get(ctx, symbol)
		if errors.Is(err, ErrNotCached) {
			continue
		}
		if err != nil {
			c.logger.Warnf("Market cache lookup failed for %s: %v", symbol, err)
			continue
		}
		result[symbol] = *metrics
	}

	return result
}

// Delete removes the cached metrics for a symbol.
func (c *MarketCache) Delete(ctx context.Context, symbol string) error {
	return c.client.Del(ctx, marketKey(symbol)).Err()
}
