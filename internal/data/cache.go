package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Cache is a Redis-backed TTL cache for candle batches. A token-bucket limiter
// throttles writers so refresh loops cannot hammer the upstream data source.
type Cache struct {
	rdb     *redis.Client
	ttl     time.Duration
	limiter *rate.Limiter
}

// NewCache creates a candle cache with the given TTL and writer rate limit.
func NewCache(rdb *redis.Client, ttl time.Duration, rps float64, burst int) *Cache {
	return &Cache{
		rdb:     rdb,
		ttl:     ttl,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Key builds the cache key for an exchange/symbol/timeframe batch.
func (c *Cache) Key(exchange, symbol, timeframe string) string {
	sanitized := strings.ReplaceAll(symbol, "/", "-")
	return fmt.Sprintf("ohlcv:%s:%s:%s", exchange, sanitized, timeframe)
}

// PutCandles stores a candle batch under its partition key, honoring the
// writer rate limit. Blocks until a token is available or ctx is cancelled.
func (c *Cache) PutCandles(ctx context.Context, exchange, symbol, timeframe string, candles []Candle) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	payload, err := json.Marshal(candles)
	if err != nil {
		return fmt.Errorf("failed to marshal candles: %w", err)
	}

	key := c.Key(exchange, symbol, timeframe)
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache candles under %s: %w", key, err)
	}

	log.Debug().Str("key", key).Int("count", len(candles)).Msg("Cached candle batch")
	return nil
}

// GetCandles fetches a cached candle batch. The second return value reports
// whether the key was present.
func (c *Cache) GetCandles(ctx context.Context, exchange, symbol, timeframe string) ([]Candle, bool, error) {
	key := c.Key(exchange, symbol, timeframe)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	var candles []Candle
	if err := json.Unmarshal(raw, &candles); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return candles, true, nil
}
