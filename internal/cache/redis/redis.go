// Package redis caches canonical extraction results in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"docintake/internal/config"
	"docintake/internal/domain"
)

const defaultTTL = 24 * time.Hour

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg *config.CacheConfig) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}
	return client, nil
}

// ExtractionCache implements port.ExtractionCache.
type ExtractionCache struct {
	client redisv9.Cmdable
	ttl    time.Duration
}

// NewExtractionCache creates a cache whose entries expire after ttl.
func NewExtractionCache(client redisv9.Cmdable, ttl time.Duration) *ExtractionCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ExtractionCache{client: client, ttl: ttl}
}

func (c *ExtractionCache) Get(ctx context.Context, key string) (*domain.ExtractionResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get extraction failed: %w", err)
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached extraction failed: %w", err)
	}
	return &result, true, nil
}

func (c *ExtractionCache) Set(ctx context.Context, key string, result *domain.ExtractionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal extraction cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set extraction failed: %w", err)
	}
	return nil
}

// PingContext reports whether Redis is reachable.
func (c *ExtractionCache) PingContext(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
