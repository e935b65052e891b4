package search

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/mockup-social/backend/pkg/cache"
	"github.com/sirupsen/logrus"
)

// ResultCache stores ranked results per normalized term. Misses and
// failures look the same to the matcher.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]Result, bool)
	Set(ctx context.Context, key string, results []Result)
}

// RedisResultCache keeps results in Redis for a fixed TTL.
type RedisResultCache struct {
	client *cache.RedisClient
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRedisResultCache(client *cache.RedisClient, ttl time.Duration, log logrus.FieldLogger) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl, log: log}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) ([]Result, bool) {
	var results []Result
	if err := c.client.GetJSON(ctx, key, &results); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.WithError(err).WithField("key", key).Warn("search cache read failed")
		}
		return nil, false
	}
	return results, true
}

func (c *RedisResultCache) Set(ctx context.Context, key string, results []Result) {
	if err := c.client.SetJSON(ctx, key, results, c.ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("search cache write failed")
	}
}
