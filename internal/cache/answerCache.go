package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/pkg/logger_i"
)

// CachedAnswer is a served response kept for identical repeat queries.
type CachedAnswer struct {
	Answer  string                      `json:"answer"`
	Sources []docmodel.RetrievedPassage `json:"sources"`
}

// AnswerCache is an optional exact-match query cache on Redis. A nil
// *AnswerCache is valid and means caching is disabled; every method
// tolerates it.
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger_i.Logger
}

// New connects to Redis and returns nil when Redis is unreachable — the
// service runs fine without the cache.
func New(ctx context.Context, addr string) *AnswerCache {
	log := logger_i.NewLogger("Answer Cache")

	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		DB:                    config.RedisAnswerDB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis is offline, answer cache disabled", "addr", addr, "error", err)
		return nil
	}

	log.Info("answer cache connected", "addr", addr)
	return &AnswerCache{client: client, ttl: config.AnswerCacheTTL, logger: log}
}

// NewWithClient wires an existing client; used by tests.
func NewWithClient(client *redis.Client) *AnswerCache {
	return &AnswerCache{
		client: client,
		ttl:    config.AnswerCacheTTL,
		logger: logger_i.NewLogger("Answer Cache"),
	}
}

func (c *AnswerCache) Get(ctx context.Context, query string, k int) (*CachedAnswer, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(query, k)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache lookup failed", "error", err)
		}
		return nil, false
	}
	var cached CachedAnswer
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.logger.Warn("corrupt cache entry dropped", "error", err)
		return nil, false
	}
	return &cached, true
}

func (c *AnswerCache) Put(ctx context.Context, query string, k int, answer *CachedAnswer) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("encoding cached answer: %w", err)
	}
	return c.client.Set(ctx, cacheKey(query, k), raw, c.ttl).Err()
}

func (c *AnswerCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func cacheKey(query string, k int) string {
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf("answer:%s:%d", hex.EncodeToString(sum[:]), k)
}
