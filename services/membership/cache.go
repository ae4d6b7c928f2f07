package membership

import (
	"context"
	"fmt"
	"time"

	"gymcheckin/services/cache"
	"gymcheckin/services/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "membership_status:"

// CachedValidator serves statuses from redis for a short TTL. Redis failures
// are logged and the lookup falls through to the wrapped provider. NotFound
// results are never cached.
type CachedValidator struct {
	next   StatusProvider
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

type CacheOptions struct {
	Redis  *redis.Client
	TTL    time.Duration
	Logger logger.Logger
}

// NewCachedValidator wraps next. A nil client or non-positive TTL disables caching.
func NewCachedValidator(next StatusProvider, opts CacheOptions) *CachedValidator {
	c := &CachedValidator{
		next:   next,
		rdb:    opts.Redis,
		ttl:    opts.TTL,
		logger: opts.Logger,
	}
	if c.logger == nil {
		c.logger = logger.Nop{}
	}
	return c
}

func cacheKey(subjectID uint) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, subjectID)
}

func (c *CachedValidator) enabled() bool {
	return c.rdb != nil && c.ttl > 0
}

func (c *CachedValidator) CurrentStatus(ctx context.Context, subjectID uint) (Status, error) {
	if !c.enabled() {
		return c.next.CurrentStatus(ctx, subjectID)
	}

	key := cacheKey(subjectID)
	var cached Status
	found, err := cache.Get(ctx, c.rdb, key, &cached)
	if err != nil {
		c.logger.Error("read membership cache %s: %v", key, err)
	} else if found {
		return cached, nil
	}

	status, err := c.next.CurrentStatus(ctx, subjectID)
	if err != nil {
		return Status{}, err
	}
	if err := cache.Set(ctx, c.rdb, key, status, c.ttl); err != nil {
		c.logger.Error("write membership cache %s: %v", key, err)
	}
	return status, nil
}

// Invalidate drops the cached status for subjectID.
func (c *CachedValidator) Invalidate(ctx context.Context, subjectID uint) error {
	if !c.enabled() {
		return nil
	}
	return cache.Delete(ctx, c.rdb, cacheKey(subjectID))
}
