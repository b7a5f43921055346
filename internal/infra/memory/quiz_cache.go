package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"starting5-service/internal/app"
	"starting5-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

const currentKey = "current"

// QuizCache caches quiz records in front of the filesystem store with TTL
// to avoid re-reading and re-normalizing the record on every request.
type QuizCache struct {
	inner app.QuizRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedRecord
}

type cachedRecord struct {
	record    domain.QuizRecord
	expiresAt time.Time
}

func NewQuizCache(inner app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		cache: make(map[string]cachedRecord),
	}
}

func (c *QuizCache) Current(ctx context.Context) (domain.QuizRecord, error) {
	return c.get(ctx, currentKey, func() (domain.QuizRecord, error) {
		return c.inner.Current(ctx)
	})
}

func (c *QuizCache) Load(ctx context.Context, path string) (domain.QuizRecord, error) {
	return c.get(ctx, "path:"+path, func() (domain.QuizRecord, error) {
		return c.inner.Load(ctx, path)
	})
}

func (c *QuizCache) get(_ context.Context, key string, load func() (domain.QuizRecord, error)) (domain.QuizRecord, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.record, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.record, nil
		}
		c.mu.RUnlock()

		record, err := load()
		if err != nil {
			return domain.QuizRecord{}, err
		}

		c.mu.Lock()
		c.cache[key] = cachedRecord{
			record:    record,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return record, nil
	})
	if err != nil {
		return domain.QuizRecord{}, err
	}
	return result.(domain.QuizRecord), nil
}

// ttlWithJitter uses the locked top-level rand functions: singleflight
// callbacks for distinct keys run concurrently.
func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
