package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"starting5-service/internal/app"
	"starting5-service/internal/domain"
)

// QuizCache caches quiz records in Redis as JSON and falls back to the
// filesystem store on cache miss. Records are stored as:
//
//	SET quiz:record:current           {envelope}
//	SET quiz:record:path:{abs path}   {envelope}
type QuizCache struct {
	client *redis.Client
	inner  app.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group
}

// envelope carries the file-derived fields that are excluded from the
// record's own JSON form.
type envelope struct {
	ID     string            `json:"id"`
	Path   string            `json:"path"`
	Record domain.QuizRecord `json:"record"`
}

func NewQuizCache(client *redis.Client, inner app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
	}
}

func (c *QuizCache) Current(ctx context.Context) (domain.QuizRecord, error) {
	return c.get(ctx, "current", func() (domain.QuizRecord, error) {
		return c.inner.Current(ctx)
	})
}

func (c *QuizCache) Load(ctx context.Context, path string) (domain.QuizRecord, error) {
	return c.get(ctx, "path:"+path, func() (domain.QuizRecord, error) {
		return c.inner.Load(ctx, path)
	})
}

func (c *QuizCache) get(ctx context.Context, key string, load func() (domain.QuizRecord, error)) (domain.QuizRecord, error) {
	if record, ok := c.lookup(ctx, key); ok {
		return record, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if record, ok := c.lookup(ctx, key); ok {
			return record, nil
		}

		record, err := load()
		if err != nil {
			return domain.QuizRecord{}, err
		}

		data, err := json.Marshal(envelope{ID: record.ID, Path: record.Path, Record: record})
		if err == nil {
			_ = c.client.Set(ctx, c.key(key), data, c.ttlWithJitter()).Err()
		}
		return record, nil
	})
	if err != nil {
		return domain.QuizRecord{}, err
	}
	return result.(domain.QuizRecord), nil
}

func (c *QuizCache) lookup(ctx context.Context, key string) (domain.QuizRecord, bool) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return domain.QuizRecord{}, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.QuizRecord{}, false
	}
	record := env.Record
	record.ID = env.ID
	record.Path = env.Path
	return record, true
}

func (c *QuizCache) key(key string) string {
	return "quiz:record:" + key
}

// ttlWithJitter uses the locked top-level rand functions: singleflight
// callbacks for distinct keys run concurrently.
func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
