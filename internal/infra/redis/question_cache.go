package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
	"trivia-service/internal/metrics"
)

// QuestionCache caches questions in Redis as JSON (one key per question) and
// falls back to the wrapped repository on a miss. Redis failures degrade to
// direct reads.
//
//	SET trivia:question:{questionID} {json} EX ttl
type QuestionCache struct {
	client *redis.Client
	next   app.QuestionRepository
	ttl    time.Duration
	sf     singleflight.Group
	logger *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, next app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: slog.Default(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetByID(ctx context.Context, id string) (domain.Question, error) {
	if q, ok := c.read(ctx, id); ok {
		metrics.CacheHits.WithLabelValues("redis").Inc()
		return q, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.read(ctx, id); ok {
			return q, nil
		}
		metrics.CacheMisses.WithLabelValues("redis").Inc()

		q, err := c.next.GetByID(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		c.write(ctx, q)
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) Save(ctx context.Context, question domain.Question) (domain.Question, error) {
	saved, err := c.next.Save(ctx, question)
	if err != nil {
		return domain.Question{}, err
	}
	c.write(ctx, saved)
	return saved, nil
}

func (c *QuestionCache) GetAll(ctx context.Context) ([]domain.Question, error) {
	return c.next.GetAll(ctx)
}

func (c *QuestionCache) read(ctx context.Context, id string) (domain.Question, bool) {
	raw, err := c.client.Get(ctx, questionKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("question cache read failed", "question_id", id, "error", err)
		}
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		c.logger.Warn("question cache entry corrupt", "question_id", id, "error", err)
		return domain.Question{}, false
	}
	return q, true
}

func (c *QuestionCache) write(ctx context.Context, q domain.Question) {
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, questionKey(q.ID), raw, c.ttlWithJitter()).Err(); err != nil {
		c.logger.Warn("question cache write failed", "question_id", q.ID, "error", err)
	}
}

func questionKey(id string) string {
	return "trivia:question:" + id
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
