package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
	"trivia-service/internal/metrics"
)

// QuestionCache caches questions with TTL to avoid repeated store hits.
// Questions are immutable once stored, so only expiry evicts them.
type QuestionCache struct {
	next  app.QuestionRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(next app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedQuestion),
	}
}

func (c *QuestionCache) GetByID(ctx context.Context, id string) (domain.Question, error) {
	if q, ok := c.lookup(id); ok {
		metrics.CacheHits.WithLabelValues("memory").Inc()
		return q, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		if q, ok := c.lookup(id); ok {
			return q, nil
		}
		metrics.CacheMisses.WithLabelValues("memory").Inc()

		q, err := c.next.GetByID(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		c.store(q)
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
	c.store(saved)
	return saved, nil
}

func (c *QuestionCache) GetAll(ctx context.Context) ([]domain.Question, error) {
	return c.next.GetAll(ctx)
}

func (c *QuestionCache) lookup(id string) (domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Question{}, false
	}
	return entry.question, true
}

func (c *QuestionCache) store(q domain.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[q.ID] = cachedQuestion{question: q, expiresAt: c.clock().Add(c.ttlWithJitter())}
}

// ttlWithJitter must be called with mu held.
func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
