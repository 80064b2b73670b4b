package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, err := store.Questions().Save(ctx, sampleQuestion("q1")); err != nil {
		t.Fatalf("save question: %v", err)
	}
	counting := &countingQuestions{QuestionRepository: store.Questions()}
	cache := NewQuestionCache(counting, time.Minute)

	if _, err := cache.GetByID(ctx, "q1"); err != nil {
		t.Fatalf("get question: %v", err)
	}
	if _, err := cache.GetByID(ctx, "q1"); err != nil {
		t.Fatalf("get question 2: %v", err)
	}
	if got := counting.count(); got != 1 {
		t.Fatalf("expected one backing read, got %d", got)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, _ = store.Questions().Save(ctx, sampleQuestion("q1"))
	counting := &countingQuestions{QuestionRepository: store.Questions()}
	cache := NewQuestionCache(counting, time.Minute)

	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetByID(ctx, "q1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetByID(ctx, "q1")
	if got := counting.count(); got != 2 {
		t.Fatalf("expected reload after expiry, got %d reads", got)
	}
}

func TestQuestionCacheDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	cache := NewQuestionCache(store.Questions(), time.Minute)

	if _, err := cache.GetByID(ctx, "q1"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, err := cache.Save(ctx, sampleQuestion("q1")); err != nil {
		t.Fatalf("save through cache: %v", err)
	}
	if _, err := cache.GetByID(ctx, "q1"); err != nil {
		t.Fatalf("expected question after save, got %v", err)
	}
}

type countingQuestions struct {
	app.QuestionRepository
	mu    sync.Mutex
	calls int
}

func (c *countingQuestions) GetByID(ctx context.Context, id string) (domain.Question, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.QuestionRepository.GetByID(ctx, id)
}

func (c *countingQuestions) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func sampleQuestion(id string) domain.Question {
	return domain.Question{
		ID:         id,
		Text:       "What is 2 + 2?",
		Difficulty: domain.DifficultyEasy,
		Options: []domain.Option{
			{ID: id + "-o1", Text: "3"},
			{ID: id + "-o2", Text: "4", Correct: true},
		},
	}
}
