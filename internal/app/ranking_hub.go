package app

import (
	"context"
	"sync"
	"time"

	"trivia-service/internal/domain"
	"trivia-service/internal/metrics"
)

// RankingHub fans ranking snapshots out to live subscribers per trivia.
type RankingHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Ranking]struct{}
}

func NewRankingHub() *RankingHub {
	return &RankingHub{subscribers: make(map[string]map[chan domain.Ranking]struct{})}
}

// Subscribe returns a channel that receives ranking updates for a trivia.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *RankingHub) Subscribe(triviaID string) (<-chan domain.Ranking, func()) {
	ch := make(chan domain.Ranking, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[triviaID]
	if !ok {
		subs = make(map[chan domain.Ranking]struct{})
		h.subscribers[triviaID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()
	metrics.RankingSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.subscribers[triviaID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, triviaID)
				}
			}
			close(ch)
			h.mu.Unlock()
			metrics.RankingSubscribers.Dec()
		})
	}
	return ch, cancel
}

// Publish delivers ranking to every subscriber of its trivia. A subscriber that
// has not drained its buffer loses the oldest pending snapshot.
func (h *RankingHub) Publish(ranking domain.Ranking) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[ranking.TriviaID] {
		select {
		case ch <- ranking:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ranking
		}
	}
}

// Subscribers reports how many live subscriptions a trivia has.
func (h *RankingHub) Subscribers(triviaID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[triviaID])
}

// RankingBroadcaster reloads the ranking of a changed trivia and publishes it
// to a hub. It satisfies RankingNotifier for single-instance deployments and
// is the local sink of the redis listener for multi-instance ones.
type RankingBroadcaster struct {
	hub            *RankingHub
	participations ParticipationRepository
	now            func() time.Time
}

func NewRankingBroadcaster(hub *RankingHub, participations ParticipationRepository) *RankingBroadcaster {
	return &RankingBroadcaster{hub: hub, participations: participations, now: time.Now}
}

func (b *RankingBroadcaster) NotifyRankingChanged(ctx context.Context, triviaID string) error {
	if b.hub.Subscribers(triviaID) == 0 {
		return nil
	}
	ranking, err := loadRanking(ctx, b.participations, triviaID, b.now())
	if err != nil {
		return err
	}
	b.hub.Publish(ranking)
	return nil
}
