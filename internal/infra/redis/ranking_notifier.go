package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"trivia-service/internal/app"
)

// RankingChannel carries the ids of trivias whose ranking changed.
const RankingChannel = "trivia:ranking:changed"

// RankingNotifier publishes ranking changes so every instance can refresh
// its local subscribers.
type RankingNotifier struct {
	client *redis.Client
}

func NewRankingNotifier(client *redis.Client) *RankingNotifier {
	return &RankingNotifier{client: client}
}

func (n *RankingNotifier) NotifyRankingChanged(ctx context.Context, triviaID string) error {
	if err := n.client.Publish(ctx, RankingChannel, triviaID).Err(); err != nil {
		return fmt.Errorf("publish ranking change: %w", err)
	}
	return nil
}

// RankingListener forwards published ranking changes to a local notifier.
type RankingListener struct {
	client *redis.Client
	local  app.RankingNotifier
	logger *slog.Logger
	ready  chan struct{}
}

func NewRankingListener(client *redis.Client, local app.RankingNotifier) *RankingListener {
	return &RankingListener{
		client: client,
		local:  local,
		logger: slog.Default(),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the subscription is confirmed by the server.
func (l *RankingListener) Ready() <-chan struct{} {
	return l.ready
}

// Run forwards notifications until ctx is canceled.
func (l *RankingListener) Run(ctx context.Context) error {
	pubsub := l.client.Subscribe(ctx, RankingChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", RankingChannel, err)
	}
	close(l.ready)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := l.local.NotifyRankingChanged(ctx, msg.Payload); err != nil {
				l.logger.Warn("ranking refresh failed", "trivia_id", msg.Payload, "error", err)
			}
		}
	}
}
