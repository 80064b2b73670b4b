package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-service/internal/app"
	"trivia-service/internal/config"
	"trivia-service/internal/infra/memory"
	infraredis "trivia-service/internal/infra/redis"
	"trivia-service/internal/infra/sqlstore"
	"trivia-service/internal/infra/sqlstore/migrations"
)

// openStore builds the configured store and applies migrations for SQL drivers.
func openStore(ctx context.Context, cfg config.Config) (app.Store, func(), error) {
	if cfg.Database.Driver == "memory" {
		return memory.NewStore(), func() {}, nil
	}
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database url not configured for driver %q", cfg.Database.Driver)
	}
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	group, err := migrations.Up(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	if !group.IsZero() {
		slog.Info("migrations applied", "group", group.String())
	}
	return sqlstore.NewStore(db), func() { _ = db.Close() }, nil
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// questionCache picks the shared redis cache when available, else the in-process one.
func questionCache(client *redis.Client, store app.Store, ttl time.Duration) app.QuestionRepository {
	if client != nil {
		return infraredis.NewQuestionCache(client, store.Questions(), ttl)
	}
	return memory.NewQuestionCache(store.Questions(), ttl)
}
