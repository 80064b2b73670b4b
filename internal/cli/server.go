package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trivia-service/internal/app"
	"trivia-service/internal/config"
	infraredis "trivia-service/internal/infra/redis"
	"trivia-service/internal/logging"
	transport "trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	var seedFile string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, seedFile)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config)")
	cmd.Flags().StringVar(&seedFile, "seed", "", "YAML fixtures to load before serving")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag, seedFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}
	questions := questionCache(redisClient, store, config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute))

	hub := app.NewRankingHub()
	broadcaster := app.NewRankingBroadcaster(hub, store.Participations())
	var notifier app.RankingNotifier = broadcaster
	var listener *infraredis.RankingListener
	if redisClient != nil {
		notifier = infraredis.NewRankingNotifier(redisClient)
		listener = infraredis.NewRankingListener(redisClient, broadcaster)
	}

	catalog := app.NewCatalogService(store)
	trivia := app.NewTriviaService(store, questions, notifier)
	if seedFile != "" {
		if err := seedFromFile(ctx, catalog, seedFile); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(transport.NewHandler(catalog, trivia, store), transport.NewWSHandler(trivia, hub), logger),
		ReadTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting trivia service", "port", finalPort, "database", cfg.Database.Driver, "redis", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if listener != nil {
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
