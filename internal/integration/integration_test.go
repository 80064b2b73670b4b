package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
	infraredis "trivia-service/internal/infra/redis"
	"trivia-service/internal/infra/sqlstore"
	"trivia-service/internal/infra/sqlstore/migrations"
)

func TestPlayAnswerRankingEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := sqlstore.Open(ctx, sqlstore.DriverPgx, pgURL)
	if err != nil {
		t.Fatalf("open pgx: %v", err)
	}
	defer db.Close()
	if _, err := migrations.Up(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlstore.NewStore(db)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	hub := app.NewRankingHub()
	listener := infraredis.NewRankingListener(redisClient, app.NewRankingBroadcaster(hub, store.Participations()))
	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	go func() { _ = listener.Run(listenCtx) }()
	select {
	case <-listener.Ready():
	case <-time.After(10 * time.Second):
		t.Fatalf("ranking listener not ready")
	}

	catalog := app.NewCatalogService(store)
	questions := infraredis.NewQuestionCache(redisClient, store.Questions(), 5*time.Minute)
	service := app.NewTriviaService(store, questions, infraredis.NewRankingNotifier(redisClient))
	f := seedCatalog(t, ctx, catalog)

	updates, cancel := hub.Subscribe(f.trivia.ID)
	defer cancel()

	for _, user := range f.users {
		if _, err := service.PlayTrivia(ctx, user.ID, f.trivia.ID); err != nil {
			t.Fatalf("play %s: %v", user.Name, err)
		}
	}

	// Bob answers both correctly, Alice only the hard one.
	answer := func(user domain.User, q domain.Question, optionIdx int) app.AnswerResult {
		t.Helper()
		res, err := service.AnswerQuestion(ctx, app.AnswerInput{UserID: user.ID, TriviaID: f.trivia.ID, QuestionID: q.ID, OptionID: q.Options[optionIdx].ID})
		if err != nil {
			t.Fatalf("answer %s/%s: %v", user.Name, q.Text, err)
		}
		return res
	}
	alice, bob := f.users[0], f.users[1]
	easy, hard := f.questions[0], f.questions[1]

	answer(bob, easy, 1)
	if res := answer(bob, hard, 1); !res.Finished || *res.FinalScore != 4 {
		t.Fatalf("expected bob to finish with 4, got %+v", res)
	}
	answer(alice, hard, 1)

	_, err = service.AnswerQuestion(ctx, app.AnswerInput{UserID: alice.ID, TriviaID: f.trivia.ID, QuestionID: hard.ID, OptionID: hard.Options[0].ID})
	if !errors.Is(err, domain.ErrQuestionAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	ranking, err := service.Ranking(ctx, f.trivia.ID)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(ranking.Entries) != 2 || ranking.Entries[0].UserID != bob.ID || ranking.Entries[1].UserID != alice.ID {
		t.Fatalf("expected bob then alice, got %+v", ranking.Entries)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case update := <-updates:
			if len(update.Entries) == 2 && update.Entries[1].Score == 3 {
				return
			}
		case <-deadline:
			t.Fatalf("expected ranking update through redis")
		}
	}
}

func TestConcurrentAnswersOnPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()
	if _, err := migrations.Up(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlstore.NewStore(db)
	service := app.NewTriviaService(store, nil, nil)
	f := seedCatalog(t, ctx, app.NewCatalogService(store))
	user, q := f.users[0], f.questions[1]

	if _, err := service.PlayTrivia(ctx, user.ID, f.trivia.ID); err != nil {
		t.Fatalf("play: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AnswerQuestion(ctx, app.AnswerInput{UserID: user.ID, TriviaID: f.trivia.ID, QuestionID: q.ID, OptionID: q.Options[1].ID})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrQuestionAlreadyAnswered) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("expected exactly one accepted answer, got %d", accepted)
	}
	p, err := store.Participations().GetByTriviaAndUser(ctx, f.trivia.ID, user.ID)
	if err != nil {
		t.Fatalf("participation: %v", err)
	}
	if p.Score != 3 {
		t.Fatalf("expected hard question scored once, got %d", p.Score)
	}
}

type catalogFixture struct {
	users     []domain.User
	questions []domain.Question
	trivia    domain.Trivia
}

func seedCatalog(t *testing.T, ctx context.Context, catalog *app.CatalogService) catalogFixture {
	t.Helper()
	var f catalogFixture
	for _, u := range [][2]string{{"Alice", "alice@example.com"}, {"Bob", "bob@example.com"}} {
		user, err := catalog.CreateUser(ctx, u[0], u[1])
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		f.users = append(f.users, user)
	}
	for _, d := range []string{"easy", "hard"} {
		q, err := catalog.CreateQuestion(ctx, app.QuestionInput{
			Text:       "An " + d + " question",
			Difficulty: d,
			Options:    []app.OptionInput{{Text: "wrong"}, {Text: "right", Correct: true}},
		})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		f.questions = append(f.questions, q)
	}
	trivia, err := catalog.CreateTrivia(ctx, app.TriviaInput{
		Name:        "Integration",
		QuestionIDs: []string{f.questions[0].ID, f.questions[1].ID},
		UserIDs:     []string{f.users[0].ID, f.users[1].ID},
	})
	if err != nil {
		t.Fatalf("create trivia: %v", err)
	}
	f.trivia = trivia
	return f
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
