package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
	"trivia-service/internal/metrics"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// Open connects to url with the given driver and returns a bun DB with the matching dialect.
// postgres goes through bun's pgdriver, pgx through the pgx stdlib adapter.
func Open(ctx context.Context, driver, url string) (*bun.DB, error) {
	var db *bun.DB
	switch driver {
	case DriverPostgres:
		db = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url))), pgdialect.New())
	case DriverPgx:
		sqldb, err := sql.Open("pgx", url)
		if err != nil {
			return nil, fmt.Errorf("open pgx: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", sqliteDSN(url))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// sqliteDSN enables WAL, a busy timeout, and immediate transactions unless the
// caller already configured pragmas.
func sqliteDSN(url string) string {
	if strings.Contains(url, "_pragma") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// Store implements app.Store on top of bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) live() conn { return conn{db: s.db, root: s.db} }

func (s *Store) Users() app.UserRepository                   { return userRepo{s.live()} }
func (s *Store) Questions() app.QuestionRepository           { return questionRepo{s.live()} }
func (s *Store) Trivias() app.TriviaRepository               { return triviaRepo{s.live()} }
func (s *Store) Participations() app.ParticipationRepository { return participationRepo{s.live()} }
func (s *Store) Answers() app.AnswerRepository               { return answerRepo{s.live()} }

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Repositories) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, txRepos{conn{db: tx}})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	defer metrics.RecordDBOperation("ping", "", time.Now())
	return s.db.PingContext(ctx)
}

type txRepos struct {
	c conn
}

func (t txRepos) Users() app.UserRepository                   { return userRepo{t.c} }
func (t txRepos) Questions() app.QuestionRepository           { return questionRepo{t.c} }
func (t txRepos) Trivias() app.TriviaRepository               { return triviaRepo{t.c} }
func (t txRepos) Participations() app.ParticipationRepository { return participationRepo{t.c} }
func (t txRepos) Answers() app.AnswerRepository               { return answerRepo{t.c} }

// conn is what repositories query through. root is nil inside a transaction.
type conn struct {
	db   bun.IDB
	root *bun.DB
}

// inTx runs fn in a transaction unless the repository already is in one.
func (c conn) inTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	if c.root == nil {
		return fn(ctx, c.db)
	}
	return c.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

type userRepo struct{ conn }

func (r userRepo) Save(ctx context.Context, user domain.User) (domain.User, error) {
	defer metrics.RecordDBOperation("insert", "users", time.Now())
	row := userRow{ID: user.ID, Name: user.Name, Email: user.Email}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.User{}, translate(err, nil, "user "+user.Email)
	}
	return user, nil
}

func (r userRepo) GetAll(ctx context.Context) ([]domain.User, error) {
	defer metrics.RecordDBOperation("select", "users", time.Now())
	var rows []userRow
	if err := r.db.NewSelect().Model(&rows).OrderExpr("u.name ASC, u.id ASC").Scan(ctx); err != nil {
		return nil, translate(err, nil, "list users")
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	defer metrics.RecordDBOperation("select", "users", time.Now())
	var row userRow
	if err := r.db.NewSelect().Model(&row).Where("u.id = ?", id).Scan(ctx); err != nil {
		return domain.User{}, translate(err, domain.ErrUserNotFound, "user "+id)
	}
	return row.toDomain(), nil
}

type questionRepo struct{ conn }

func (r questionRepo) Save(ctx context.Context, question domain.Question) (domain.Question, error) {
	defer metrics.RecordDBOperation("insert", "questions", time.Now())
	err := r.inTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		row := questionRow{ID: question.ID, Text: question.Text, Difficulty: string(question.Difficulty)}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		if len(question.Options) == 0 {
			return nil
		}
		options := make([]optionRow, 0, len(question.Options))
		for i, o := range question.Options {
			options = append(options, optionRow{ID: o.ID, QuestionID: question.ID, Position: i, Text: o.Text, Correct: o.Correct})
		}
		_, err := tx.NewInsert().Model(&options).Exec(ctx)
		return err
	})
	if err != nil {
		return domain.Question{}, translate(err, nil, "question "+question.ID)
	}
	return question, nil
}

func (r questionRepo) GetAll(ctx context.Context) ([]domain.Question, error) {
	defer metrics.RecordDBOperation("select", "questions", time.Now())
	var rows []questionRow
	if err := r.db.NewSelect().Model(&rows).OrderExpr("q.id ASC").Scan(ctx); err != nil {
		return nil, translate(err, nil, "list questions")
	}
	if len(rows) == 0 {
		return []domain.Question{}, nil
	}
	var options []optionRow
	if err := r.db.NewSelect().Model(&options).OrderExpr("o.question_id ASC, o.position ASC").Scan(ctx); err != nil {
		return nil, translate(err, nil, "list options")
	}
	byQuestion := make(map[string][]domain.Option, len(rows))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], domain.Option{ID: o.ID, Text: o.Text, Correct: o.Correct})
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, domain.Question{
			ID:         row.ID,
			Text:       row.Text,
			Difficulty: domain.Difficulty(row.Difficulty),
			Options:    byQuestion[row.ID],
		})
	}
	return questions, nil
}

func (r questionRepo) GetByID(ctx context.Context, id string) (domain.Question, error) {
	defer metrics.RecordDBOperation("select", "questions", time.Now())
	var row questionRow
	if err := r.db.NewSelect().Model(&row).Where("q.id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, translate(err, domain.ErrQuestionNotFound, "question "+id)
	}
	var options []optionRow
	if err := r.db.NewSelect().Model(&options).Where("o.question_id = ?", id).OrderExpr("o.position ASC").Scan(ctx); err != nil {
		return domain.Question{}, translate(err, nil, "options of question "+id)
	}
	question := domain.Question{ID: row.ID, Text: row.Text, Difficulty: domain.Difficulty(row.Difficulty)}
	for _, o := range options {
		question.Options = append(question.Options, domain.Option{ID: o.ID, Text: o.Text, Correct: o.Correct})
	}
	return question, nil
}

type triviaRepo struct{ conn }

func (r triviaRepo) Save(ctx context.Context, trivia domain.Trivia) (domain.Trivia, error) {
	defer metrics.RecordDBOperation("insert", "trivias", time.Now())
	err := r.inTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		row := triviaRow{ID: trivia.ID, Name: trivia.Name, Description: trivia.Description}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		if len(trivia.QuestionIDs) > 0 {
			links := make([]triviaQuestionRow, 0, len(trivia.QuestionIDs))
			for i, id := range trivia.QuestionIDs {
				links = append(links, triviaQuestionRow{TriviaID: trivia.ID, QuestionID: id, Position: i})
			}
			if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
				return err
			}
		}
		if len(trivia.UserIDs) > 0 {
			links := make([]triviaUserRow, 0, len(trivia.UserIDs))
			for i, id := range trivia.UserIDs {
				links = append(links, triviaUserRow{TriviaID: trivia.ID, UserID: id, Position: i})
			}
			if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Trivia{}, translate(err, nil, "trivia "+trivia.ID)
	}
	return trivia, nil
}

func (r triviaRepo) GetByID(ctx context.Context, id string) (domain.Trivia, error) {
	defer metrics.RecordDBOperation("select", "trivias", time.Now())
	var row triviaRow
	if err := r.db.NewSelect().Model(&row).Where("t.id = ?", id).Scan(ctx); err != nil {
		return domain.Trivia{}, translate(err, domain.ErrTriviaNotFound, "trivia "+id)
	}
	return r.hydrate(ctx, row)
}

func (r triviaRepo) GetByUserID(ctx context.Context, userID string) ([]domain.Trivia, error) {
	defer metrics.RecordDBOperation("select", "trivias", time.Now())
	var rows []triviaRow
	err := r.db.NewSelect().Model(&rows).
		Join("JOIN trivia_users AS tu ON tu.trivia_id = t.id").
		Where("tu.user_id = ?", userID).
		OrderExpr("t.name ASC, t.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, translate(err, nil, "trivias of user "+userID)
	}
	return r.hydrateAll(ctx, rows)
}

func (r triviaRepo) GetAll(ctx context.Context) ([]domain.Trivia, error) {
	defer metrics.RecordDBOperation("select", "trivias", time.Now())
	var rows []triviaRow
	if err := r.db.NewSelect().Model(&rows).OrderExpr("t.name ASC, t.id ASC").Scan(ctx); err != nil {
		return nil, translate(err, nil, "list trivias")
	}
	return r.hydrateAll(ctx, rows)
}

func (r triviaRepo) hydrateAll(ctx context.Context, rows []triviaRow) ([]domain.Trivia, error) {
	trivias := make([]domain.Trivia, 0, len(rows))
	for _, row := range rows {
		t, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		trivias = append(trivias, t)
	}
	return trivias, nil
}

// hydrate loads the ordered question and user links of a trivia.
func (r triviaRepo) hydrate(ctx context.Context, row triviaRow) (domain.Trivia, error) {
	var questions []triviaQuestionRow
	if err := r.db.NewSelect().Model(&questions).Where("tq.trivia_id = ?", row.ID).OrderExpr("tq.position ASC").Scan(ctx); err != nil {
		return domain.Trivia{}, translate(err, nil, "questions of trivia "+row.ID)
	}
	var users []triviaUserRow
	if err := r.db.NewSelect().Model(&users).Where("tu.trivia_id = ?", row.ID).OrderExpr("tu.position ASC").Scan(ctx); err != nil {
		return domain.Trivia{}, translate(err, nil, "users of trivia "+row.ID)
	}
	trivia := domain.Trivia{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		QuestionIDs: make([]string, 0, len(questions)),
		UserIDs:     make([]string, 0, len(users)),
	}
	for _, q := range questions {
		trivia.QuestionIDs = append(trivia.QuestionIDs, q.QuestionID)
	}
	for _, u := range users {
		trivia.UserIDs = append(trivia.UserIDs, u.UserID)
	}
	return trivia, nil
}

type participationRepo struct{ conn }

func (r participationRepo) Save(ctx context.Context, p domain.Participation) (domain.Participation, error) {
	defer metrics.RecordDBOperation("insert", "participations", time.Now())
	p.Version = 1
	row := newParticipationRow(p)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.Participation{}, translate(err, nil, "participation of user "+p.UserID+" in trivia "+p.TriviaID)
	}
	return p, nil
}

func (r participationRepo) GetByTriviaAndUser(ctx context.Context, triviaID, userID string) (domain.Participation, error) {
	defer metrics.RecordDBOperation("select", "participations", time.Now())
	var row participationRow
	err := r.db.NewSelect().Model(&row).
		Where("p.trivia_id = ?", triviaID).
		Where("p.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return domain.Participation{}, translate(err, domain.ErrParticipationNotFound, "participation of user "+userID+" in trivia "+triviaID)
	}
	return row.toDomain(), nil
}

func (r participationRepo) Update(ctx context.Context, p domain.Participation) (domain.Participation, error) {
	defer metrics.RecordDBOperation("update", "participations", time.Now())
	row := newParticipationRow(p)
	row.Version = p.Version + 1
	res, err := r.db.NewUpdate().Model(&row).
		Column("status", "score", "finished_at", "version").
		Where("id = ?", p.ID).
		Where("version = ?", p.Version).
		Exec(ctx)
	if err != nil {
		return domain.Participation{}, translate(err, nil, "participation "+p.ID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Participation{}, fmt.Errorf("participation %s: %w", p.ID, err)
	}
	if affected == 0 {
		exists, err := r.db.NewSelect().Model((*participationRow)(nil)).Where("p.id = ?", p.ID).Exists(ctx)
		if err != nil {
			return domain.Participation{}, translate(err, nil, "participation "+p.ID)
		}
		if !exists {
			return domain.Participation{}, domain.Errorf(domain.KindParticipationNotFound, "participation %s not found", p.ID)
		}
		return domain.Participation{}, domain.Errorf(domain.KindConflict, "participation %s was modified concurrently", p.ID)
	}
	p.Version = row.Version
	return p, nil
}

func (r participationRepo) GetRanking(ctx context.Context, triviaID string) ([]domain.RankingEntry, error) {
	defer metrics.RecordDBOperation("select", "participations", time.Now())
	var rows []rankingRow
	err := r.db.NewSelect().
		TableExpr("participations AS p").
		ColumnExpr("p.user_id, COALESCE(u.name, '') AS user_name, p.score, p.finished_at").
		Join("LEFT JOIN users AS u ON u.id = p.user_id").
		Where("p.trivia_id = ?", triviaID).
		OrderExpr("p.score DESC").
		OrderExpr("p.finished_at IS NULL").
		OrderExpr("p.finished_at ASC").
		OrderExpr("COALESCE(u.name, '') ASC, p.user_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, translate(err, nil, "ranking of trivia "+triviaID)
	}
	entries := make([]domain.RankingEntry, 0, len(rows))
	for _, row := range rows {
		entry := domain.RankingEntry{UserID: row.UserID, UserName: row.UserName, Score: row.Score}
		if row.FinishedAt != nil {
			t := row.FinishedAt.UTC()
			entry.FinishedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type answerRepo struct{ conn }

func (r answerRepo) Save(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	defer metrics.RecordDBOperation("insert", "answers", time.Now())
	row := newAnswerRow(answer)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.Answer{}, translate(err, nil, "answer to question "+answer.QuestionID)
	}
	return answer, nil
}

func (r answerRepo) GetByParticipation(ctx context.Context, participationID string) ([]domain.Answer, error) {
	defer metrics.RecordDBOperation("select", "answers", time.Now())
	var rows []answerRow
	err := r.db.NewSelect().Model(&rows).
		Where("a.participation_id = ?", participationID).
		OrderExpr("a.answered_at ASC, a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, translate(err, nil, "answers of participation "+participationID)
	}
	answers := make([]domain.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, row.toDomain())
	}
	return answers, nil
}

func (r answerRepo) GetByParticipationAndQuestion(ctx context.Context, participationID, questionID string) (domain.Answer, bool, error) {
	defer metrics.RecordDBOperation("select", "answers", time.Now())
	var rows []answerRow
	err := r.db.NewSelect().Model(&rows).
		Where("a.participation_id = ?", participationID).
		Where("a.question_id = ?", questionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Answer{}, false, translate(err, nil, "answer to question "+questionID)
	}
	if len(rows) == 0 {
		return domain.Answer{}, false, nil
	}
	return rows[0].toDomain(), true, nil
}
