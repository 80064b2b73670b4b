package memory

import (
	"context"
	"sync"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Transactions run on a
// private copy of the data that replaces the live copy on success.
type Store struct {
	// txMu serializes transactions and writes outside of them.
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

type participationKey struct {
	triviaID string
	userID   string
}

type answerKey struct {
	participationID string
	questionID      string
}

type state struct {
	users        map[string]domain.User
	userOrder    []string
	emails       map[string]string
	questions    map[string]domain.Question
	questionList []string
	trivias      map[string]domain.Trivia
	triviaOrder  []string

	participations map[string]domain.Participation
	byTriviaUser   map[participationKey]string
	answers        map[answerKey]domain.Answer
	answerOrder    map[string][]string
}

func newState() *state {
	return &state{
		users:          make(map[string]domain.User),
		emails:         make(map[string]string),
		questions:      make(map[string]domain.Question),
		trivias:        make(map[string]domain.Trivia),
		participations: make(map[string]domain.Participation),
		byTriviaUser:   make(map[participationKey]string),
		answers:        make(map[answerKey]domain.Answer),
		answerOrder:    make(map[string][]string),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:          make(map[string]domain.User, len(s.users)),
		userOrder:      append([]string(nil), s.userOrder...),
		emails:         make(map[string]string, len(s.emails)),
		questions:      make(map[string]domain.Question, len(s.questions)),
		questionList:   append([]string(nil), s.questionList...),
		trivias:        make(map[string]domain.Trivia, len(s.trivias)),
		triviaOrder:    append([]string(nil), s.triviaOrder...),
		participations: make(map[string]domain.Participation, len(s.participations)),
		byTriviaUser:   make(map[participationKey]string, len(s.byTriviaUser)),
		answers:        make(map[answerKey]domain.Answer, len(s.answers)),
		answerOrder:    make(map[string][]string, len(s.answerOrder)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.questions {
		c.questions[k] = v
	}
	for k, v := range s.trivias {
		c.trivias[k] = v
	}
	for k, v := range s.participations {
		c.participations[k] = v
	}
	for k, v := range s.byTriviaUser {
		c.byTriviaUser[k] = v
	}
	for k, v := range s.answers {
		c.answers[k] = v
	}
	for k, v := range s.answerOrder {
		c.answerOrder[k] = append([]string(nil), v...)
	}
	return c
}

func NewStore() *Store {
	return &Store{data: newState()}
}

// access hides whether repositories work on the live data or on a transaction copy.
type access struct {
	read  func(fn func(*state))
	write func(fn func(*state) error) error
}

func (s *Store) live() access {
	return access{
		read: func(fn func(*state)) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			fn(s.data)
		},
		write: func(fn func(*state) error) error {
			s.txMu.Lock()
			defer s.txMu.Unlock()
			s.mu.Lock()
			defer s.mu.Unlock()
			return fn(s.data)
		},
	}
}

func private(data *state) access {
	return access{
		read:  func(fn func(*state)) { fn(data) },
		write: func(fn func(*state) error) error { return fn(data) },
	}
}

func (s *Store) Users() app.UserRepository                   { return userRepo{s.live()} }
func (s *Store) Questions() app.QuestionRepository           { return questionRepo{s.live()} }
func (s *Store) Trivias() app.TriviaRepository               { return triviaRepo{s.live()} }
func (s *Store) Participations() app.ParticipationRepository { return participationRepo{s.live()} }
func (s *Store) Answers() app.AnswerRepository               { return answerRepo{s.live()} }

// RunInTx runs fn against a copy of the data and publishes the copy only if fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, txRepos{private(working)}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type txRepos struct {
	a access
}

func (t txRepos) Users() app.UserRepository                   { return userRepo{t.a} }
func (t txRepos) Questions() app.QuestionRepository           { return questionRepo{t.a} }
func (t txRepos) Trivias() app.TriviaRepository               { return triviaRepo{t.a} }
func (t txRepos) Participations() app.ParticipationRepository { return participationRepo{t.a} }
func (t txRepos) Answers() app.AnswerRepository               { return answerRepo{t.a} }

type userRepo struct{ a access }

func (r userRepo) Save(_ context.Context, user domain.User) (domain.User, error) {
	err := r.a.write(func(s *state) error {
		if owner, ok := s.emails[user.Email]; ok && owner != user.ID {
			return domain.Errorf(domain.KindConflict, "email %s already registered", user.Email)
		}
		if prev, ok := s.users[user.ID]; ok {
			delete(s.emails, prev.Email)
		} else {
			s.userOrder = append(s.userOrder, user.ID)
		}
		s.users[user.ID] = user
		s.emails[user.Email] = user.ID
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r userRepo) GetAll(_ context.Context) ([]domain.User, error) {
	var users []domain.User
	r.a.read(func(s *state) {
		users = make([]domain.User, 0, len(s.userOrder))
		for _, id := range s.userOrder {
			users = append(users, s.users[id])
		}
	})
	return users, nil
}

func (r userRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	var (
		user domain.User
		ok   bool
	)
	r.a.read(func(s *state) { user, ok = s.users[id] })
	if !ok {
		return domain.User{}, domain.Errorf(domain.KindUserNotFound, "user %s not found", id)
	}
	return user, nil
}

type questionRepo struct{ a access }

func (r questionRepo) Save(_ context.Context, question domain.Question) (domain.Question, error) {
	question.Options = append([]domain.Option(nil), question.Options...)
	_ = r.a.write(func(s *state) error {
		if _, ok := s.questions[question.ID]; !ok {
			s.questionList = append(s.questionList, question.ID)
		}
		s.questions[question.ID] = question
		return nil
	})
	return question, nil
}

func (r questionRepo) GetAll(_ context.Context) ([]domain.Question, error) {
	var questions []domain.Question
	r.a.read(func(s *state) {
		questions = make([]domain.Question, 0, len(s.questionList))
		for _, id := range s.questionList {
			questions = append(questions, s.questions[id])
		}
	})
	return questions, nil
}

func (r questionRepo) GetByID(_ context.Context, id string) (domain.Question, error) {
	var (
		question domain.Question
		ok       bool
	)
	r.a.read(func(s *state) { question, ok = s.questions[id] })
	if !ok {
		return domain.Question{}, domain.Errorf(domain.KindQuestionNotFound, "question %s not found", id)
	}
	return question, nil
}

type triviaRepo struct{ a access }

func (r triviaRepo) Save(_ context.Context, trivia domain.Trivia) (domain.Trivia, error) {
	trivia.QuestionIDs = append([]string(nil), trivia.QuestionIDs...)
	trivia.UserIDs = append([]string(nil), trivia.UserIDs...)
	_ = r.a.write(func(s *state) error {
		if _, ok := s.trivias[trivia.ID]; !ok {
			s.triviaOrder = append(s.triviaOrder, trivia.ID)
		}
		s.trivias[trivia.ID] = trivia
		return nil
	})
	return trivia, nil
}

func (r triviaRepo) GetByID(_ context.Context, id string) (domain.Trivia, error) {
	var (
		trivia domain.Trivia
		ok     bool
	)
	r.a.read(func(s *state) { trivia, ok = s.trivias[id] })
	if !ok {
		return domain.Trivia{}, domain.Errorf(domain.KindTriviaNotFound, "trivia %s not found", id)
	}
	return trivia, nil
}

func (r triviaRepo) GetByUserID(_ context.Context, userID string) ([]domain.Trivia, error) {
	var trivias []domain.Trivia
	r.a.read(func(s *state) {
		trivias = []domain.Trivia{}
		for _, id := range s.triviaOrder {
			if t := s.trivias[id]; t.HasUser(userID) {
				trivias = append(trivias, t)
			}
		}
	})
	return trivias, nil
}

func (r triviaRepo) GetAll(_ context.Context) ([]domain.Trivia, error) {
	var trivias []domain.Trivia
	r.a.read(func(s *state) {
		trivias = make([]domain.Trivia, 0, len(s.triviaOrder))
		for _, id := range s.triviaOrder {
			trivias = append(trivias, s.trivias[id])
		}
	})
	return trivias, nil
}

type participationRepo struct{ a access }

func (r participationRepo) Save(_ context.Context, p domain.Participation) (domain.Participation, error) {
	p.Version = 1
	err := r.a.write(func(s *state) error {
		key := participationKey{triviaID: p.TriviaID, userID: p.UserID}
		if _, ok := s.byTriviaUser[key]; ok {
			return domain.Errorf(domain.KindConflict, "participation for user %s in trivia %s already exists", p.UserID, p.TriviaID)
		}
		if _, ok := s.participations[p.ID]; ok {
			return domain.Errorf(domain.KindConflict, "participation %s already exists", p.ID)
		}
		s.participations[p.ID] = p
		s.byTriviaUser[key] = p.ID
		return nil
	})
	if err != nil {
		return domain.Participation{}, err
	}
	return p, nil
}

func (r participationRepo) GetByTriviaAndUser(_ context.Context, triviaID, userID string) (domain.Participation, error) {
	var (
		p  domain.Participation
		ok bool
	)
	r.a.read(func(s *state) {
		var id string
		if id, ok = s.byTriviaUser[participationKey{triviaID: triviaID, userID: userID}]; ok {
			p = s.participations[id]
		}
	})
	if !ok {
		return domain.Participation{}, domain.Errorf(domain.KindParticipationNotFound, "no participation for user %s in trivia %s", userID, triviaID)
	}
	return p, nil
}

func (r participationRepo) Update(_ context.Context, p domain.Participation) (domain.Participation, error) {
	err := r.a.write(func(s *state) error {
		stored, ok := s.participations[p.ID]
		if !ok {
			return domain.Errorf(domain.KindParticipationNotFound, "participation %s not found", p.ID)
		}
		if stored.Version != p.Version {
			return domain.Errorf(domain.KindConflict, "participation %s was modified concurrently", p.ID)
		}
		p.Version++
		s.participations[p.ID] = p
		return nil
	})
	if err != nil {
		return domain.Participation{}, err
	}
	return p, nil
}

func (r participationRepo) GetRanking(_ context.Context, triviaID string) ([]domain.RankingEntry, error) {
	entries := []domain.RankingEntry{}
	r.a.read(func(s *state) {
		for _, p := range s.participations {
			if p.TriviaID != triviaID {
				continue
			}
			entries = append(entries, domain.RankingEntry{
				UserID:     p.UserID,
				UserName:   s.users[p.UserID].Name,
				Score:      p.Score,
				FinishedAt: p.FinishedAt,
			})
		}
	})
	domain.SortRanking(entries)
	return entries, nil
}

type answerRepo struct{ a access }

func (r answerRepo) Save(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	err := r.a.write(func(s *state) error {
		key := answerKey{participationID: answer.ParticipationID, questionID: answer.QuestionID}
		if _, ok := s.answers[key]; ok {
			return domain.Errorf(domain.KindConflict, "question %s already answered in participation %s", answer.QuestionID, answer.ParticipationID)
		}
		s.answers[key] = answer
		s.answerOrder[answer.ParticipationID] = append(s.answerOrder[answer.ParticipationID], answer.QuestionID)
		return nil
	})
	if err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

func (r answerRepo) GetByParticipation(_ context.Context, participationID string) ([]domain.Answer, error) {
	var answers []domain.Answer
	r.a.read(func(s *state) {
		order := s.answerOrder[participationID]
		answers = make([]domain.Answer, 0, len(order))
		for _, questionID := range order {
			answers = append(answers, s.answers[answerKey{participationID: participationID, questionID: questionID}])
		}
	})
	return answers, nil
}

func (r answerRepo) GetByParticipationAndQuestion(_ context.Context, participationID, questionID string) (domain.Answer, bool, error) {
	var (
		answer domain.Answer
		ok     bool
	)
	r.a.read(func(s *state) {
		answer, ok = s.answers[answerKey{participationID: participationID, questionID: questionID}]
	})
	return answer, ok, nil
}
