package app

import (
	"context"

	"trivia-service/internal/domain"
)

// UserRepository stores players. GetByID returns domain.ErrUserNotFound when absent.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
}

// QuestionRepository stores the question bank. GetByID returns domain.ErrQuestionNotFound when absent.
type QuestionRepository interface {
	Save(ctx context.Context, question domain.Question) (domain.Question, error)
	GetAll(ctx context.Context) ([]domain.Question, error)
	GetByID(ctx context.Context, id string) (domain.Question, error)
}

// TriviaRepository stores trivias with their ordered question ids and assigned users.
type TriviaRepository interface {
	Save(ctx context.Context, trivia domain.Trivia) (domain.Trivia, error)
	GetByID(ctx context.Context, id string) (domain.Trivia, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.Trivia, error)
	GetAll(ctx context.Context) ([]domain.Trivia, error)
}

// ParticipationRepository stores participations.
//   - Save fails with domain.ErrConflict when (trivia, user) already has a participation.
//   - Update fails with domain.ErrParticipationNotFound for an unknown id and with
//     domain.ErrConflict when the stored version differs from participation.Version.
//     The returned participation carries the bumped version.
//   - GetRanking returns entries ordered by domain.SortRanking rules; an unknown trivia yields none.
type ParticipationRepository interface {
	Save(ctx context.Context, participation domain.Participation) (domain.Participation, error)
	GetByTriviaAndUser(ctx context.Context, triviaID, userID string) (domain.Participation, error)
	Update(ctx context.Context, participation domain.Participation) (domain.Participation, error)
	GetRanking(ctx context.Context, triviaID string) ([]domain.RankingEntry, error)
}

// AnswerRepository stores answers. Save fails with domain.ErrConflict when the
// (participation, question) pair already has an answer.
type AnswerRepository interface {
	Save(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	GetByParticipation(ctx context.Context, participationID string) ([]domain.Answer, error)
	GetByParticipationAndQuestion(ctx context.Context, participationID, questionID string) (domain.Answer, bool, error)
}

// Repositories groups the repositories that share one storage session.
type Repositories interface {
	Users() UserRepository
	Questions() QuestionRepository
	Trivias() TriviaRepository
	Participations() ParticipationRepository
	Answers() AnswerRepository
}

// Store is the persistence boundary of the service. RunInTx executes fn
// atomically: either every write made through tx is kept or none is.
type Store interface {
	Repositories
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
}

// RankingNotifier is told after a committed answer that a trivia's ranking moved.
type RankingNotifier interface {
	NotifyRankingChanged(ctx context.Context, triviaID string) error
}
