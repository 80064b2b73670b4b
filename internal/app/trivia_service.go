package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trivia-service/internal/domain"
	"trivia-service/internal/metrics"
)

// TriviaService contains the play, answer, and ranking use cases.
type TriviaService struct {
	store     Store
	questions QuestionRepository
	notifier  RankingNotifier
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time
}

// NewTriviaService wires the use cases. questions may be a caching decorator of
// store.Questions(); nil falls back to the store. notifier may be nil.
func NewTriviaService(store Store, questions QuestionRepository, notifier RankingNotifier) *TriviaService {
	return NewTriviaServiceWithClock(store, questions, notifier, time.Now)
}

// NewTriviaServiceWithClock allows deterministic timestamps in tests.
func NewTriviaServiceWithClock(store Store, questions QuestionRepository, notifier RankingNotifier, now func() time.Time) *TriviaService {
	if questions == nil {
		questions = store.Questions()
	}
	return &TriviaService{
		store:     store,
		questions: questions,
		notifier:  notifier,
		logger:    slog.Default(),
		newID:     uuid.NewString,
		now:       now,
	}
}

// SetNotifier replaces the ranking notifier. It must be called before serving traffic.
func (s *TriviaService) SetNotifier(n RankingNotifier) {
	s.notifier = n
}

// PlayResult is what a user should see when opening a trivia.
type PlayResult struct {
	// Question is nil when the trivia has no question to show.
	Question        *domain.Question
	ParticipationID string
	TriviaName      string
	// IsNew is set when this call created the participation.
	IsNew bool
	// FinalScore is set only when the participation was already finished.
	FinalScore *int
}

// Finished reports whether the participation had already concluded.
func (r PlayResult) Finished() bool {
	return r.FinalScore != nil
}

// Message renders the welcome or continuation line shown with the question.
func (r PlayResult) Message() string {
	switch {
	case r.FinalScore != nil:
		return fmt.Sprintf("Trivia already finished. Your final score is %d.", *r.FinalScore)
	case r.IsNew:
		return fmt.Sprintf("Let's start the trivia: %s. Here is your first question", r.TriviaName)
	default:
		return "Let's continue the trivia"
	}
}

// PlayTrivia resolves or creates the caller's participation and returns the
// next question to answer, or the final score if the trivia is already done.
func (s *TriviaService) PlayTrivia(ctx context.Context, userID, triviaID string) (PlayResult, error) {
	participation, err := s.store.Participations().GetByTriviaAndUser(ctx, triviaID, userID)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrParticipationNotFound):
		participation, created, err = s.startParticipation(ctx, triviaID, userID)
		if err != nil {
			return PlayResult{}, err
		}
	default:
		return PlayResult{}, err
	}

	trivia, err := s.store.Trivias().GetByID(ctx, triviaID)
	if err != nil {
		return PlayResult{}, err
	}
	result := PlayResult{ParticipationID: participation.ID, TriviaName: trivia.Name, IsNew: created}
	if participation.Status == domain.StatusFinished {
		score := participation.Score
		result.FinalScore = &score
		return result, nil
	}

	answered := map[string]struct{}{}
	if !created {
		answers, err := s.store.Answers().GetByParticipation(ctx, participation.ID)
		if err != nil {
			return PlayResult{}, err
		}
		answered = domain.AnsweredSet(answers)
	}
	nextID, ok := trivia.NextUnanswered(answered)
	if !ok {
		return result, nil
	}
	question, err := s.questions.GetByID(ctx, nextID)
	if err != nil {
		return PlayResult{}, err
	}
	result.Question = &question
	return result, nil
}

// startParticipation creates the participation for (trivia, user). When a
// concurrent request wins the insert, the winner's row is returned instead.
func (s *TriviaService) startParticipation(ctx context.Context, triviaID, userID string) (domain.Participation, bool, error) {
	if _, err := s.store.Trivias().GetByID(ctx, triviaID); err != nil {
		return domain.Participation{}, false, err
	}
	participation := domain.NewParticipation(s.newID(), triviaID, userID, s.now())
	saved, err := s.store.Participations().Save(ctx, participation)
	if errors.Is(err, domain.ErrConflict) {
		existing, err := s.store.Participations().GetByTriviaAndUser(ctx, triviaID, userID)
		return existing, false, err
	}
	if err != nil {
		return domain.Participation{}, false, err
	}
	metrics.ParticipationsStarted.Inc()
	return saved, true, nil
}

// AnswerInput identifies one submitted answer.
type AnswerInput struct {
	UserID     string
	TriviaID   string
	QuestionID string
	OptionID   string
}

// AnswerResult summarizes an accepted answer and what comes next.
type AnswerResult struct {
	ParticipationID string
	Correct         bool
	ScoreAwarded    int
	// Score is the running total after this answer.
	Score int
	// NextQuestion is nil once the trivia is finished.
	NextQuestion *domain.Question
	Finished     bool
	// FinalScore is set only when this answer finished the trivia.
	FinalScore *int
}

// Message renders the feedback line for the answer.
func (r AnswerResult) Message() string {
	switch {
	case r.Finished && r.FinalScore != nil:
		return fmt.Sprintf("Trivia finished. Your final score is %d.", *r.FinalScore)
	case r.Correct:
		return "Correct! Here comes the next one."
	default:
		return "Incorrect. Here comes the next one."
	}
}

// AnswerQuestion records the answer exactly once, scores it, and either
// advances to the next unanswered question or finishes the participation.
// All reads and writes run in one transaction. A concurrent update of the
// participation is reported as domain.ErrConflict and nothing is written.
func (s *TriviaService) AnswerQuestion(ctx context.Context, in AnswerInput) (AnswerResult, error) {
	result, err := s.recordAnswer(ctx, in)
	if err != nil {
		metrics.AnswersRejected.WithLabelValues(string(domain.KindOf(err))).Inc()
		return AnswerResult{}, err
	}

	if result.Correct {
		metrics.AnswersRecorded.WithLabelValues("correct").Inc()
	} else {
		metrics.AnswersRecorded.WithLabelValues("incorrect").Inc()
	}
	if result.Finished {
		metrics.ParticipationsFinished.Inc()
	}
	s.notifyRanking(ctx, in.TriviaID)
	return result, nil
}

func (s *TriviaService) recordAnswer(ctx context.Context, in AnswerInput) (AnswerResult, error) {
	var result AnswerResult
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Repositories) error {
		participation, err := tx.Participations().GetByTriviaAndUser(ctx, in.TriviaID, in.UserID)
		if err != nil {
			return err
		}
		if !participation.CanAnswer() {
			return domain.ErrParticipationFinished
		}
		if _, found, err := tx.Answers().GetByParticipationAndQuestion(ctx, participation.ID, in.QuestionID); err != nil {
			return err
		} else if found {
			return domain.ErrQuestionAlreadyAnswered
		}

		question, err := s.questions.GetByID(ctx, in.QuestionID)
		if err != nil {
			return err
		}
		answer, err := domain.NewAnswer(s.newID(), participation, question, in.OptionID, s.now())
		if err != nil {
			return err
		}
		trivia, err := tx.Trivias().GetByID(ctx, in.TriviaID)
		if err != nil {
			return err
		}
		if !containsID(trivia.QuestionIDs, question.ID) {
			return domain.Errorf(domain.KindQuestionNotFound, "question %s is not part of trivia %s", question.ID, trivia.ID)
		}

		if _, err := tx.Answers().Save(ctx, answer); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.Wrap(domain.KindQuestionAlreadyAnswered, "question already answered", err)
			}
			return err
		}
		if err := participation.AddScore(answer.ScoreAwarded); err != nil {
			return err
		}

		answers, err := tx.Answers().GetByParticipation(ctx, participation.ID)
		if err != nil {
			return err
		}
		result = AnswerResult{
			ParticipationID: participation.ID,
			Correct:         answer.Correct,
			ScoreAwarded:    answer.ScoreAwarded,
		}

		if nextID, ok := trivia.NextUnanswered(domain.AnsweredSet(answers)); ok {
			updated, err := tx.Participations().Update(ctx, participation)
			if err != nil {
				return err
			}
			next, err := s.questions.GetByID(ctx, nextID)
			if err != nil {
				return err
			}
			result.Score = updated.Score
			result.NextQuestion = &next
			return nil
		}

		if err := participation.Finish(s.now()); err != nil {
			return err
		}
		updated, err := tx.Participations().Update(ctx, participation)
		if err != nil {
			return err
		}
		score := updated.Score
		result.Score = score
		result.Finished = true
		result.FinalScore = &score
		return nil
	})
	return result, err
}

// Ranking returns the leaderboard of a trivia. Unknown trivias yield an empty ranking.
func (s *TriviaService) Ranking(ctx context.Context, triviaID string) (domain.Ranking, error) {
	return loadRanking(ctx, s.store.Participations(), triviaID, s.now())
}

func (s *TriviaService) notifyRanking(ctx context.Context, triviaID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyRankingChanged(ctx, triviaID); err != nil {
		s.logger.Warn("ranking notification failed", "trivia_id", triviaID, "error", err)
	}
}

func loadRanking(ctx context.Context, participations ParticipationRepository, triviaID string, now time.Time) (domain.Ranking, error) {
	entries, err := participations.GetRanking(ctx, triviaID)
	if err != nil {
		return domain.Ranking{}, err
	}
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	return domain.Ranking{TriviaID: triviaID, Entries: entries, UpdatedAt: now}, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
