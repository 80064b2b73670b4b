package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"trivia-service/internal/domain"
)

// CatalogService manages the user, question, and trivia catalog.
type CatalogService struct {
	store Store
	newID func() string
}

func NewCatalogService(store Store) *CatalogService {
	return &CatalogService{store: store, newID: uuid.NewString}
}

// CreateUser registers a player. Emails are unique.
func (s *CatalogService) CreateUser(ctx context.Context, name, email string) (domain.User, error) {
	user, err := domain.NewUser(s.newID(), name, email)
	if err != nil {
		return domain.User{}, err
	}
	saved, err := s.store.Users().Save(ctx, user)
	if errors.Is(err, domain.ErrConflict) {
		return domain.User{}, domain.Wrap(domain.KindConflict, "email "+user.Email+" is already registered", err)
	}
	return saved, err
}

func (s *CatalogService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.Users().GetAll(ctx)
}

// OptionInput is one answer choice of a new question.
type OptionInput struct {
	Text    string
	Correct bool
}

// QuestionInput describes a question to add to the bank.
type QuestionInput struct {
	Text       string
	Difficulty string
	Options    []OptionInput
}

// CreateQuestion validates and stores a question, assigning ids to it and its options.
func (s *CatalogService) CreateQuestion(ctx context.Context, in QuestionInput) (domain.Question, error) {
	difficulty, err := domain.ParseDifficulty(in.Difficulty)
	if err != nil {
		return domain.Question{}, err
	}
	options := make([]domain.Option, 0, len(in.Options))
	for _, o := range in.Options {
		if strings.TrimSpace(o.Text) == "" {
			return domain.Question{}, domain.Errorf(domain.KindInvalidQuestionOptions, "option text is required")
		}
		options = append(options, domain.Option{ID: s.newID(), Text: o.Text, Correct: o.Correct})
	}
	question, err := domain.NewQuestion(s.newID(), in.Text, difficulty, options)
	if err != nil {
		return domain.Question{}, err
	}
	return s.store.Questions().Save(ctx, question)
}

func (s *CatalogService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.store.Questions().GetAll(ctx)
}

// TriviaInput describes a trivia to compose from existing questions and users.
type TriviaInput struct {
	Name        string
	Description *string
	QuestionIDs []string
	UserIDs     []string
}

// CreateTrivia validates the composition and checks that every referenced
// question and user exists before storing it.
func (s *CatalogService) CreateTrivia(ctx context.Context, in TriviaInput) (domain.Trivia, error) {
	trivia, err := domain.NewTrivia(s.newID(), in.Name, in.Description, in.QuestionIDs, in.UserIDs)
	if err != nil {
		return domain.Trivia{}, err
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx Repositories) error {
		for _, id := range trivia.QuestionIDs {
			if _, err := tx.Questions().GetByID(ctx, id); err != nil {
				return err
			}
		}
		for _, id := range trivia.UserIDs {
			if _, err := tx.Users().GetByID(ctx, id); err != nil {
				return err
			}
		}
		trivia, err = tx.Trivias().Save(ctx, trivia)
		return err
	})
	if err != nil {
		return domain.Trivia{}, err
	}
	return trivia, nil
}

func (s *CatalogService) GetTrivia(ctx context.Context, id string) (domain.Trivia, error) {
	return s.store.Trivias().GetByID(ctx, id)
}

func (s *CatalogService) ListTrivias(ctx context.Context) ([]domain.Trivia, error) {
	return s.store.Trivias().GetAll(ctx)
}

// ListUserTrivias returns the trivias a user is assigned to.
func (s *CatalogService) ListUserTrivias(ctx context.Context, userID string) ([]domain.Trivia, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Trivias().GetByUserID(ctx, userID)
}
