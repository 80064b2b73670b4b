package domain

import "strings"

// Option is a possible answer for a question. Options are owned by a single question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"isCorrect"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	Options    []Option   `json:"options"`
}

// NewQuestion validates and builds a question. The options slice is copied.
func NewQuestion(id, text string, difficulty Difficulty, options []Option) (Question, error) {
	if strings.TrimSpace(text) == "" {
		return Question{}, Errorf(KindInvalidQuestionOptions, "question text cannot be empty")
	}
	if !difficulty.Valid() {
		return Question{}, Errorf(KindUnknownDifficulty, "unknown difficulty %q", string(difficulty))
	}
	if err := validateOptions(options); err != nil {
		return Question{}, err
	}
	return Question{
		ID:         id,
		Text:       text,
		Difficulty: difficulty,
		Options:    append([]Option(nil), options...),
	}, nil
}

func validateOptions(options []Option) error {
	if len(options) < 2 {
		return Errorf(KindInvalidQuestionOptions, "question must have at least 2 options")
	}
	correct := 0
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if opt.Correct {
			correct++
		}
		if _, dup := seen[opt.ID]; dup {
			return Errorf(KindInvalidQuestionOptions, "duplicate option id %q", opt.ID)
		}
		seen[opt.ID] = struct{}{}
	}
	if correct != 1 {
		return Errorf(KindInvalidQuestionOptions, "question must have exactly 1 correct option, got %d", correct)
	}
	return nil
}

// CorrectOptionID returns the id of the single correct option.
func (q Question) CorrectOptionID() (string, error) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID, nil
		}
	}
	return "", Errorf(KindInvalidQuestionOptions, "no correct option found")
}

// IsOptionValid reports whether optionID belongs to this question.
func (q Question) IsOptionValid(optionID string) bool {
	_, ok := q.Option(optionID)
	return ok
}

// Option looks up an option by id.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Points returns the score a correct answer to this question is worth.
func (q Question) Points() (int, error) {
	return ScoreFor(q.Difficulty)
}
