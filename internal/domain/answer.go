package domain

import "time"

// Answer is the immutable record of one choice within a participation.
type Answer struct {
	ID              string    `json:"id"`
	ParticipationID string    `json:"participationId"`
	TriviaID        string    `json:"triviaId"`
	QuestionID      string    `json:"questionId"`
	OptionID        string    `json:"optionId"`
	Correct         bool      `json:"isCorrect"`
	ScoreAwarded    int       `json:"scoreAwarded"`
	AnsweredAt      time.Time `json:"answeredAt"`
}

// NewAnswer scores option against question and builds the answer record.
func NewAnswer(id string, participation Participation, question Question, optionID string, at time.Time) (Answer, error) {
	opt, ok := question.Option(optionID)
	if !ok {
		return Answer{}, Errorf(KindOptionNotFound, "option %s does not belong to question %s", optionID, question.ID)
	}
	awarded := 0
	if opt.Correct {
		points, err := question.Points()
		if err != nil {
			return Answer{}, err
		}
		awarded = points
	}
	return Answer{
		ID:              id,
		ParticipationID: participation.ID,
		TriviaID:        participation.TriviaID,
		QuestionID:      question.ID,
		OptionID:        opt.ID,
		Correct:         opt.Correct,
		ScoreAwarded:    awarded,
		AnsweredAt:      at,
	}, nil
}

// AnsweredSet collects the question ids covered by answers.
func AnsweredSet(answers []Answer) map[string]struct{} {
	set := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		set[a.QuestionID] = struct{}{}
	}
	return set
}
