package http

import (
	"fmt"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

// optionView hides correctness and links to the answer endpoint.
type optionView struct {
	ID     string `json:"optionId"`
	Text   string `json:"text"`
	Answer string `json:"answer"`
}

type questionView struct {
	ID         string            `json:"questionId"`
	Text       string            `json:"text"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Options    []optionView      `json:"options"`
}

type playResponse struct {
	Message         string        `json:"message"`
	ParticipationID string        `json:"participationId"`
	Finished        bool          `json:"finished"`
	Score           *int          `json:"score,omitempty"`
	Question        *questionView `json:"question,omitempty"`
}

type answerResponse struct {
	Message         string        `json:"message"`
	ParticipationID string        `json:"participationId"`
	Correct         bool          `json:"correct"`
	ScoreAwarded    int           `json:"scoreAwarded"`
	Score           int           `json:"score"`
	Finished        bool          `json:"finished"`
	Question        *questionView `json:"question,omitempty"`
}

func answerLink(userID, triviaID, questionID, optionID string) string {
	return fmt.Sprintf("/users/%s/trivias/%s/questions/%s/options/%s", userID, triviaID, questionID, optionID)
}

func newQuestionView(userID, triviaID string, q *domain.Question) *questionView {
	if q == nil {
		return nil
	}
	view := &questionView{ID: q.ID, Text: q.Text, Difficulty: q.Difficulty, Options: make([]optionView, 0, len(q.Options))}
	for _, o := range q.Options {
		view.Options = append(view.Options, optionView{ID: o.ID, Text: o.Text, Answer: answerLink(userID, triviaID, q.ID, o.ID)})
	}
	return view
}

func newPlayResponse(userID, triviaID string, res app.PlayResult) playResponse {
	return playResponse{
		Message:         res.Message(),
		ParticipationID: res.ParticipationID,
		Finished:        res.Finished(),
		Score:           res.FinalScore,
		Question:        newQuestionView(userID, triviaID, res.Question),
	}
}

func newAnswerResponse(userID, triviaID string, res app.AnswerResult) answerResponse {
	return answerResponse{
		Message:         res.Message(),
		ParticipationID: res.ParticipationID,
		Correct:         res.Correct,
		ScoreAwarded:    res.ScoreAwarded,
		Score:           res.Score,
		Finished:        res.Finished,
		Question:        newQuestionView(userID, triviaID, res.NextQuestion),
	}
}
