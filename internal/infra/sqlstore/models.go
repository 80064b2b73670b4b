package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"trivia-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID    string `bun:"id,pk"`
	Name  string `bun:"name,notnull"`
	Email string `bun:"email,notnull,unique"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID         string `bun:"id,pk"`
	Text       string `bun:"text,notnull"`
	Difficulty string `bun:"difficulty,notnull"`
}

type optionRow struct {
	bun.BaseModel `bun:"table:options,alias:o"`

	ID         string `bun:"id,pk"`
	QuestionID string `bun:"question_id,notnull"`
	Position   int    `bun:"position,notnull"`
	Text       string `bun:"text,notnull"`
	Correct    bool   `bun:"is_correct,notnull"`
}

type triviaRow struct {
	bun.BaseModel `bun:"table:trivias,alias:t"`

	ID          string  `bun:"id,pk"`
	Name        string  `bun:"name,notnull"`
	Description *string `bun:"description"`
}

type triviaQuestionRow struct {
	bun.BaseModel `bun:"table:trivia_questions,alias:tq"`

	TriviaID   string `bun:"trivia_id,pk"`
	QuestionID string `bun:"question_id,pk"`
	Position   int    `bun:"position,notnull"`
}

type triviaUserRow struct {
	bun.BaseModel `bun:"table:trivia_users,alias:tu"`

	TriviaID string `bun:"trivia_id,pk"`
	UserID   string `bun:"user_id,pk"`
	Position int    `bun:"position,notnull"`
}

type participationRow struct {
	bun.BaseModel `bun:"table:participations,alias:p"`

	ID         string     `bun:"id,pk"`
	TriviaID   string     `bun:"trivia_id,notnull,unique:participations_trivia_user"`
	UserID     string     `bun:"user_id,notnull,unique:participations_trivia_user"`
	Status     string     `bun:"status,notnull"`
	Score      int        `bun:"score,notnull"`
	StartedAt  time.Time  `bun:"started_at,notnull"`
	FinishedAt *time.Time `bun:"finished_at"`
	Version    int64      `bun:"version,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID              string    `bun:"id,pk"`
	ParticipationID string    `bun:"participation_id,notnull,unique:answers_participation_question"`
	QuestionID      string    `bun:"question_id,notnull,unique:answers_participation_question"`
	TriviaID        string    `bun:"trivia_id,notnull"`
	OptionID        string    `bun:"option_id,notnull"`
	Correct         bool      `bun:"is_correct,notnull"`
	ScoreAwarded    int       `bun:"score_awarded,notnull"`
	AnsweredAt      time.Time `bun:"answered_at,notnull"`
}

type rankingRow struct {
	UserID     string     `bun:"user_id"`
	UserName   string     `bun:"user_name"`
	Score      int        `bun:"score"`
	FinishedAt *time.Time `bun:"finished_at"`
}

// Models lists every table model, in creation order.
func Models() []interface{} {
	return []interface{}{
		(*userRow)(nil),
		(*questionRow)(nil),
		(*optionRow)(nil),
		(*triviaRow)(nil),
		(*triviaQuestionRow)(nil),
		(*triviaUserRow)(nil),
		(*participationRow)(nil),
		(*answerRow)(nil),
	}
}

func (r userRow) toDomain() domain.User {
	return domain.User{ID: r.ID, Name: r.Name, Email: r.Email}
}

func (r participationRow) toDomain() domain.Participation {
	var finished *time.Time
	if r.FinishedAt != nil {
		t := r.FinishedAt.UTC()
		finished = &t
	}
	return domain.Participation{
		ID:         r.ID,
		TriviaID:   r.TriviaID,
		UserID:     r.UserID,
		Status:     domain.ParticipationStatus(r.Status),
		Score:      r.Score,
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: finished,
		Version:    r.Version,
	}
}

func newParticipationRow(p domain.Participation) participationRow {
	return participationRow{
		ID:         p.ID,
		TriviaID:   p.TriviaID,
		UserID:     p.UserID,
		Status:     string(p.Status),
		Score:      p.Score,
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
		Version:    p.Version,
	}
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:              r.ID,
		ParticipationID: r.ParticipationID,
		TriviaID:        r.TriviaID,
		QuestionID:      r.QuestionID,
		OptionID:        r.OptionID,
		Correct:         r.Correct,
		ScoreAwarded:    r.ScoreAwarded,
		AnsweredAt:      r.AnsweredAt.UTC(),
	}
}

func newAnswerRow(a domain.Answer) answerRow {
	return answerRow{
		ID:              a.ID,
		ParticipationID: a.ParticipationID,
		QuestionID:      a.QuestionID,
		TriviaID:        a.TriviaID,
		OptionID:        a.OptionID,
		Correct:         a.Correct,
		ScoreAwarded:    a.ScoreAwarded,
		AnsweredAt:      a.AnsweredAt,
	}
}
