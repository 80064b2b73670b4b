package domain

import "time"

// ParticipationStatus is the lifecycle state of a participation.
type ParticipationStatus string

const (
	StatusInProgress ParticipationStatus = "in_progress"
	StatusFinished   ParticipationStatus = "finished"
)

// Participation tracks one user's progress through one trivia.
// At most one participation exists per (TriviaID, UserID).
type Participation struct {
	ID         string              `json:"id"`
	TriviaID   string              `json:"triviaId"`
	UserID     string              `json:"userId"`
	Status     ParticipationStatus `json:"status"`
	Score      int                 `json:"score"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
	// Version is bumped by storage on every update and used for optimistic locking.
	Version int64 `json:"-"`
}

// NewParticipation starts an in-progress participation with a zero score.
func NewParticipation(id, triviaID, userID string, startedAt time.Time) Participation {
	return Participation{
		ID:        id,
		TriviaID:  triviaID,
		UserID:    userID,
		Status:    StatusInProgress,
		StartedAt: startedAt,
	}
}

// CanAnswer reports whether the participation still accepts answers.
func (p *Participation) CanAnswer() bool {
	return p.Status == StatusInProgress
}

// AddScore increments the accumulated score.
func (p *Participation) AddScore(points int) error {
	if points < 0 {
		return Errorf(KindInvalidScore, "points cannot be negative, got %d", points)
	}
	p.Score += points
	return nil
}

// Finish moves the participation to its terminal state.
func (p *Participation) Finish(at time.Time) error {
	if p.Status == StatusFinished {
		return ErrParticipationAlreadyFinished
	}
	p.Status = StatusFinished
	p.FinishedAt = &at
	return nil
}
