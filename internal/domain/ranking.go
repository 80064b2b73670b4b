package domain

import (
	"sort"
	"time"
)

// RankingEntry is one participation projected for the leaderboard.
type RankingEntry struct {
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	Score      int        `json:"score"`
	FinishedAt *time.Time `json:"finishedAt"`
}

// Ranking captures the ordered leaderboard for a trivia.
type Ranking struct {
	TriviaID  string         `json:"triviaId"`
	Entries   []RankingEntry `json:"entries"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SortRanking orders entries by score descending, then earliest finish, with
// unfinished entries after finished ones; user name and id break the remaining ties.
func SortRanking(entries []RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return rankBefore(entries[i], entries[j])
	})
}

func rankBefore(a, b RankingEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	switch {
	case a.FinishedAt != nil && b.FinishedAt == nil:
		return true
	case a.FinishedAt == nil && b.FinishedAt != nil:
		return false
	case a.FinishedAt != nil && b.FinishedAt != nil && !a.FinishedAt.Equal(*b.FinishedAt):
		return a.FinishedAt.Before(*b.FinishedAt)
	}
	if a.UserName != b.UserName {
		return a.UserName < b.UserName
	}
	return a.UserID < b.UserID
}
