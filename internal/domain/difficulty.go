package domain

import "strings"

// Difficulty is the three-tier question difficulty that drives scoring.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a raw tag into a Difficulty.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", Errorf(KindUnknownDifficulty, "unknown difficulty %q", raw)
	}
	return d, nil
}

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ScoreFor maps a difficulty to the points awarded for a correct answer.
// An unknown tier here means a question bypassed validation.
func ScoreFor(d Difficulty) (int, error) {
	switch d {
	case DifficultyEasy:
		return 1, nil
	case DifficultyMedium:
		return 2, nil
	case DifficultyHard:
		return 3, nil
	}
	return 0, Errorf(KindUnknownDifficulty, "unknown difficulty %q", string(d))
}
