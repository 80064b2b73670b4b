package domain

import (
	"errors"
	"testing"
)

func TestNewQuestionValidatesOptions(t *testing.T) {
	cases := []struct {
		name    string
		options []Option
	}{
		{"single option", []Option{{ID: "o1", Text: "4", Correct: true}}},
		{"no correct option", []Option{{ID: "o1", Text: "3"}, {ID: "o2", Text: "5"}}},
		{"two correct options", []Option{{ID: "o1", Text: "4", Correct: true}, {ID: "o2", Text: "four", Correct: true}}},
		{"duplicate option ids", []Option{{ID: "o1", Text: "4", Correct: true}, {ID: "o1", Text: "5"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewQuestion("q1", "What is 2 + 2?", DifficultyEasy, tc.options)
			if !errors.Is(err, ErrInvalidQuestionOptions) {
				t.Fatalf("expected invalid question options, got %v", err)
			}
		})
	}
}

func TestNewQuestionRejectsUnknownDifficulty(t *testing.T) {
	_, err := NewQuestion("q1", "What is 2 + 2?", Difficulty("extreme"), sampleOptions())
	if !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected unknown difficulty, got %v", err)
	}
}

func TestQuestionOptionLookup(t *testing.T) {
	q, err := NewQuestion("q1", "What is 2 + 2?", DifficultyMedium, sampleOptions())
	if err != nil {
		t.Fatalf("new question: %v", err)
	}

	correct, err := q.CorrectOptionID()
	if err != nil || correct != "o2" {
		t.Fatalf("expected o2 as correct option, got %q (%v)", correct, err)
	}
	if !q.IsOptionValid("o3") {
		t.Fatalf("expected o3 to be valid")
	}
	if q.IsOptionValid("other") {
		t.Fatalf("expected foreign option to be invalid")
	}
}

func TestCorrectOptionIDWithoutCorrectOption(t *testing.T) {
	q := Question{ID: "q1", Options: []Option{{ID: "o1"}, {ID: "o2"}}}
	if _, err := q.CorrectOptionID(); !errors.Is(err, ErrInvalidQuestionOptions) {
		t.Fatalf("expected invalid question options, got %v", err)
	}
}

func TestScoreFor(t *testing.T) {
	want := map[Difficulty]int{DifficultyEasy: 1, DifficultyMedium: 2, DifficultyHard: 3}
	for d, points := range want {
		got, err := ScoreFor(d)
		if err != nil {
			t.Fatalf("score for %s: %v", d, err)
		}
		if got != points {
			t.Fatalf("expected %d points for %s, got %d", points, d, got)
		}
	}
	if _, err := ScoreFor("legendary"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected unknown difficulty, got %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" HARD ")
	if err != nil || d != DifficultyHard {
		t.Fatalf("expected hard, got %q (%v)", d, err)
	}
	if _, err := ParseDifficulty("trivial"); KindOf(err) != KindUnknownDifficulty {
		t.Fatalf("expected unknown difficulty kind, got %v", err)
	}
}

func TestNewAnswerScoresByDifficulty(t *testing.T) {
	q, _ := NewQuestion("q1", "What is 2 + 2?", DifficultyHard, sampleOptions())
	p := Participation{ID: "p1", TriviaID: "t1", UserID: "u1", Status: StatusInProgress}

	right, err := NewAnswer("a1", p, q, "o2", fixedTime())
	if err != nil {
		t.Fatalf("new answer: %v", err)
	}
	if !right.Correct || right.ScoreAwarded != 3 {
		t.Fatalf("expected 3 points for a correct hard answer, got %+v", right)
	}

	wrong, err := NewAnswer("a2", p, q, "o1", fixedTime())
	if err != nil {
		t.Fatalf("new answer: %v", err)
	}
	if wrong.Correct || wrong.ScoreAwarded != 0 {
		t.Fatalf("expected 0 points for a wrong answer, got %+v", wrong)
	}

	if _, err := NewAnswer("a3", p, q, "nope", fixedTime()); !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
}

func sampleOptions() []Option {
	return []Option{
		{ID: "o1", Text: "3"},
		{ID: "o2", Text: "4", Correct: true},
		{ID: "o3", Text: "5"},
	}
}
