package domain

import (
	"errors"
	"testing"
)

func TestNewTriviaComposition(t *testing.T) {
	if _, err := NewTrivia("t1", "  ", nil, []string{"q1"}, []string{"u1"}); !errors.Is(err, ErrInvalidTriviaComposition) {
		t.Fatalf("expected empty name to fail, got %v", err)
	}
	if _, err := NewTrivia("t1", "Go", nil, []string{"q1", "q2", "q1"}, []string{"u1"}); !errors.Is(err, ErrInvalidTriviaComposition) {
		t.Fatalf("expected duplicate question ids to fail, got %v", err)
	}
	if _, err := NewTrivia("t1", "Go", nil, []string{"q1"}, []string{"u1", "u1"}); !errors.Is(err, ErrInvalidTriviaComposition) {
		t.Fatalf("expected duplicate user ids to fail, got %v", err)
	}

	desc := "basics"
	trivia, err := NewTrivia("t1", "Go", &desc, []string{"q1", "q2"}, []string{"u1"})
	if err != nil {
		t.Fatalf("new trivia: %v", err)
	}
	if !trivia.HasUser("u1") || trivia.HasUser("u2") {
		t.Fatalf("unexpected user assignment: %+v", trivia.UserIDs)
	}
}

func TestNextUnansweredFindsFirstGap(t *testing.T) {
	order := []string{"q1", "q2", "q3"}

	next, ok := NextUnanswered(order, map[string]struct{}{})
	if !ok || next != "q1" {
		t.Fatalf("expected q1, got %q", next)
	}

	// Out-of-order answers still resolve to the earliest gap.
	next, ok = NextUnanswered(order, map[string]struct{}{"q1": {}, "q3": {}})
	if !ok || next != "q2" {
		t.Fatalf("expected q2, got %q", next)
	}

	if _, ok := NextUnanswered(order, map[string]struct{}{"q1": {}, "q2": {}, "q3": {}}); ok {
		t.Fatalf("expected no question left")
	}
}
