package domain

import "strings"

// Trivia is a named, ordered collection of questions assigned to a set of users.
// The order of QuestionIDs is the play sequence. Trivias are immutable once created.
type Trivia struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	QuestionIDs []string `json:"questionIds"`
	UserIDs     []string `json:"userIds"`
}

// NewTrivia validates the composition and builds a trivia. Slices are copied.
func NewTrivia(id, name string, description *string, questionIDs, userIDs []string) (Trivia, error) {
	if strings.TrimSpace(name) == "" {
		return Trivia{}, Errorf(KindInvalidTriviaComposition, "trivia name cannot be empty")
	}
	if dup, ok := firstDuplicate(questionIDs); ok {
		return Trivia{}, Errorf(KindInvalidTriviaComposition, "duplicate question id %q", dup)
	}
	if dup, ok := firstDuplicate(userIDs); ok {
		return Trivia{}, Errorf(KindInvalidTriviaComposition, "duplicate user id %q", dup)
	}
	return Trivia{
		ID:          id,
		Name:        name,
		Description: description,
		QuestionIDs: append([]string{}, questionIDs...),
		UserIDs:     append([]string{}, userIDs...),
	}, nil
}

// HasUser reports whether userID is assigned to the trivia.
func (t Trivia) HasUser(userID string) bool {
	for _, id := range t.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NextUnanswered returns the first question of the trivia not present in answered.
func (t Trivia) NextUnanswered(answered map[string]struct{}) (string, bool) {
	return NextUnanswered(t.QuestionIDs, answered)
}

// NextUnanswered walks order and returns the first id missing from answered.
// Gaps are found even if answers were recorded out of sequence.
func NextUnanswered(order []string, answered map[string]struct{}) (string, bool) {
	for _, id := range order {
		if _, ok := answered[id]; !ok {
			return id, true
		}
	}
	return "", false
}

func firstDuplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
