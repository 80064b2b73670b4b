package domain

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category. Every failure the trivia core can
// produce maps to exactly one Kind.
type Kind string

const (
	KindUnknown                      Kind = "unknown"
	KindInvalidQuestionOptions       Kind = "invalid_question_options"
	KindInvalidTriviaComposition     Kind = "invalid_trivia_composition"
	KindInvalidUser                  Kind = "invalid_user"
	KindInvalidScore                 Kind = "invalid_score"
	KindUnknownDifficulty            Kind = "unknown_difficulty"
	KindUserNotFound                 Kind = "user_not_found"
	KindParticipationNotFound        Kind = "participation_not_found"
	KindTriviaNotFound               Kind = "trivia_not_found"
	KindQuestionNotFound             Kind = "question_not_found"
	KindOptionNotFound               Kind = "option_not_found"
	KindParticipationFinished        Kind = "participation_finished"
	KindParticipationAlreadyFinished Kind = "participation_already_finished"
	KindQuestionAlreadyAnswered      Kind = "question_already_answered"
	KindConflict                     Kind = "conflict"
)

// Error is the domain error type. Two errors match under errors.Is when they
// share a Kind, so callers compare against the sentinels below regardless of
// the message or wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a domain error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Errorf builds an error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind that keeps cause in the chain.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first domain error in err's chain, or
// KindUnknown if there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

var (
	// ErrInvalidQuestionOptions is returned when a question does not have at least two options with exactly one correct.
	ErrInvalidQuestionOptions = &Error{Kind: KindInvalidQuestionOptions, Message: "invalid question options"}
	// ErrInvalidTriviaComposition is returned for an empty trivia name or duplicated question/user ids.
	ErrInvalidTriviaComposition = &Error{Kind: KindInvalidTriviaComposition, Message: "invalid trivia composition"}
	// ErrInvalidUser is returned when user fields fail validation (empty name, malformed email).
	ErrInvalidUser = &Error{Kind: KindInvalidUser, Message: "invalid user"}
	// ErrInvalidScore is returned for a negative score delta.
	ErrInvalidScore = &Error{Kind: KindInvalidScore, Message: "points cannot be negative"}
	// ErrUnknownDifficulty indicates a difficulty tag outside easy/medium/hard.
	ErrUnknownDifficulty = &Error{Kind: KindUnknownDifficulty, Message: "unknown difficulty"}

	ErrUserNotFound          = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrParticipationNotFound = &Error{Kind: KindParticipationNotFound, Message: "participation not found"}
	ErrTriviaNotFound        = &Error{Kind: KindTriviaNotFound, Message: "trivia not found"}
	ErrQuestionNotFound      = &Error{Kind: KindQuestionNotFound, Message: "question not found"}
	ErrOptionNotFound        = &Error{Kind: KindOptionNotFound, Message: "option not found"}

	// ErrParticipationFinished is returned when answering on a finished participation.
	ErrParticipationFinished = &Error{Kind: KindParticipationFinished, Message: "participation is already finished"}
	// ErrParticipationAlreadyFinished is returned by a second Finish call.
	ErrParticipationAlreadyFinished = &Error{Kind: KindParticipationAlreadyFinished, Message: "participation already finished"}
	// ErrQuestionAlreadyAnswered guards the one-answer-per-question rule.
	ErrQuestionAlreadyAnswered = &Error{Kind: KindQuestionAlreadyAnswered, Message: "question already answered"}
	// ErrConflict is a storage uniqueness or concurrent-update violation.
	ErrConflict = &Error{Kind: KindConflict, Message: "conflict"}
)
