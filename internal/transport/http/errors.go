package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"trivia-service/internal/domain"
)

// kindInvalidRequest marks malformed input rejected before reaching the services.
const kindInvalidRequest domain.Kind = "invalid_request"

type errorResponse struct {
	Error string      `json:"error"`
	Kind  domain.Kind `json:"kind"`
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindUserNotFound, domain.KindTriviaNotFound, domain.KindQuestionNotFound, domain.KindParticipationNotFound:
		return http.StatusNotFound
	case domain.KindInvalidQuestionOptions, domain.KindInvalidTriviaComposition, domain.KindInvalidUser, domain.KindUnknownDifficulty:
		return http.StatusUnprocessableEntity
	case domain.KindQuestionAlreadyAnswered, domain.KindParticipationFinished, domain.KindParticipationAlreadyFinished,
		domain.KindOptionNotFound, domain.KindInvalidScore, kindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		kind = kindInvalidRequest
	}
	status := statusFor(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

func invalidRequest(format string, args ...any) error {
	return domain.Errorf(kindInvalidRequest, format, args...)
}
