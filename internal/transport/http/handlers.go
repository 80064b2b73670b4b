package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"trivia-service/internal/app"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the REST API.
type Handler struct {
	catalog  *app.CatalogService
	trivia   *app.TriviaService
	db       Pinger
	validate *validator.Validate
}

func NewHandler(catalog *app.CatalogService, trivia *app.TriviaService, db Pinger) *Handler {
	return &Handler{
		catalog:  catalog,
		trivia:   trivia,
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type createUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type createOptionRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type createQuestionRequest struct {
	Text       string                `json:"text" validate:"required"`
	Difficulty string                `json:"difficulty" validate:"required"`
	Options    []createOptionRequest `json:"options" validate:"dive"`
}

type createTriviaRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	QuestionIDs []string `json:"questionIds" validate:"dive,uuid"`
	UserIDs     []string `json:"userIds" validate:"dive,uuid"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HealthDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.catalog.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.catalog.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := app.QuestionInput{Text: req.Text, Difficulty: req.Difficulty}
	for _, o := range req.Options {
		in.Options = append(in.Options, app.OptionInput{Text: o.Text, Correct: o.IsCorrect})
	}
	question, err := h.catalog.CreateQuestion(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.catalog.ListQuestions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) CreateTrivia(w http.ResponseWriter, r *http.Request) {
	var req createTriviaRequest
	if !h.decode(w, r, &req) {
		return
	}
	trivia, err := h.catalog.CreateTrivia(r.Context(), app.TriviaInput{
		Name:        req.Name,
		Description: req.Description,
		QuestionIDs: req.QuestionIDs,
		UserIDs:     req.UserIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trivia)
}

func (h *Handler) ListTrivias(w http.ResponseWriter, r *http.Request) {
	trivias, err := h.catalog.ListTrivias(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trivias)
}

func (h *Handler) GetTrivia(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "triviaID")
	if !ok {
		return
	}
	trivia, err := h.catalog.GetTrivia(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trivia)
}

func (h *Handler) ListUserTrivias(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	trivias, err := h.catalog.ListUserTrivias(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trivias)
}

func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID", "triviaID")
	if !ok {
		return
	}
	userID, triviaID := ids[0], ids[1]
	res, err := h.trivia.PlayTrivia(r.Context(), userID, triviaID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Question == nil && !res.Finished() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no questions available", Kind: "question_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, newPlayResponse(userID, triviaID, res))
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID", "triviaID", "questionID", "optionID")
	if !ok {
		return
	}
	in := app.AnswerInput{UserID: ids[0], TriviaID: ids[1], QuestionID: ids[2], OptionID: ids[3]}
	res, err := h.trivia.AnswerQuestion(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnswerResponse(in.UserID, in.TriviaID, res))
}

func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "triviaID")
	if !ok {
		return
	}
	ranking, err := h.trivia.Ranking(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, invalidRequest("invalid JSON body: %v", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// pathIDs reads the named URL params, all of which must be UUIDs.
func pathIDs(w http.ResponseWriter, r *http.Request, names ...string) ([]string, bool) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		raw := chi.URLParam(r, name)
		if _, err := uuid.Parse(raw); err != nil {
			writeError(w, r, invalidRequest("%s must be a UUID, got %q", name, raw))
			return nil, false
		}
		ids = append(ids, raw)
	}
	return ids, true
}
