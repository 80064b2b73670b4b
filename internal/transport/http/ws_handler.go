package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

// WSHandler runs an interactive play session over a websocket: the client
// receives its current question, answers in place, and sees live ranking updates.
type WSHandler struct {
	trivia   *app.TriviaService
	hub      *app.RankingHub
	upgrader websocket.Upgrader
}

func NewWSHandler(trivia *app.TriviaService, hub *app.RankingHub) *WSHandler {
	return &WSHandler{
		trivia: trivia,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request and serves one user's play session for one trivia.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	triviaID := r.URL.Query().Get("triviaId")
	userID := r.URL.Query().Get("userId")
	if triviaID == "" || userID == "" {
		writeError(w, r, invalidRequest("missing triviaId or userId"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	play, err := h.trivia.PlayTrivia(ctx, userID, triviaID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	updates, cancel := h.hub.Subscribe(triviaID)
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("ws write failed", "trivia_id", triviaID, "user_id", userID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "ranking", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// push drops messages once the writer has stopped.
	push := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	push(outboundMessage{Type: "play", Payload: newPlayResponse(userID, triviaID, play)})
	if ranking, err := h.trivia.Ranking(ctx, triviaID); err == nil {
		push(outboundMessage{Type: "ranking", Payload: ranking})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errorMessage(invalidRequest("invalid answer payload")))
				continue
			}
			res, err := h.trivia.AnswerQuestion(ctx, app.AnswerInput{
				UserID:     userID,
				TriviaID:   triviaID,
				QuestionID: payload.QuestionID,
				OptionID:   payload.OptionID,
			})
			if err != nil {
				push(errorMessage(err))
				continue
			}
			push(outboundMessage{Type: "answerResult", Payload: newAnswerResponse(userID, triviaID, res)})
		default:
			push(errorMessage(invalidRequest("unsupported message type %q", inbound.Type)))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage {
	kind := domain.KindOf(err)
	message := err.Error()
	if statusFor(kind) == http.StatusInternalServerError {
		message = "internal error"
	}
	return outboundMessage{Type: "error", Payload: errorResponse{Error: message, Kind: kind}}
}
