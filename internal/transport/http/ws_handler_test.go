package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-service/internal/domain"
)

func TestWebSocketPlayFlow(t *testing.T) {
	s := newTestServer(t)
	f := seedFixture(t, s)
	user, trivia := f.users[0], f.trivia

	u := "ws" + s.URL[len("http"):] + "/ws?triviaId=" + trivia.ID + "&userId=" + user.ID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect play first, then the ranking snapshot.
	var play playResponse
	readNext(t, conn, "play", &play)
	if play.Question == nil || play.Question.ID != f.questions[0].ID {
		t.Fatalf("expected first question, got %+v", play)
	}
	readNext(t, conn, "ranking", nil)

	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionId": f.questions[0].ID,
			"optionId":   f.questions[0].Options[1].ID,
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	// answerResult and the broadcast ranking may arrive in either order.
	var (
		result      answerResponse
		ranking     domain.Ranking
		answerSeen  bool
		rankingSeen bool
	)
	for i := 0; i < 2; i++ {
		typ, payload := readRaw(t, conn)
		switch typ {
		case "answerResult":
			answerSeen = true
			_ = json.Unmarshal(payload, &result)
		case "ranking":
			rankingSeen = true
			_ = json.Unmarshal(payload, &ranking)
		default:
			t.Fatalf("unexpected message %s: %s", typ, payload)
		}
	}
	if !answerSeen || !rankingSeen {
		t.Fatalf("expected answerResult and ranking, got answerResult=%v ranking=%v", answerSeen, rankingSeen)
	}
	if !result.Correct || result.Question == nil || result.Question.ID != f.questions[1].ID {
		t.Fatalf("unexpected answer result %+v", result)
	}
	if len(ranking.Entries) != 1 || ranking.Entries[0].Score != 1 {
		t.Fatalf("unexpected ranking %+v", ranking)
	}

	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write unknown: %v", err)
	}
	var errResp errorResponse
	readNext(t, conn, "error", &errResp)
	if errResp.Kind != kindInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", errResp)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	s := newTestServer(t)
	u := "ws" + s.URL[len("http"):] + "/ws?triviaId=abc"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func readRaw(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func readNext(t *testing.T, conn *websocket.Conn, expect string, out any) {
	t.Helper()
	typ, payload := readRaw(t, conn)
	if typ != expect {
		t.Fatalf("expected type %s, got %s: %s", expect, typ, payload)
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			t.Fatalf("decode %s: %v", typ, err)
		}
	}
}
