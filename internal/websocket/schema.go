package websocket

import "github.com/stemsi/exstem-quiz-client/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect Action = "select"
	ActionSubmit Action = "submit"
	ActionReload Action = "reload"
	ActionPing   Action = "ping"
)

// RequestPayload is every message a websocket client may send. Select uses
// QuestionID and Choice; the other actions carry no fields.
type RequestPayload struct {
	Action     Action `json:"action"`
	QuestionID string `json:"question_id,omitempty"`
	Choice     *int   `json:"choice,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventView   Event = "view"
	EventResult Event = "result"
	EventReload Event = "reload"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// ViewResponse carries a freshly rendered view.
type ViewResponse struct {
	Event Event          `json:"event"`
	View  model.QuizView `json:"view"`
}

type ResultResponse struct {
	Event  Event             `json:"event"`
	Result model.ScoreResult `json:"result"`
}

type ReloadResponse struct {
	Event   Event               `json:"event"`
	Outcome model.ReloadOutcome `json:"outcome"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
