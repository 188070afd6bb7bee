package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer  Action = "answer"
	ActionAdvance Action = "advance"
	ActionBack    Action = "back"
	ActionSubmit  Action = "submit"
	ActionPing    Action = "ping"
)

// RequestPayload is the single client message shape; Action selects
// which fields are meaningful.
type RequestPayload struct {
	Action Action   `json:"action"`
	QID    string   `json:"q_id,omitempty"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventState  Event = "state"
	EventTick   Event = "tick"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// SavedResponse acknowledges one autosaved answer.
type SavedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// TickResponse carries the authoritative remaining time, pushed once per
// second while the attempt is in progress.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// StateResponse carries the full session state view.
type StateResponse struct {
	Event Event       `json:"event"`
	State interface{} `json:"state"`
}

// GradedResponse reports the submission outcome.
type GradedResponse struct {
	Event  Event   `json:"event"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
	Passed bool    `json:"passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
