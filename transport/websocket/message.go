package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

const (
	actionCreate    = "session:create"
	actionJoin      = "session:join"
	actionLeave     = "session:leave"
	actionMove      = "session:move"
	actionState     = "session:state"
	actionObserve   = "session:observe"
	actionUnobserve = "session:unobserve"
	actionUpdate    = "session:update"
	actionPing      = "ping"
	actionError     = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is shared by requests and responses. Requests fill the session id, mark and
// position; responses carry the session snapshot or an error.
type Payload struct {
	SessionID string               `json:"session_id,omitempty"`
	Mark      string               `json:"mark,omitempty"`
	Position  *int                 `json:"position,omitempty"`
	Session   *entity.SessionState `json:"session,omitempty"`
	Draw      bool                 `json:"draw,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func statePayload(id string, state entity.SessionState) Payload {
	return Payload{
		SessionID: id,
		Session:   &state,
		Draw:      state.IsDraw(),
	}
}
