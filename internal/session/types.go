package session

import (
	"time"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

// State is the lifecycle position of a narrowing session. A session id with
// no stored record is the implicit "no session" state.
type State string

const (
	StateAwaiting  State = "awaiting_response"
	StateSelected  State = "selected"
	StateCancelled State = "cancelled"
	StateExhausted State = "exhausted"
)

// Terminal reports whether the state ends the session. Terminal sessions are
// removed from the store, so a later Continue sees ErrSessionNotFound.
func (s State) Terminal() bool {
	return s == StateSelected || s == StateCancelled || s == StateExhausted
}

// Session is the stored snapshot of one narrowing conversation: the ranked
// results of a single search call plus a cursor into them. It round-trips
// through JSON for the Redis store.
type Session struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Query     string          `json:"query"`
	Results   []*model.Memory `json:"results"`
	Cursor    int             `json:"cursor"`
	BatchSize int             `json:"batch_size"`
	State     State           `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// Total is the number of results the session holds. Selections are validated
// against this, not against the size of the batch on screen.
func (s *Session) Total() int {
	return len(s.Results)
}

func (s *Session) batch() []*model.Memory {
	if s.Cursor >= len(s.Results) {
		return nil
	}
	end := s.Cursor + s.BatchSize
	if end > len(s.Results) {
		end = len(s.Results)
	}
	return s.Results[s.Cursor:end]
}

// Response is what Start and Continue hand back to the conversation layer.
// Batch is nil on terminal states; Selected is set only for StateSelected;
// Clarification is set only when the utterance could not be classified.
type Response struct {
	SessionID     string          `json:"session_id"`
	State         State           `json:"state"`
	Batch         []*model.Memory `json:"batch,omitempty"`
	BatchStart    int             `json:"batch_start"`
	Total         int             `json:"total"`
	Selected      *model.Memory   `json:"selected,omitempty"`
	Clarification string          `json:"clarification,omitempty"`
}
