// Package queue defines message payloads exchanged over the message broker.
package queue

// SessionEvent is published whenever a session transition is confirmed:
// login, logout or timeout.  It carries enough context for downstream
// consumers (the chat-bot relay, audit tooling) to react without querying
// the store.
type SessionEvent struct {
	Kind       string `json:"kind"` // login | logout | session_timeout
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	SeatID     string `json:"seat_id"`
	SeatName   string `json:"seat_name"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
