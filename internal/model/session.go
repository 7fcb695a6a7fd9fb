package model

import "time"

// Session is the interval a user occupies a seat.  Sessions are closed on
// logout or by administrative action and retained afterwards for the
// statistics aggregator; they are never physically deleted.
//
// Invariant: for a given seat at most one session has Active=true, and the
// seat's occupant/status must agree with that session.
//
// Fields:
//  ID       – generated session identifier.
//  UserID   – user occupying the seat.
//  SeatID   – seat being occupied.
//  StartAt  – when the seat was claimed.
//  EndAt    – when the session ended; nil while active.
//  Active   – true until the session is closed.
//  LastSeen – refreshed by the client heartbeat; informational only.
type Session struct {
	ID       string     `json:"id"`
	UserID   string     `json:"user_id"`
	SeatID   string     `json:"seat_id"`
	StartAt  time.Time  `json:"start_at"`
	EndAt    *time.Time `json:"end_at,omitempty"`
	Active   bool       `json:"active"`
	LastSeen time.Time  `json:"last_seen"`
}
