// Package lab owns the seat/session state machine: user registration,
// session lifecycle, maintenance transitions, the bounded event log and the
// recompute-after-mutation discipline for statistics.  Every operation is a
// single read-modify-write cycle against the store under one lock.
package lab

import (
	"errors"
	"fmt"
)

// ErrNotFound is the base of the not-found family; operations reject and
// leave state unchanged.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is the base of the conflict family: the requested transition
// contradicts current state.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

var (
	// ErrSeatNotFound is returned when a seat reference does not resolve.
	ErrSeatNotFound = fmt.Errorf("%w: unknown seat", ErrNotFound)
	// ErrUserNotFound is returned when a user reference does not resolve.
	ErrUserNotFound = fmt.Errorf("%w: unknown user", ErrNotFound)
	// ErrSessionNotFound is returned when a session reference does not resolve.
	ErrSessionNotFound = fmt.Errorf("%w: unknown session", ErrNotFound)

	// ErrSeatUnavailable rejects a claim on a seat that is not free.
	ErrSeatUnavailable = fmt.Errorf("%w: seat not free", ErrConflict)
	// ErrSeatOccupied rejects entering maintenance on a seat with an
	// active session; the session must be ended first.
	ErrSeatOccupied = fmt.Errorf("%w: seat occupied", ErrConflict)
	// ErrSessionEnded rejects ending or touching an already closed session.
	ErrSessionEnded = fmt.Errorf("%w: session already ended", ErrConflict)
	// ErrDuplicateUser rejects registering an identity that already exists.
	ErrDuplicateUser = fmt.Errorf("%w: duplicate identity", ErrConflict)
	// ErrNotInMaintenance rejects clearing maintenance on a seat that is
	// not under maintenance.
	ErrNotInMaintenance = fmt.Errorf("%w: seat not in maintenance", ErrConflict)
)
