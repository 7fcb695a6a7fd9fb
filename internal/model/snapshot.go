package model

import (
	"errors"
	"time"
)

// ErrInvalidSnapshot is returned when an imported or loaded snapshot fails
// structural validation.  The store treats it as "absent" and self-heals;
// the import endpoint surfaces it to the caller.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the complete persisted state of the lab at a point in time.
// The store owns the durable copy; every manager operation re-reads it,
// mutates and writes it back as one unit.
type Snapshot struct {
	Seats      []Seat     `json:"seats"`
	Users      []User     `json:"users"`
	Sessions   []Session  `json:"sessions"`
	Logs       []LogEntry `json:"logs"`
	Statistics Statistics `json:"statistics"`
}

// DefaultSnapshot builds the freshly initialized state: the fixed seat
// layout, empty users/sessions/logs and statistics matching the layout.
func DefaultSnapshot(now time.Time) *Snapshot {
	seats := DefaultSeats(now)
	snap := &Snapshot{
		Seats:    seats,
		Users:    []User{},
		Sessions: []Session{},
		Logs:     []LogEntry{},
	}
	snap.Statistics = Statistics{
		TotalSeats:   len(seats),
		PopularHours: []HourBucket{},
	}
	for _, s := range seats {
		switch s.Status {
		case SeatOccupied:
			snap.Statistics.OccupiedSeats++
		case SeatMaintenance:
			snap.Statistics.MaintenanceSeats++
		default:
			snap.Statistics.FreeSeats++
		}
	}
	return snap
}

// Validate checks the snapshot's structure: required collections present,
// every enum value known, seat grid positions unique, cross-references
// resolvable and every active session in agreement with its seat's
// occupancy (and vice versa).  It returns ErrInvalidSnapshot wrapped with
// detail on failure.
func (s *Snapshot) Validate() error {
	if s == nil || s.Seats == nil || s.Users == nil || s.Sessions == nil || s.Logs == nil {
		return errors.Join(ErrInvalidSnapshot, errors.New("missing collections"))
	}
	positions := make(map[Position]bool, len(s.Seats))
	seatIdx := make(map[string]int, len(s.Seats))
	for i, seat := range s.Seats {
		if seat.ID == "" || !seat.Status.Valid() || !seat.Kind.Valid() {
			return errors.Join(ErrInvalidSnapshot, errors.New("malformed seat "+seat.ID))
		}
		if _, dup := seatIdx[seat.ID]; dup {
			return errors.Join(ErrInvalidSnapshot, errors.New("duplicate seat id "+seat.ID))
		}
		if positions[seat.Position] {
			return errors.Join(ErrInvalidSnapshot, errors.New("duplicate seat position"))
		}
		occupied := seat.OccupantID != "" && seat.SessionStart != nil
		if (seat.Status == SeatOccupied) != occupied {
			return errors.Join(ErrInvalidSnapshot, errors.New("occupancy mismatch on seat "+seat.ID))
		}
		if (seat.Status == SeatMaintenance) != (seat.Maintenance != nil) {
			return errors.Join(ErrInvalidSnapshot, errors.New("maintenance mismatch on seat "+seat.ID))
		}
		seatIdx[seat.ID] = i
		positions[seat.Position] = true
	}
	userIDs := make(map[string]bool, len(s.Users))
	for _, u := range s.Users {
		if u.ID == "" || u.Name == "" {
			return errors.Join(ErrInvalidSnapshot, errors.New("malformed user"))
		}
		if userIDs[u.ID] {
			return errors.Join(ErrInvalidSnapshot, errors.New("duplicate user id "+u.ID))
		}
		userIDs[u.ID] = true
	}
	activeBySeat := make(map[string]bool, len(s.Sessions))
	for _, sess := range s.Sessions {
		idx, seatOK := seatIdx[sess.SeatID]
		if sess.ID == "" || !seatOK || !userIDs[sess.UserID] {
			return errors.Join(ErrInvalidSnapshot, errors.New("dangling session reference"))
		}
		if sess.Active {
			if activeBySeat[sess.SeatID] {
				return errors.Join(ErrInvalidSnapshot, errors.New("two active sessions on seat "+sess.SeatID))
			}
			seat := s.Seats[idx]
			if seat.Status != SeatOccupied || seat.OccupantID != sess.UserID {
				return errors.Join(ErrInvalidSnapshot, errors.New("active session disagrees with seat "+sess.SeatID))
			}
			activeBySeat[sess.SeatID] = true
		}
	}
	for _, seat := range s.Seats {
		if seat.Status == SeatOccupied && !activeBySeat[seat.ID] {
			return errors.Join(ErrInvalidSnapshot, errors.New("occupied seat without active session "+seat.ID))
		}
	}
	for _, entry := range s.Logs {
		if !entry.Kind.Valid() || !entry.Severity.Valid() {
			return errors.Join(ErrInvalidSnapshot, errors.New("malformed log entry"))
		}
	}
	return nil
}

// Clone returns a deep copy of the snapshot so callers can hand it out
// without exposing the store's internal state to mutation.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Seats:      make([]Seat, len(s.Seats)),
		Users:      make([]User, len(s.Users)),
		Sessions:   make([]Session, len(s.Sessions)),
		Logs:       make([]LogEntry, len(s.Logs)),
		Statistics: s.Statistics,
	}
	copy(out.Users, s.Users)
	copy(out.Sessions, s.Sessions)
	copy(out.Logs, s.Logs)
	for i, seat := range s.Seats {
		if seat.SessionStart != nil {
			t := *seat.SessionStart
			seat.SessionStart = &t
		}
		if seat.Maintenance != nil {
			m := *seat.Maintenance
			if m.EstimatedEnd != nil {
				e := *m.EstimatedEnd
				m.EstimatedEnd = &e
			}
			seat.Maintenance = &m
		}
		out.Seats[i] = seat
	}
	for i, sess := range s.Sessions {
		if sess.EndAt != nil {
			t := *sess.EndAt
			out.Sessions[i].EndAt = &t
		}
	}
	out.Statistics.PopularHours = make([]HourBucket, len(s.Statistics.PopularHours))
	copy(out.Statistics.PopularHours, s.Statistics.PopularHours)
	return out
}
