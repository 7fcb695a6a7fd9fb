package model

import (
	"errors"
	"testing"
	"time"
)

func validSnapshot() *Snapshot {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	snap := DefaultSnapshot(now)
	snap.Users = append(snap.Users, User{ID: "u-1", Name: "Ann", Track: TrackMotionDesign})
	start := now.Add(time.Hour)
	snap.Seats[0].Status = SeatOccupied
	snap.Seats[0].OccupantID = "u-1"
	snap.Seats[0].SessionStart = &start
	snap.Sessions = append(snap.Sessions, Session{
		ID: "s-1", UserID: "u-1", SeatID: snap.Seats[0].ID,
		StartAt: start, Active: true, LastSeen: start,
	})
	snap.Logs = append(snap.Logs, LogEntry{
		ID: "l-1", Timestamp: start, Kind: LogLogin,
		SeatID: snap.Seats[0].ID, UserID: "u-1",
		Message: "Ann took PC-01", Severity: SeveritySuccess,
	})
	return snap
}

func TestValidateAcceptsConsistentState(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"missing collections", func(s *Snapshot) { s.Seats = nil }},
		{"unknown seat status", func(s *Snapshot) { s.Seats[1].Status = "parked" }},
		{"unknown seat kind", func(s *Snapshot) { s.Seats[1].Kind = "mainframe" }},
		{"duplicate seat id", func(s *Snapshot) { s.Seats[2].ID = s.Seats[1].ID; s.Seats[2].Position = Position{Row: 9, Col: 9} }},
		{"duplicate position", func(s *Snapshot) { s.Seats[2].Position = s.Seats[1].Position }},
		{"occupied without occupant", func(s *Snapshot) { s.Seats[0].OccupantID = "" }},
		{"free with occupant", func(s *Snapshot) {
			start := time.Now()
			s.Seats[1].OccupantID = "u-1"
			s.Seats[1].SessionStart = &start
		}},
		{"maintenance without record", func(s *Snapshot) { s.Seats[7].Maintenance = nil }},
		{"active session on free seat", func(s *Snapshot) {
			s.Seats[0].Status = SeatFree
			s.Seats[0].OccupantID = ""
			s.Seats[0].SessionStart = nil
		}},
		{"occupied seat without active session", func(s *Snapshot) { s.Sessions[0].Active = false }},
		{"active session occupant mismatch", func(s *Snapshot) {
			s.Users = append(s.Users, User{ID: "u-2", Name: "Bob", Track: TrackMobileDev})
			s.Sessions[0].UserID = "u-2"
		}},
		{"dangling session seat", func(s *Snapshot) { s.Sessions[0].SeatID = "pc-999" }},
		{"dangling session user", func(s *Snapshot) { s.Sessions[0].UserID = "ghost" }},
		{"duplicate user id", func(s *Snapshot) { s.Users = append(s.Users, User{ID: "u-1", Name: "Twin", Track: TrackVRAR}) }},
		{"two active sessions on one seat", func(s *Snapshot) {
			s.Sessions = append(s.Sessions, Session{ID: "s-2", UserID: "u-1", SeatID: s.Sessions[0].SeatID, StartAt: time.Now(), Active: true})
		}},
		{"unknown log kind", func(s *Snapshot) { s.Logs[0].Kind = "reboot" }},
		{"unknown log severity", func(s *Snapshot) { s.Logs[0].Severity = "fatal" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := validSnapshot()
			tc.mutate(snap)
			if err := snap.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("err = %v, want ErrInvalidSnapshot", err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	snap := validSnapshot()
	clone := snap.Clone()

	clone.Seats[0].Status = SeatFree
	clone.Seats[0].OccupantID = ""
	*clone.Seats[0].SessionStart = time.Time{}
	clone.Users[0].Name = "Mallory"
	clone.Sessions[0].Active = false
	clone.Logs[0].Message = "tampered"
	if len(clone.Statistics.PopularHours) > 0 {
		clone.Statistics.PopularHours[0].Count = 999
	}
	clone.Seats[7].Maintenance.Reason = "tampered"

	if snap.Seats[0].Status != SeatOccupied || snap.Seats[0].OccupantID != "u-1" {
		t.Fatalf("clone shared seat state: %+v", snap.Seats[0])
	}
	if snap.Seats[0].SessionStart.IsZero() {
		t.Fatal("clone shared the session start pointer")
	}
	if snap.Users[0].Name != "Ann" {
		t.Fatalf("clone shared users: %+v", snap.Users[0])
	}
	if !snap.Sessions[0].Active {
		t.Fatal("clone shared sessions")
	}
	if snap.Logs[0].Message != "Ann took PC-01" {
		t.Fatalf("clone shared logs: %+v", snap.Logs[0])
	}
	if snap.Seats[7].Maintenance.Reason != "software update" {
		t.Fatalf("clone shared the maintenance record: %+v", snap.Seats[7].Maintenance)
	}
}

func TestDefaultSnapshotShape(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	snap := DefaultSnapshot(now)
	if err := snap.Validate(); err != nil {
		t.Fatalf("default snapshot invalid: %v", err)
	}
	if snap.Statistics.TotalSeats != 17 || snap.Statistics.FreeSeats != 16 || snap.Statistics.MaintenanceSeats != 1 {
		t.Fatalf("default statistics = %+v", snap.Statistics)
	}
	var maint *Seat
	for i := range snap.Seats {
		if snap.Seats[i].Status == SeatMaintenance {
			maint = &snap.Seats[i]
		}
	}
	if maint == nil || maint.ID != "pc-8" || maint.Maintenance == nil {
		t.Fatalf("expected pc-8 under maintenance, got %+v", maint)
	}
}
