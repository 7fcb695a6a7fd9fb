package model

import "time"

// SeatStatus is the closed set of states a seat can be in.  Exactly one
// status holds at any time; transitions are owned by the lab manager.
type SeatStatus string

const (
	SeatFree        SeatStatus = "free"
	SeatOccupied    SeatStatus = "occupied"
	SeatMaintenance SeatStatus = "maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatFree, SeatOccupied, SeatMaintenance:
		return true
	}
	return false
}

// SeatKind classifies the hardware installed at a seat.
type SeatKind string

const (
	KindDesktop  SeatKind = "desktop"
	KindAllInOne SeatKind = "all_in_one"
	KindLaptop   SeatKind = "laptop"
)

// Valid reports whether k is one of the known kinds.
func (k SeatKind) Valid() bool {
	switch k {
	case KindDesktop, KindAllInOne, KindLaptop:
		return true
	}
	return false
}

// Position locates a seat on the floor-plan grid.  Each seat occupies a
// unique (row, col) cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Maintenance records why a seat is out of service and for how long.
type Maintenance struct {
	Reason       string     `json:"reason"`
	StartedAt    time.Time  `json:"started_at"`
	EstimatedEnd *time.Time `json:"estimated_end,omitempty"`
}

// Seat describes one workstation slot in the lab.  Seats are provisioned
// once from the default layout and never deleted during normal operation.
//
// Fields:
//  ID           – stable identifier (e.g. "pc-1").
//  Name         – display name shown on the floor plan.
//  Kind         – hardware class of the workstation.
//  Status       – free, occupied or maintenance.
//  OccupantID   – user currently seated; set iff Status is occupied.
//  SessionStart – start of the active session; set iff Status is occupied.
//  Position     – fixed grid cell on the floor plan.
//  Maintenance  – out-of-service record; set iff Status is maintenance.
type Seat struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Kind         SeatKind     `json:"kind"`
	Status       SeatStatus   `json:"status"`
	OccupantID   string       `json:"occupant_id,omitempty"`
	SessionStart *time.Time   `json:"session_start,omitempty"`
	Position     Position     `json:"position"`
	Maintenance  *Maintenance `json:"maintenance,omitempty"`
}

// DefaultSeats returns the fixed provisioning layout of the lab: four rows
// of four plus a separate column, with one seat pre-flagged for software
// maintenance.  Callers receive a fresh slice on every call.
func DefaultSeats(now time.Time) []Seat {
	seats := []Seat{
		{ID: "pc-1", Name: "PC-01", Kind: KindDesktop, Position: Position{Row: 0, Col: 0}},
		{ID: "pc-2", Name: "PC-02", Kind: KindDesktop, Position: Position{Row: 0, Col: 1}},
		{ID: "pc-3", Name: "PC-03", Kind: KindDesktop, Position: Position{Row: 0, Col: 2}},
		{ID: "pc-4", Name: "PC-04", Kind: KindDesktop, Position: Position{Row: 0, Col: 3}},
		{ID: "pc-5", Name: "PC-05", Kind: KindDesktop, Position: Position{Row: 1, Col: 0}},
		{ID: "pc-6", Name: "PC-06", Kind: KindDesktop, Position: Position{Row: 1, Col: 1}},
		{ID: "pc-7", Name: "PC-07", Kind: KindDesktop, Position: Position{Row: 1, Col: 2}},
		{ID: "pc-8", Name: "PC-08", Kind: KindDesktop, Position: Position{Row: 1, Col: 3}},
		{ID: "pc-9", Name: "PC-09", Kind: KindDesktop, Position: Position{Row: 2, Col: 0}},
		{ID: "mono-1", Name: "AIO-01", Kind: KindAllInOne, Position: Position{Row: 2, Col: 1}},
		{ID: "pc-10", Name: "PC-10", Kind: KindDesktop, Position: Position{Row: 2, Col: 2}},
		{ID: "pc-11", Name: "PC-11", Kind: KindDesktop, Position: Position{Row: 2, Col: 3}},
		{ID: "pc-12", Name: "PC-12", Kind: KindDesktop, Position: Position{Row: 3, Col: 0}},
		{ID: "pc-13", Name: "PC-13", Kind: KindDesktop, Position: Position{Row: 3, Col: 2}},
		{ID: "laptop-1", Name: "NB-01", Kind: KindLaptop, Position: Position{Row: 3, Col: 3}},
		{ID: "pc-14", Name: "PC-14", Kind: KindDesktop, Position: Position{Row: 0, Col: 4}},
		{ID: "laptop-2", Name: "NB-02", Kind: KindLaptop, Position: Position{Row: 1, Col: 4}},
	}
	for i := range seats {
		seats[i].Status = SeatFree
	}
	// pc-8 ships under maintenance in the default layout.
	seats[7].Status = SeatMaintenance
	seats[7].Maintenance = &Maintenance{Reason: "software update", StartedAt: now}
	return seats
}
