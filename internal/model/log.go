package model

import "time"

// LogKind is the closed set of event kinds the lab records.
type LogKind string

const (
	LogLogin            LogKind = "login"
	LogLogout           LogKind = "logout"
	LogStatusChange     LogKind = "status_change"
	LogSessionTimeout   LogKind = "session_timeout"
	LogMaintenanceStart LogKind = "maintenance_start"
	LogMaintenanceEnd   LogKind = "maintenance_end"
)

// Valid reports whether k is one of the known kinds.
func (k LogKind) Valid() bool {
	switch k {
	case LogLogin, LogLogout, LogStatusChange, LogSessionTimeout,
		LogMaintenanceStart, LogMaintenanceEnd:
		return true
	}
	return false
}

// LogSeverity grades a log entry for display.
type LogSeverity string

const (
	SeverityInfo    LogSeverity = "info"
	SeverityWarning LogSeverity = "warning"
	SeverityError   LogSeverity = "error"
	SeveritySuccess LogSeverity = "success"
)

// Valid reports whether s is one of the known severities.
func (s LogSeverity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeveritySuccess:
		return true
	}
	return false
}

// LogEntry is one record in the bounded, most-recent-first event log.
//
// Fields:
//  ID        – generated entry identifier.
//  Timestamp – when the event happened.
//  Kind      – what happened.
//  SeatID    – seat involved, if any.
//  UserID    – user involved, if any.
//  Message   – human-readable description.
//  Severity  – display grade.
type LogEntry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      LogKind     `json:"kind"`
	SeatID    string      `json:"seat_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Message   string      `json:"message"`
	Severity  LogSeverity `json:"severity"`
}
