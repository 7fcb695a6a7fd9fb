package model

// HourBucket counts sessions started during one hour of the day (0–23).
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Statistics holds the derived view of the lab.  It is recomputed from
// seats and sessions after every mutation and never mutated independently.
//
// AverageSessionMinutes is the mean duration of completed sessions in whole
// minutes, 0 when no session has completed.  PopularHours is the top eight
// start-hour buckets ordered by count descending, lower hour first on ties.
type Statistics struct {
	TotalSeats            int          `json:"total_seats"`
	OccupiedSeats         int          `json:"occupied_seats"`
	FreeSeats             int          `json:"free_seats"`
	MaintenanceSeats      int          `json:"maintenance_seats"`
	TotalUsers            int          `json:"total_users"`
	ActiveSessions        int          `json:"active_sessions"`
	AverageSessionMinutes int          `json:"average_session_minutes"`
	PopularHours          []HourBucket `json:"popular_hours"`
}
