// Package stats recomputes the derived statistics of the lab from seats and
// sessions.  Recompute is a pure function: no side effects, identical inputs
// always yield identical output, so the manager can call it after every
// mutation without bookkeeping.
package stats

import (
	"sort"

	"github.com/iliyamo/lab-occupancy/internal/model"
)

// topHours is how many start-hour buckets the popularity histogram keeps.
const topHours = 8

// Recompute derives Statistics from the current seats, users and sessions.
// Seat counts partition all seats by status.  The average session duration
// is the mean of (end - start) in whole minutes over completed sessions, 0
// when none have completed.  PopularHours buckets every session by the
// hour-of-day of its start time and keeps the top eight by count; equal
// counts order by lower hour first so the result is deterministic.
func Recompute(seats []model.Seat, users []model.User, sessions []model.Session) model.Statistics {
	st := model.Statistics{
		TotalSeats:   len(seats),
		TotalUsers:   len(users),
		PopularHours: []model.HourBucket{},
	}
	for _, s := range seats {
		switch s.Status {
		case model.SeatOccupied:
			st.OccupiedSeats++
		case model.SeatMaintenance:
			st.MaintenanceSeats++
		case model.SeatFree:
			st.FreeSeats++
		}
	}

	var completed int
	var totalMinutes int64
	var byHour [24]int
	for _, sess := range sessions {
		if sess.Active {
			st.ActiveSessions++
		} else if sess.EndAt != nil {
			completed++
			totalMinutes += int64(sess.EndAt.Sub(sess.StartAt).Minutes())
		}
		byHour[sess.StartAt.Hour()]++
	}
	if completed > 0 {
		st.AverageSessionMinutes = int(totalMinutes / int64(completed))
	}

	for hour, count := range byHour {
		if count > 0 {
			st.PopularHours = append(st.PopularHours, model.HourBucket{Hour: hour, Count: count})
		}
	}
	sort.SliceStable(st.PopularHours, func(i, j int) bool {
		a, b := st.PopularHours[i], st.PopularHours[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Hour < b.Hour
	})
	if len(st.PopularHours) > topHours {
		st.PopularHours = st.PopularHours[:topHours]
	}
	return st
}
