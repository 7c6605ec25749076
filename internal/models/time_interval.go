package models

import "time"

// TimeInterval is a contiguous block of a specialist's free time on a date.
// Intervals for one specialist are non-overlapping and sorted by start.
type TimeInterval struct {
	ID            string    `db:"id" json:"id"`
	SpecialistID  string    `db:"specialist_id" json:"specialist_id"`
	Date          string    `db:"date" json:"date"`
	StartTime     time.Time `db:"start_time" json:"start_time"`
	EndTime       time.Time `db:"end_time" json:"end_time"`
	Available     bool      `db:"available" json:"available"`
	AppointmentID *string   `db:"appointment_id" json:"appointment_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Contains reports whether [start, end) lies fully inside the interval.
func (t *TimeInterval) Contains(start, end time.Time) bool {
	return !start.Before(t.StartTime) && !end.After(t.EndTime)
}

// Overlaps reports whether the interval intersects [start, end).
func (t *TimeInterval) Overlaps(start, end time.Time) bool {
	return t.StartTime.Before(end) && t.EndTime.After(start)
}
