package models

import (
	"fmt"
	"time"
)

// Shop represents a bookable location with its business hours.
type Shop struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	OpeningTime string    `db:"opening_time" json:"opening_time"`
	ClosingTime string    `db:"closing_time" json:"closing_time"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClosingAt resolves the shop's closing time on the given calendar day.
// Closing times are stored as "HH:MM" wall-clock strings.
func (s *Shop) ClosingAt(day time.Time) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s.ClosingTime, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("parse closing time %q: %w", s.ClosingTime, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}
