package models

import (
	"time"

	"github.com/lib/pq"
)

// Service represents a bookable service offered by a shop.
type Service struct {
	ID              string         `db:"id" json:"id"`
	ShopID          string         `db:"shop_id" json:"shop_id"`
	Name            string         `db:"name" json:"name"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Priority        int            `db:"priority" json:"priority"`
	DependencyIDs   pq.StringArray `db:"dependency_ids" json:"dependency_ids"`
	Active          bool           `db:"active" json:"active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Duration returns the service duration as a time.Duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
