package models

import (
	"time"

	"github.com/lib/pq"
)

// Specialist is a staff member qualified to perform one or more services.
type Specialist struct {
	ID         string         `db:"id" json:"id"`
	ShopID     string         `db:"shop_id" json:"shop_id"`
	FullName   string         `db:"full_name" json:"full_name"`
	ServiceIDs pq.StringArray `db:"service_ids" json:"service_ids"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Offers reports whether the specialist is qualified for the service.
func (s *Specialist) Offers(serviceID string) bool {
	for _, id := range s.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
