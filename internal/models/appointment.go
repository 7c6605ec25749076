package models

import "time"

// Appointment statuses.
const (
	AppointmentStatusBooked    = "BOOKED"
	AppointmentStatusCancelled = "CANCELLED"
)

// Appointment is the parent record spanning all services booked together.
type Appointment struct {
	ID                   string    `db:"id" json:"id"`
	ShopID               string    `db:"shop_id" json:"shop_id"`
	CustomerID           string    `db:"customer_id" json:"customer_id"`
	Date                 string    `db:"date" json:"date"`
	StartTime            time.Time `db:"start_time" json:"start_time"`
	EndTime              time.Time `db:"end_time" json:"end_time"`
	TotalDurationMinutes int       `db:"total_duration_minutes" json:"total_duration_minutes"`
	MultiService         bool      `db:"multi_service" json:"multi_service"`
	Status               string    `db:"status" json:"status"`
	Notes                string    `db:"notes" json:"notes"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentItem is one placed service within an appointment.
// SequenceIndex is the placement order, not necessarily chronological order.
type AppointmentItem struct {
	ID            string    `db:"id" json:"id"`
	AppointmentID string    `db:"appointment_id" json:"appointment_id"`
	ServiceID     string    `db:"service_id" json:"service_id"`
	SpecialistID  string    `db:"specialist_id" json:"specialist_id"`
	StartTime     time.Time `db:"start_time" json:"start_time"`
	EndTime       time.Time `db:"end_time" json:"end_time"`
	SequenceIndex int       `db:"sequence_index" json:"sequence_index"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DaySheetRow is a read model row for a specialist's daily run sheet.
type DaySheetRow struct {
	AppointmentID string    `db:"appointment_id" json:"appointment_id"`
	CustomerID    string    `db:"customer_id" json:"customer_id"`
	ServiceID     string    `db:"service_id" json:"service_id"`
	ServiceName   string    `db:"service_name" json:"service_name"`
	StartTime     time.Time `db:"start_time" json:"start_time"`
	EndTime       time.Time `db:"end_time" json:"end_time"`
	Notes         string    `db:"notes" json:"notes"`
}
