package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trimly/booking-api/internal/models"
)

// AppointmentRepository persists appointments and their line items.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the parent appointment record.
func (r *AppointmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, appointment *models.Appointment) error {
	if appointment == nil {
		return fmt.Errorf("appointment payload is nil")
	}
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusBooked
	}
	now := time.Now().UTC()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now

	const query = `
INSERT INTO appointments (id, shop_id, customer_id, date, start_time, end_time, total_duration_minutes, multi_service, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.exec(exec).ExecContext(ctx, query,
		appointment.ID, appointment.ShopID, appointment.CustomerID, appointment.Date,
		appointment.StartTime, appointment.EndTime, appointment.TotalDurationMinutes,
		appointment.MultiService, appointment.Status, appointment.Notes,
		appointment.CreatedAt, appointment.UpdatedAt); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// CreateItems inserts one line item per placed service.
func (r *AppointmentRepository) CreateItems(ctx context.Context, exec sqlx.ExtContext, items []models.AppointmentItem) error {
	const query = `
INSERT INTO appointment_items (id, appointment_id, service_id, specialist_id, start_time, end_time, sequence_index, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		if _, err := r.exec(exec).ExecContext(ctx, query,
			items[i].ID, items[i].AppointmentID, items[i].ServiceID, items[i].SpecialistID,
			items[i].StartTime, items[i].EndTime, items[i].SequenceIndex, items[i].CreatedAt); err != nil {
			return fmt.Errorf("insert appointment item %d: %w", i, err)
		}
	}
	return nil
}

// CountBySpecialistOnDate counts distinct booked appointments involving the
// specialist on the date. Used for load-balanced assignment.
func (r *AppointmentRepository) CountBySpecialistOnDate(ctx context.Context, specialistID, date string) (int, error) {
	const query = `
SELECT COUNT(DISTINCT ai.appointment_id)
FROM appointment_items ai
JOIN appointments a ON a.id = ai.appointment_id
WHERE ai.specialist_id = $1 AND a.date = $2 AND a.status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, specialistID, date, models.AppointmentStatusBooked); err != nil {
		return 0, fmt.Errorf("count appointments for specialist %s: %w", specialistID, err)
	}
	return count, nil
}

// ListDaySheet returns the specialist's committed items for a date in
// chronological order, joined with service names for rendering.
func (r *AppointmentRepository) ListDaySheet(ctx context.Context, specialistID, date string) ([]models.DaySheetRow, error) {
	const query = `
SELECT ai.appointment_id, a.customer_id, ai.service_id, s.name AS service_name, ai.start_time, ai.end_time, a.notes
FROM appointment_items ai
JOIN appointments a ON a.id = ai.appointment_id
JOIN services s ON s.id = ai.service_id
WHERE ai.specialist_id = $1 AND a.date = $2 AND a.status = $3
ORDER BY ai.start_time`
	var rows []models.DaySheetRow
	if err := r.db.SelectContext(ctx, &rows, query, specialistID, date, models.AppointmentStatusBooked); err != nil {
		return nil, fmt.Errorf("list day sheet for specialist %s: %w", specialistID, err)
	}
	return rows, nil
}
