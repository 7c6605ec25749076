package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trimly/booking-api/internal/models"
)

const timeIntervalColumns = `id, specialist_id, date, start_time, end_time, available, appointment_id, created_at, updated_at`

// TimeIntervalRepository manages the shared pool of free time intervals.
type TimeIntervalRepository struct {
	db *sqlx.DB
}

// NewTimeIntervalRepository constructs a TimeIntervalRepository.
func NewTimeIntervalRepository(db *sqlx.DB) *TimeIntervalRepository {
	return &TimeIntervalRepository{db: db}
}

func (r *TimeIntervalRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListAvailableByDate returns the free intervals of the given specialists on
// the date, grouped later by the caller, sorted by specialist and start.
func (r *TimeIntervalRepository) ListAvailableByDate(ctx context.Context, date string, specialistIDs []string) ([]models.TimeInterval, error) {
	if len(specialistIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(
		`SELECT %s FROM time_intervals WHERE date = ? AND available = TRUE AND specialist_id IN (?) ORDER BY specialist_id, start_time`,
		timeIntervalColumns), date, specialistIDs)
	if err != nil {
		return nil, fmt.Errorf("build intervals query: %w", err)
	}
	query = r.db.Rebind(query)

	var intervals []models.TimeInterval
	if err := r.db.SelectContext(ctx, &intervals, query, args...); err != nil {
		return nil, fmt.Errorf("list intervals for %s: %w", date, err)
	}
	return intervals, nil
}

// ListForUpdate locks and returns the free intervals of the given specialists
// on the date inside the caller's transaction. Concurrent bookings touching
// the same specialists serialize on these row locks.
func (r *TimeIntervalRepository) ListForUpdate(ctx context.Context, tx *sqlx.Tx, date string, specialistIDs []string) ([]models.TimeInterval, error) {
	if len(specialistIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(
		`SELECT %s FROM time_intervals WHERE date = ? AND available = TRUE AND specialist_id IN (?) ORDER BY specialist_id, start_time FOR UPDATE`,
		timeIntervalColumns), date, specialistIDs)
	if err != nil {
		return nil, fmt.Errorf("build locked intervals query: %w", err)
	}
	query = tx.Rebind(query)

	var intervals []models.TimeInterval
	if err := tx.SelectContext(ctx, &intervals, query, args...); err != nil {
		return nil, fmt.Errorf("lock intervals for %s: %w", date, err)
	}
	return intervals, nil
}

// Create inserts a new free interval row.
func (r *TimeIntervalRepository) Create(ctx context.Context, exec sqlx.ExtContext, interval *models.TimeInterval) error {
	if interval == nil {
		return fmt.Errorf("interval payload is nil")
	}
	if interval.ID == "" {
		interval.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if interval.CreatedAt.IsZero() {
		interval.CreatedAt = now
	}
	interval.UpdatedAt = now

	const query = `
INSERT INTO time_intervals (id, specialist_id, date, start_time, end_time, available, appointment_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.exec(exec).ExecContext(ctx, query,
		interval.ID, interval.SpecialistID, interval.Date, interval.StartTime, interval.EndTime,
		interval.Available, interval.AppointmentID, interval.CreatedAt, interval.UpdatedAt); err != nil {
		return fmt.Errorf("insert interval: %w", err)
	}
	return nil
}

// UpdateSpan shrinks an interval to a new [start, end) span.
func (r *TimeIntervalRepository) UpdateSpan(ctx context.Context, exec sqlx.ExtContext, id string, start, end time.Time) error {
	const query = `UPDATE time_intervals SET start_time = $2, end_time = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, start, end, time.Now().UTC()); err != nil {
		return fmt.Errorf("update interval span %s: %w", id, err)
	}
	return nil
}

// MarkBooked flags an interval as consumed by an appointment.
func (r *TimeIntervalRepository) MarkBooked(ctx context.Context, exec sqlx.ExtContext, id, appointmentID string) error {
	const query = `UPDATE time_intervals SET available = FALSE, appointment_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, appointmentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark interval booked %s: %w", id, err)
	}
	return nil
}

// Delete removes an interval row, typically after splitting it.
func (r *TimeIntervalRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `DELETE FROM time_intervals WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete interval %s: %w", id, err)
	}
	return nil
}
