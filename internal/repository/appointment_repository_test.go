package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimly/booking-api/internal/models"
)

func newAppointmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAppointmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(sqlmock.AnyArg(), "shop-1", "cust-1", "2026-09-01",
			sqlmock.AnyArg(), sqlmock.AnyArg(), 60, true, models.AppointmentStatusBooked, "",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	appointment := &models.Appointment{
		ShopID:               "shop-1",
		CustomerID:           "cust-1",
		Date:                 "2026-09-01",
		StartTime:            time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndTime:              time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		TotalDurationMinutes: 60,
		MultiService:         true,
	}
	err := repo.Create(context.Background(), nil, appointment)
	require.NoError(t, err)
	assert.NotEmpty(t, appointment.ID)
	assert.Equal(t, models.AppointmentStatusBooked, appointment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateItems(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointment_items").
		WithArgs(sqlmock.AnyArg(), "apt-1", "cut", "sp-1", sqlmock.AnyArg(), sqlmock.AnyArg(), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO appointment_items").
		WithArgs(sqlmock.AnyArg(), "apt-1", "beard", "sp-1", sqlmock.AnyArg(), sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	items := []models.AppointmentItem{
		{AppointmentID: "apt-1", ServiceID: "cut", SpecialistID: "sp-1", SequenceIndex: 0},
		{AppointmentID: "apt-1", ServiceID: "beard", SpecialistID: "sp-1", SequenceIndex: 1},
	}
	require.NoError(t, repo.CreateItems(context.Background(), nil, items))
	assert.NotEmpty(t, items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCountBySpecialistOnDate(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT ai.appointment_id\)`).
		WithArgs("sp-1", "2026-09-01", models.AppointmentStatusBooked).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountBySpecialistOnDate(context.Background(), "sp-1", "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListDaySheet(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	rows := sqlmock.NewRows([]string{"appointment_id", "customer_id", "service_id", "service_name", "start_time", "end_time", "notes"}).
		AddRow("apt-1", "cust-1", "cut", "Haircut",
			time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC), "")
	mock.ExpectQuery(`SELECT ai.appointment_id, a.customer_id, ai.service_id, s.name AS service_name`).
		WithArgs("sp-1", "2026-09-01", models.AppointmentStatusBooked).
		WillReturnRows(rows)

	sheet, err := repo.ListDaySheet(context.Background(), "sp-1", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, "Haircut", sheet[0].ServiceName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
