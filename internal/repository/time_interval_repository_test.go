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

func newIntervalMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func intervalRows(start, end time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "specialist_id", "date", "start_time", "end_time", "available", "appointment_id", "created_at", "updated_at"}).
		AddRow("iv-1", "sp-1", "2026-09-01", start, end, true, nil, time.Now(), time.Now())
}

func TestTimeIntervalRepositoryListAvailableByDate(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM time_intervals WHERE date = (.+) AND available = TRUE AND specialist_id IN (.+) ORDER BY specialist_id, start_time`).
		WithArgs("2026-09-01", "sp-1", "sp-2").
		WillReturnRows(intervalRows(start, start.Add(3*time.Hour)))

	intervals, err := repo.ListAvailableByDate(context.Background(), "2026-09-01", []string{"sp-1", "sp-2"})
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Equal(t, "sp-1", intervals[0].SpecialistID)
	assert.True(t, intervals[0].Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeIntervalRepositoryListAvailableByDateEmptyIDs(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	intervals, err := repo.ListAvailableByDate(context.Background(), "2026-09-01", nil)
	require.NoError(t, err)
	assert.Nil(t, intervals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeIntervalRepositoryListForUpdate(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM time_intervals WHERE (.+) FOR UPDATE`).
		WithArgs("2026-09-01", "sp-1").
		WillReturnRows(intervalRows(start, start.Add(time.Hour)))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	intervals, err := repo.ListForUpdate(context.Background(), tx, "2026-09-01", []string{"sp-1"})
	require.NoError(t, err)
	require.Len(t, intervals, 1)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeIntervalRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	mock.ExpectExec("INSERT INTO time_intervals").
		WithArgs(sqlmock.AnyArg(), "sp-1", "2026-09-01", sqlmock.AnyArg(), sqlmock.AnyArg(), true, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	interval := &models.TimeInterval{
		SpecialistID: "sp-1",
		Date:         "2026-09-01",
		StartTime:    time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		Available:    true,
	}
	err := repo.Create(context.Background(), nil, interval)
	require.NoError(t, err)
	assert.NotEmpty(t, interval.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeIntervalRepositoryUpdateSpan(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	start := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE time_intervals SET start_time").
		WithArgs("iv-1", start, end, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSpan(context.Background(), nil, "iv-1", start, end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeIntervalRepositoryMarkBooked(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	mock.ExpectExec("UPDATE time_intervals SET available = FALSE").
		WithArgs("iv-1", "apt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkBooked(context.Background(), nil, "iv-1", "apt-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeIntervalRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	mock.ExpectExec("DELETE FROM time_intervals").
		WithArgs("iv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), nil, "iv-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeIntervalRepositoryWritesUseTransaction(t *testing.T) {
	db, mock, cleanup := newIntervalMock(t)
	defer cleanup()
	repo := NewTimeIntervalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE time_intervals SET available = FALSE").
		WithArgs("iv-1", "apt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.MarkBooked(context.Background(), tx, "iv-1", "apt-1"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
