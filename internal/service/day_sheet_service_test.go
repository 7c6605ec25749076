package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trimly/booking-api/internal/models"
	appErrors "github.com/trimly/booking-api/pkg/errors"
)

type mockDaySheetReader struct {
	rows  []models.DaySheetRow
	err   error
	calls int
}

func (m *mockDaySheetReader) ListDaySheet(_ context.Context, _, _ string) ([]models.DaySheetRow, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func newDaySheetFixture(rows []models.DaySheetRow) (*DaySheetService, *mockDaySheetReader) {
	specialists := &mockSpecialistRepo{specialists: []models.Specialist{
		{ID: "sp-1", ShopID: "shop-1", FullName: "Dana Reyes", ServiceIDs: []string{"cut"}, Active: true},
	}}
	reader := &mockDaySheetReader{rows: rows}
	return NewDaySheetService(specialists, reader, zap.NewNop()), reader
}

func TestDaySheetExportCSV(t *testing.T) {
	svc, _ := newDaySheetFixture([]models.DaySheetRow{
		{
			AppointmentID: "apt-1",
			CustomerID:    "cust-1",
			ServiceID:     "cut",
			ServiceName:   "Haircut",
			StartTime:     at(9, 0),
			EndTime:       at(9, 30),
		},
	})

	result, err := svc.Export(context.Background(), "sp-1", "2026-09-01", DaySheetFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "day-sheet-sp-1-2026-09-01.csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Start")
	assert.Contains(t, lines[1], "09:00")
	assert.Contains(t, lines[1], "Haircut")
}

func TestDaySheetExportPDF(t *testing.T) {
	svc, _ := newDaySheetFixture(nil)

	result, err := svc.Export(context.Background(), "sp-1", "2026-09-01", DaySheetFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestDaySheetExportValidation(t *testing.T) {
	svc, reader := newDaySheetFixture(nil)

	_, err := svc.Export(context.Background(), "sp-1", "2026-09-01", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(context.Background(), "sp-1", "not-a-date", DaySheetFormatCSV)
	require.Error(t, err)

	_, err = svc.Export(context.Background(), "sp-404", "2026-09-01", DaySheetFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, reader.calls)
}
