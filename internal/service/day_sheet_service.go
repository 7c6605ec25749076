package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trimly/booking-api/internal/models"
	appErrors "github.com/trimly/booking-api/pkg/errors"
	"github.com/trimly/booking-api/pkg/export"
)

// Day sheet export formats.
const (
	DaySheetFormatCSV = "csv"
	DaySheetFormatPDF = "pdf"
)

type daySheetReader interface {
	ListDaySheet(ctx context.Context, specialistID, date string) ([]models.DaySheetRow, error)
}

// DaySheetExport is a rendered run sheet ready to be served.
type DaySheetExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// DaySheetService renders a specialist's booked day as CSV or PDF.
type DaySheetService struct {
	specialists specialistRoster
	sheets      daySheetReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewDaySheetService wires day sheet dependencies.
func NewDaySheetService(specialists specialistRoster, sheets daySheetReader, logger *zap.Logger) *DaySheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DaySheetService{
		specialists: specialists,
		sheets:      sheets,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

var daySheetHeaders = []string{"Start", "End", "Service", "Customer", "Appointment", "Notes"}

// Export builds the run sheet for one specialist and date. An empty day
// still renders, with the header row only.
func (s *DaySheetService) Export(ctx context.Context, specialistID, date, format string) (*DaySheetExport, error) {
	if format != DaySheetFormatCSV && format != DaySheetFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported day sheet format %q", format))
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", date))
	}

	specialist, err := s.specialists.FindByID(ctx, specialistID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("specialist %s not found", specialistID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load specialist")
	}

	rows, err := s.sheets.ListDaySheet(ctx, specialistID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day sheet")
	}

	dataset := export.Dataset{Headers: daySheetHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Start":       row.StartTime.Format("15:04"),
			"End":         row.EndTime.Format("15:04"),
			"Service":     row.ServiceName,
			"Customer":    row.CustomerID,
			"Appointment": row.AppointmentID,
			"Notes":       row.Notes,
		})
	}

	base := fmt.Sprintf("day-sheet-%s-%s", specialistID, date)
	switch format {
	case DaySheetFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render day sheet")
		}
		return &DaySheetExport{FileName: base + ".csv", ContentType: "text/csv", Content: content}, nil
	default:
		title := fmt.Sprintf("Day sheet %s %s", specialist.FullName, date)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render day sheet")
		}
		return &DaySheetExport{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	}
}
