package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trimly/booking-api/internal/service"
	appErrors "github.com/trimly/booking-api/pkg/errors"
	"github.com/trimly/booking-api/pkg/response"
)

type daySheetService interface {
	Export(ctx context.Context, specialistID, date, format string) (*service.DaySheetExport, error)
}

// DaySheetHandler serves specialist run sheet exports.
type DaySheetHandler struct {
	service daySheetService
}

// NewDaySheetHandler constructs the handler.
func NewDaySheetHandler(service daySheetService) *DaySheetHandler {
	return &DaySheetHandler{service: service}
}

// Export godoc
// @Summary Export a specialist's day sheet
// @Tags DaySheets
// @Produce text/csv,application/pdf
// @Param id path string true "Specialist ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /specialists/{id}/day-sheet [get]
func (h *DaySheetHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	specialistID := c.Param("id")
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", service.DaySheetFormatCSV)))

	result, err := h.service.Export(c.Request.Context(), specialistID, date, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
