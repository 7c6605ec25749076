package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/trimly/booking-api/pkg/errors"
	"github.com/trimly/booking-api/pkg/response"
)

type archiveService interface {
	SignedLink(specialistID, date string) (string, time.Time, error)
	Open(token string) (io.ReadCloser, string, error)
}

// ArchiveHandler serves archived day sheets through signed tokens.
type ArchiveHandler struct {
	service archiveService
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(service archiveService) *ArchiveHandler {
	return &ArchiveHandler{service: service}
}

// Link godoc
// @Summary Create a signed download link for an archived day sheet
// @Tags DaySheets
// @Produce json
// @Param id path string true "Specialist ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /specialists/{id}/day-sheet/link [get]
func (h *ArchiveHandler) Link(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}

	token, expiresAt, err := h.service.SignedLink(c.Param("id"), date)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download an archived day sheet by token
// @Tags DaySheets
// @Produce text/csv
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /day-sheets/archives/{token} [get]
func (h *ArchiveHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	file, name, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
