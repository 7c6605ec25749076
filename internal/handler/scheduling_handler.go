package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trimly/booking-api/internal/dto"
	"github.com/trimly/booking-api/internal/middleware"
	appErrors "github.com/trimly/booking-api/pkg/errors"
	"github.com/trimly/booking-api/pkg/response"
)

type schedulingService interface {
	FindAvailableSlots(ctx context.Context, req dto.SlotSearchRequest) (*dto.SlotSearchResponse, bool, error)
	CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)
}

// SchedulingHandler wires the scheduling engine to HTTP endpoints.
type SchedulingHandler struct {
	service schedulingService
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(service schedulingService) *SchedulingHandler {
	return &SchedulingHandler{service: service}
}

// SearchSlots godoc
// @Summary Search feasible multi-service schedule candidates
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.SlotSearchRequest true "Slot search request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /slots/search [post]
func (h *SchedulingHandler) SearchSlots(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.SlotSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	start := time.Now()
	result, cacheHit, err := h.service.FindAvailableSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)

	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	meta["candidates"] = len(result.Candidates)
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// CreateBooking godoc
// @Summary Book a schedule candidate
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bookings [post]
func (h *SchedulingHandler) CreateBooking(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	// Authenticated customers always book for themselves.
	if claims := claimsFromContext(c); claims != nil && claims.Role == "customer" {
		req.CustomerID = claims.UserID
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
