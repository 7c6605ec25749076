package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/trimly/booking-api/internal/dto"
	"github.com/trimly/booking-api/internal/models"
	appErrors "github.com/trimly/booking-api/pkg/errors"
)

// CreateBooking re-derives the schedule at the requested start time inside a
// transaction and commits it. Interval rows for the assigned specialists are
// read FOR UPDATE, so two concurrent bookings against the same specialist
// serialise and the loser sees the shrunk availability.
func (s *SchedulerService) CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	request, err := s.resolveRequest(req.ShopID, req.Date, req.ServiceIDs, req.SpecialistPins, req.OrderingStrategy, req.OptimizationStrategy, req.AllowParallel, &req)
	if err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, err
	}
	if req.StartTime.Format(models.DateLayout) != req.Date {
		s.metrics.RecordBooking("invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time does not fall on the requested date")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		s.metrics.RecordBooking("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("failed to rollback booking transaction", zap.Error(rbErr))
			}
		}
	}()

	snapshot, err := s.loadSnapshot(ctx, request, tx)
	if err != nil {
		s.metrics.RecordBooking("error")
		return nil, err
	}

	items, ok := buildSchedule(req.StartTime, snapshot.ordered, snapshot.assignment, snapshot.availability, s.engineConfig(), request.AllowParallel)
	if !ok {
		err = appErrors.Clone(appErrors.ErrNoFeasibleSchedule, "the requested start time can no longer be scheduled")
		s.metrics.RecordBooking("conflict")
		return nil, err
	}
	for _, item := range items {
		if item.End.After(snapshot.closing) {
			err = appErrors.Clone(appErrors.ErrNoFeasibleSchedule, "the schedule would run past closing time")
			s.metrics.RecordBooking("conflict")
			return nil, err
		}
	}

	start, end := scheduleSpan(items)
	appointment := &models.Appointment{
		ShopID:               request.ShopID,
		CustomerID:           req.CustomerID,
		Date:                 request.Date,
		StartTime:            start,
		EndTime:              end,
		TotalDurationMinutes: int(end.Sub(start).Minutes()),
		MultiService:         len(items) > 1,
		Status:               models.AppointmentStatusBooked,
		Notes:                req.Notes,
	}
	if err = s.appointments.Create(ctx, tx, appointment); err != nil {
		s.metrics.RecordBooking("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}

	appointmentItems := make([]models.AppointmentItem, 0, len(items))
	for _, item := range items {
		appointmentItems = append(appointmentItems, models.AppointmentItem{
			AppointmentID: appointment.ID,
			ServiceID:     item.ServiceID,
			SpecialistID:  item.SpecialistID,
			StartTime:     item.Start,
			EndTime:       item.End,
			SequenceIndex: item.SequenceIndex,
		})
	}
	if err = s.appointments.CreateItems(ctx, tx, appointmentItems); err != nil {
		s.metrics.RecordBooking("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment items")
	}

	if err = s.blockIntervals(ctx, tx, appointment.ID, items, snapshot.availability); err != nil {
		s.metrics.RecordBooking("error")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.metrics.RecordBooking("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit booking")
	}

	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("slots:%s:%s:*", request.ShopID, request.Date))
	}
	if s.archiver != nil {
		ids := make([]string, 0, len(snapshot.specialists))
		for id := range snapshot.specialists {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		s.archiver.EnqueueRefresh(request.Date, ids)
	}
	s.metrics.RecordBooking("ok")
	s.logger.Info("appointment booked",
		zap.String("appointment_id", appointment.ID),
		zap.String("shop_id", request.ShopID),
		zap.String("date", request.Date),
		zap.Int("services", len(items)))

	return &dto.CreateBookingResponse{
		AppointmentID:        appointment.ID,
		StartTime:            start,
		EndTime:              end,
		TotalDurationMinutes: appointment.TotalDurationMinutes,
		Items:                s.itemsToResponse(items, snapshot.specialists),
	}, nil
}

// blockIntervals rewrites the availability rows touched by the booked items.
// A row wholly consumed is marked booked; a row overlapped at one edge is
// shrunk to its free remainder; a row the item splits in the middle is
// replaced by its two free fragments. An item whose span matches no row is
// logged and skipped, the appointment rows remain authoritative.
func (s *SchedulerService) blockIntervals(ctx context.Context, tx *sqlx.Tx, appointmentID string, items []scheduleItem, availability map[string][]models.TimeInterval) error {
	rows := make(map[string][]models.TimeInterval, len(availability))
	for specialistID, intervals := range availability {
		rows[specialistID] = append([]models.TimeInterval(nil), intervals...)
	}

	for _, item := range items {
		touched := false
		remaining := make([]models.TimeInterval, 0, len(rows[item.SpecialistID]))
		for _, row := range rows[item.SpecialistID] {
			if !row.Overlaps(item.Start, item.End) {
				remaining = append(remaining, row)
				continue
			}
			touched = true

			leftFree := row.StartTime.Before(item.Start)
			rightFree := row.EndTime.After(item.End)
			switch {
			case !leftFree && !rightFree:
				if err := s.intervals.MarkBooked(ctx, tx, row.ID, appointmentID); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to block interval")
				}
			case leftFree && rightFree:
				before := models.TimeInterval{
					SpecialistID: row.SpecialistID,
					Date:         row.Date,
					StartTime:    row.StartTime,
					EndTime:      item.Start,
					Available:    true,
				}
				after := models.TimeInterval{
					SpecialistID: row.SpecialistID,
					Date:         row.Date,
					StartTime:    item.End,
					EndTime:      row.EndTime,
					Available:    true,
				}
				if err := s.intervals.Create(ctx, tx, &before); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to split interval")
				}
				if err := s.intervals.Create(ctx, tx, &after); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to split interval")
				}
				if err := s.intervals.Delete(ctx, tx, row.ID); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to split interval")
				}
				remaining = append(remaining, before, after)
				continue
			case leftFree:
				if err := s.intervals.UpdateSpan(ctx, tx, row.ID, row.StartTime, item.Start); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to shrink interval")
				}
				row.EndTime = item.Start
				remaining = append(remaining, row)
				continue
			default:
				if err := s.intervals.UpdateSpan(ctx, tx, row.ID, item.End, row.EndTime); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to shrink interval")
				}
				row.StartTime = item.End
				remaining = append(remaining, row)
				continue
			}
		}
		sort.Slice(remaining, func(i, j int) bool { return remaining[i].StartTime.Before(remaining[j].StartTime) })
		rows[item.SpecialistID] = remaining

		if !touched {
			s.logger.Warn("no availability interval found for booked item",
				zap.String("service_id", item.ServiceID),
				zap.String("specialist_id", item.SpecialistID),
				zap.Time("start", item.Start))
		}
	}
	return nil
}

func scheduleSpan(items []scheduleItem) (time.Time, time.Time) {
	start, end := items[0].Start, items[0].End
	for _, item := range items[1:] {
		if item.Start.Before(start) {
			start = item.Start
		}
		if item.End.After(end) {
			end = item.End
		}
	}
	return start, end
}
