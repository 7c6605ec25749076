package dto

import "time"

// SlotSearchRequest asks for feasible multi-service schedule candidates.
type SlotSearchRequest struct {
	ShopID               string            `json:"shopId" validate:"required"`
	Date                 string            `json:"date" validate:"required,datetime=2006-01-02"`
	ServiceIDs           []string          `json:"serviceIds" validate:"required,min=1,dive,required"`
	SpecialistPins       map[string]string `json:"specialistPins" validate:"omitempty"`
	OrderingStrategy     string            `json:"orderingStrategy" validate:"omitempty"`
	OptimizationStrategy string            `json:"optimizationStrategy" validate:"omitempty"`
	AllowParallel        bool              `json:"allowParallel"`
}

// ScheduleItemResponse is one placed service inside a candidate schedule.
type ScheduleItemResponse struct {
	ServiceID      string    `json:"serviceId"`
	SpecialistID   string    `json:"specialistId"`
	SpecialistName string    `json:"specialistName,omitempty"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	SequenceIndex  int       `json:"sequenceIndex"`
}

// ScheduleMetrics carries the evaluated quality figures of a schedule.
type ScheduleMetrics struct {
	TotalDurationMinutes  int     `json:"totalDurationMinutes"`
	WaitTimeMinutes       int     `json:"waitTimeMinutes"`
	SpecialistUtilization float64 `json:"specialistUtilization"`
}

// SlotCandidateResponse is one ranked feasible schedule for a start time.
type SlotCandidateResponse struct {
	StartTime time.Time              `json:"startTime"`
	Items     []ScheduleItemResponse `json:"items"`
	Metrics   ScheduleMetrics        `json:"metrics"`
}

// SlotSearchResponse returns the ranked candidates.
type SlotSearchResponse struct {
	Candidates []SlotCandidateResponse `json:"candidates"`
}

// CreateBookingRequest commits a previously evaluated candidate.
type CreateBookingRequest struct {
	ShopID               string            `json:"shopId" validate:"required"`
	Date                 string            `json:"date" validate:"required,datetime=2006-01-02"`
	ServiceIDs           []string          `json:"serviceIds" validate:"required,min=1,dive,required"`
	SpecialistPins       map[string]string `json:"specialistPins" validate:"omitempty"`
	OrderingStrategy     string            `json:"orderingStrategy" validate:"omitempty"`
	OptimizationStrategy string            `json:"optimizationStrategy" validate:"omitempty"`
	AllowParallel        bool              `json:"allowParallel"`
	StartTime            time.Time         `json:"startTime" validate:"required"`
	CustomerID           string            `json:"customerId" validate:"required"`
	Notes                string            `json:"notes" validate:"omitempty,max=1000"`
}

// CreateBookingResponse describes the committed appointment.
type CreateBookingResponse struct {
	AppointmentID        string                 `json:"appointmentId"`
	StartTime            time.Time              `json:"startTime"`
	EndTime              time.Time              `json:"endTime"`
	TotalDurationMinutes int                    `json:"totalDurationMinutes"`
	Items                []ScheduleItemResponse `json:"items"`
}
