package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/trimly/booking-api/internal/dto"
	"github.com/trimly/booking-api/internal/models"
	"github.com/trimly/booking-api/pkg/config"
	appErrors "github.com/trimly/booking-api/pkg/errors"
)

type shopReader interface {
	FindByID(ctx context.Context, id string) (*models.Shop, error)
}

type serviceCatalog interface {
	ListActiveByIDs(ctx context.Context, shopID string, ids []string) ([]models.Service, error)
}

type specialistRoster interface {
	FindByID(ctx context.Context, id string) (*models.Specialist, error)
	ListActiveByService(ctx context.Context, shopID, serviceID string) ([]models.Specialist, error)
}

type appointmentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, appointment *models.Appointment) error
	CreateItems(ctx context.Context, exec sqlx.ExtContext, items []models.AppointmentItem) error
	CountBySpecialistOnDate(ctx context.Context, specialistID, date string) (int, error)
}

type intervalStore interface {
	ListAvailableByDate(ctx context.Context, date string, specialistIDs []string) ([]models.TimeInterval, error)
	ListForUpdate(ctx context.Context, tx *sqlx.Tx, date string, specialistIDs []string) ([]models.TimeInterval, error)
	Create(ctx context.Context, exec sqlx.ExtContext, interval *models.TimeInterval) error
	UpdateSpan(ctx context.Context, exec sqlx.ExtContext, id string, start, end time.Time) error
	MarkBooked(ctx context.Context, exec sqlx.ExtContext, id, appointmentID string) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type daySheetArchiver interface {
	EnqueueRefresh(date string, specialistIDs []string)
}

// SchedulerService runs the multi-service scheduling search and commits
// chosen schedules.
type SchedulerService struct {
	shops        shopReader
	services     serviceCatalog
	specialists  specialistRoster
	appointments appointmentStore
	intervals    intervalStore
	tx           txProvider
	validator    *validator.Validate
	logger       *zap.Logger
	cache        *CacheService
	metrics      *MetricsService
	archiver     daySheetArchiver
	cfg          config.SchedulerConfig
}

// SetArchiver attaches the optional day sheet archive hook fired after
// successful bookings.
func (s *SchedulerService) SetArchiver(archiver daySheetArchiver) {
	s.archiver = archiver
}

// NewSchedulerService wires scheduler dependencies.
func NewSchedulerService(
	shops shopReader,
	services serviceCatalog,
	specialists specialistRoster,
	appointments appointmentStore,
	intervals intervalStore,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cache *CacheService,
	metrics *MetricsService,
	cfg config.SchedulerConfig,
) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpecialistBuffer <= 0 {
		cfg.SpecialistBuffer = 10 * time.Minute
	}
	if cfg.TransitionBuffer <= 0 {
		cfg.TransitionBuffer = 15 * time.Minute
	}
	if cfg.CandidateStep <= 0 {
		cfg.CandidateStep = 15 * time.Minute
	}
	if cfg.MaxServices <= 0 {
		cfg.MaxServices = 10
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 500
	}
	return &SchedulerService{
		shops:        shops,
		services:     services,
		specialists:  specialists,
		appointments: appointments,
		intervals:    intervals,
		tx:           tx,
		validator:    validate,
		logger:       logger,
		cache:        cache,
		metrics:      metrics,
		cfg:          cfg,
	}
}

// schedulingRequest is the validated, strategy-resolved request shape shared
// by search and commit.
type schedulingRequest struct {
	ShopID        string
	Date          string
	Day           time.Time
	ServiceIDs    []string
	Pins          map[string]string
	Ordering      string
	Optimization  string
	AllowParallel bool
}

// schedulingSnapshot is the per-request read-only view of the world the
// engine operates on. Building it is the only data access the search does.
type schedulingSnapshot struct {
	shop          *models.Shop
	closing       time.Time
	requirements  []serviceRequirement
	ordered       []serviceRequirement
	assignment    map[string]string
	specialists   map[string]*models.Specialist
	availability  map[string][]models.TimeInterval
	totalDuration time.Duration
}

// FindAvailableSlots returns up to MaxResults ranked feasible schedules for
// the requested services. Read-only and side-effect free. The boolean
// reports whether the response came from cache.
func (s *SchedulerService) FindAvailableSlots(ctx context.Context, req dto.SlotSearchRequest) (*dto.SlotSearchResponse, bool, error) {
	request, err := s.resolveRequest(req.ShopID, req.Date, req.ServiceIDs, req.SpecialistPins, req.OrderingStrategy, req.OptimizationStrategy, req.AllowParallel, &req)
	if err != nil {
		s.metrics.RecordSlotSearch("invalid", 0)
		return nil, false, err
	}

	cacheKey := s.searchCacheKey(req)
	if s.cache.Enabled() {
		var cached dto.SlotSearchResponse
		hit, cacheErr := s.cache.Get(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			s.metrics.RecordSlotSearch("cached", len(cached.Candidates))
			return &cached, true, nil
		}
	}

	snapshot, err := s.loadSnapshot(ctx, request, nil)
	if err != nil {
		s.metrics.RecordSlotSearch("error", 0)
		return nil, false, err
	}

	starts := candidateStarts(snapshot.availability, s.cfg.CandidateStep, snapshot.closing, snapshot.totalDuration, s.cfg.MaxCandidates)

	var candidates []candidateSchedule
	for _, start := range starts {
		items, ok := buildSchedule(start, snapshot.ordered, snapshot.assignment, snapshot.availability, s.engineConfig(), request.AllowParallel)
		if !ok {
			continue
		}
		candidates = append(candidates, candidateSchedule{
			Start:   start,
			Items:   items,
			Metrics: evaluateSchedule(items, s.cfg.SpecialistBuffer),
		})
	}

	if len(candidates) == 0 {
		s.metrics.RecordSlotSearch("no_feasible", 0)
		return nil, false, appErrors.Clone(appErrors.ErrNoFeasibleSchedule, "")
	}

	ranked := rankCandidates(candidates, request.Optimization, s.cfg.MaxResults)

	resp := &dto.SlotSearchResponse{Candidates: make([]dto.SlotCandidateResponse, 0, len(ranked))}
	for _, candidate := range ranked {
		resp.Candidates = append(resp.Candidates, dto.SlotCandidateResponse{
			StartTime: candidate.Start,
			Items:     s.itemsToResponse(candidate.Items, snapshot.specialists),
			Metrics:   candidate.Metrics,
		})
	}

	s.metrics.RecordSlotSearch("ok", len(resp.Candidates))
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, resp, s.cfg.SearchCacheTTL)
	}
	return resp, false, nil
}

// resolveRequest performs every check that must fail before data access:
// payload validation, strategy parsing, the service count cap, and pin keys
// referencing unrequested services.
func (s *SchedulerService) resolveRequest(shopID, date string, serviceIDs []string, pins map[string]string, ordering, optimization string, allowParallel bool, payload interface{}) (*schedulingRequest, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}

	orderingStrategy, err := parseOrderingStrategy(ordering)
	if err != nil {
		return nil, err
	}
	optimizationStrategy, err := parseOptimizationStrategy(optimization)
	if err != nil {
		return nil, err
	}

	if len(serviceIDs) > s.cfg.MaxServices {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("at most %d services can be booked together, got %d", s.cfg.MaxServices, len(serviceIDs)))
	}

	requested := make(map[string]bool, len(serviceIDs))
	for _, id := range serviceIDs {
		requested[id] = true
	}
	for serviceID := range pins {
		if !requested[serviceID] {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("specialist pin references unrequested service %s", serviceID))
		}
	}

	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", date))
	}

	return &schedulingRequest{
		ShopID:        shopID,
		Date:          date,
		Day:           day,
		ServiceIDs:    serviceIDs,
		Pins:          pins,
		Ordering:      orderingStrategy,
		Optimization:  optimizationStrategy,
		AllowParallel: allowParallel,
	}, nil
}

// loadSnapshot resolves catalog metadata, assigns specialists and loads
// availability. When tx is non-nil the interval rows are read FOR UPDATE so
// the commit path works against a locked snapshot.
func (s *SchedulerService) loadSnapshot(ctx context.Context, request *schedulingRequest, tx *sqlx.Tx) (*schedulingSnapshot, error) {
	shop, err := s.shops.FindByID(ctx, request.ShopID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("shop %s not found", request.ShopID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shop")
	}
	closing, err := shop.ClosingAt(request.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve shop closing time")
	}

	requirements, err := s.lookupServices(ctx, request.ShopID, request.ServiceIDs)
	if err != nil {
		return nil, err
	}

	assignment, specialists, err := s.assignSpecialists(ctx, request, requirements)
	if err != nil {
		return nil, err
	}

	availability, err := s.loadAvailability(ctx, request, assignment, tx)
	if err != nil {
		return nil, err
	}

	var total time.Duration
	for _, req := range requirements {
		total += req.Duration
	}

	return &schedulingSnapshot{
		shop:          shop,
		closing:       closing,
		requirements:  requirements,
		ordered:       sequenceServices(requirements, request.Ordering),
		assignment:    assignment,
		specialists:   specialists,
		availability:  availability,
		totalDuration: total,
	}, nil
}

// lookupServices resolves the requested ids against the shop's active catalog
// and names every missing or inactive id in the error.
func (s *SchedulerService) lookupServices(ctx context.Context, shopID string, serviceIDs []string) ([]serviceRequirement, error) {
	services, err := s.services.ListActiveByIDs(ctx, shopID, serviceIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load services")
	}

	found := make(map[string]models.Service, len(services))
	for _, service := range services {
		found[service.ID] = service
	}

	var missing []string
	requirements := make([]serviceRequirement, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		service, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		requirements = append(requirements, serviceRequirement{
			ServiceID:    service.ID,
			Duration:     service.Duration(),
			Priority:     service.Priority,
			Dependencies: service.DependencyIDs,
		})
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unknown or inactive services: %s", strings.Join(missing, ", ")))
	}
	return requirements, nil
}

// assignSpecialists validates pinned specialists and load-balances the rest.
// Assignment is independent per service: the candidate with the fewest
// appointments on the date wins, ties broken by roster order. Two short
// services can still pile onto the same specialist.
func (s *SchedulerService) assignSpecialists(ctx context.Context, request *schedulingRequest, requirements []serviceRequirement) (map[string]string, map[string]*models.Specialist, error) {
	assignment := make(map[string]string, len(requirements))
	specialists := make(map[string]*models.Specialist)
	counts := make(map[string]int)

	countFor := func(specialistID string) (int, error) {
		if count, ok := counts[specialistID]; ok {
			return count, nil
		}
		count, err := s.appointments.CountBySpecialistOnDate(ctx, specialistID, request.Date)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count specialist bookings")
		}
		counts[specialistID] = count
		return count, nil
	}

	for _, req := range requirements {
		if pinnedID, ok := request.Pins[req.ServiceID]; ok {
			specialist, ok := specialists[pinnedID]
			if !ok {
				loaded, err := s.specialists.FindByID(ctx, pinnedID)
				if err != nil {
					if errors.Is(err, sql.ErrNoRows) {
						return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("specialist %s not found", pinnedID))
					}
					return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load specialist")
				}
				specialist = loaded
			}
			if !specialist.Active || specialist.ShopID != request.ShopID {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("specialist %s is not active in this shop", pinnedID))
			}
			if !specialist.Offers(req.ServiceID) {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("specialist %s does not offer service %s", pinnedID, req.ServiceID))
			}
			specialists[specialist.ID] = specialist
			assignment[req.ServiceID] = specialist.ID
			continue
		}

		candidates, err := s.specialists.ListActiveByService(ctx, request.ShopID, req.ServiceID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load specialists")
		}
		if len(candidates) == 0 {
			return nil, nil, appErrors.Clone(appErrors.ErrNoSpecialists,
				fmt.Sprintf("no specialists available for service %s", req.ServiceID))
		}

		var chosen *models.Specialist
		best := -1
		for i := range candidates {
			count, err := countFor(candidates[i].ID)
			if err != nil {
				return nil, nil, err
			}
			if chosen == nil || count < best {
				chosen = &candidates[i]
				best = count
			}
		}
		specialists[chosen.ID] = chosen
		assignment[req.ServiceID] = chosen.ID
	}

	return assignment, specialists, nil
}

// loadAvailability fetches free intervals for exactly the assigned
// specialists. A specialist with no rows is unschedulable, not an error.
func (s *SchedulerService) loadAvailability(ctx context.Context, request *schedulingRequest, assignment map[string]string, tx *sqlx.Tx) (map[string][]models.TimeInterval, error) {
	idSet := make(map[string]bool, len(assignment))
	ids := make([]string, 0, len(assignment))
	for _, specialistID := range assignment {
		if !idSet[specialistID] {
			idSet[specialistID] = true
			ids = append(ids, specialistID)
		}
	}
	sort.Strings(ids)

	var (
		intervals []models.TimeInterval
		err       error
	)
	if tx != nil {
		intervals, err = s.intervals.ListForUpdate(ctx, tx, request.Date, ids)
	} else {
		intervals, err = s.intervals.ListAvailableByDate(ctx, request.Date, ids)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	availability := make(map[string][]models.TimeInterval, len(ids))
	for _, id := range ids {
		availability[id] = nil
	}
	for _, interval := range intervals {
		availability[interval.SpecialistID] = append(availability[interval.SpecialistID], interval)
	}
	for _, id := range ids {
		if len(availability[id]) == 0 {
			s.logger.Info("specialist has no availability",
				zap.String("specialist_id", id), zap.String("date", request.Date))
		}
	}
	return availability, nil
}

func (s *SchedulerService) engineConfig() engineConfig {
	return engineConfig{
		SpecialistBuffer: s.cfg.SpecialistBuffer,
		TransitionBuffer: s.cfg.TransitionBuffer,
		CandidateStep:    s.cfg.CandidateStep,
		MaxCandidates:    s.cfg.MaxCandidates,
	}
}

func (s *SchedulerService) itemsToResponse(items []scheduleItem, specialists map[string]*models.Specialist) []dto.ScheduleItemResponse {
	result := make([]dto.ScheduleItemResponse, 0, len(items))
	for _, item := range items {
		name := ""
		if specialist, ok := specialists[item.SpecialistID]; ok {
			name = specialist.FullName
		}
		result = append(result, dto.ScheduleItemResponse{
			ServiceID:      item.ServiceID,
			SpecialistID:   item.SpecialistID,
			SpecialistName: name,
			StartTime:      item.Start,
			EndTime:        item.End,
			SequenceIndex:  item.SequenceIndex,
		})
	}
	return result
}

func (s *SchedulerService) searchCacheKey(req dto.SlotSearchRequest) string {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Sprintf("slots:%s:%s", req.ShopID, req.Date)
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("slots:%s:%s:%s", req.ShopID, req.Date, hex.EncodeToString(sum[:8]))
}
