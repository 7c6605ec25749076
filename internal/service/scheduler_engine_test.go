package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimly/booking-api/internal/dto"
	"github.com/trimly/booking-api/internal/models"
)

func engineTestConfig() engineConfig {
	return engineConfig{
		SpecialistBuffer: 10 * time.Minute,
		TransitionBuffer: 15 * time.Minute,
		CandidateStep:    15 * time.Minute,
		MaxCandidates:    500,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 9, 1, hour, minute, 0, 0, time.UTC)
}

func interval(id, specialistID string, start, end time.Time) models.TimeInterval {
	return models.TimeInterval{
		ID:           id,
		SpecialistID: specialistID,
		Date:         "2026-09-01",
		StartTime:    start,
		EndTime:      end,
		Available:    true,
	}
}

func metricsOf(total, wait int, utilization float64) dto.ScheduleMetrics {
	return dto.ScheduleMetrics{
		TotalDurationMinutes:  total,
		WaitTimeMinutes:       wait,
		SpecialistUtilization: utilization,
	}
}

func TestParseOrderingStrategy(t *testing.T) {
	strategy, err := parseOrderingStrategy("")
	require.NoError(t, err)
	assert.Equal(t, OrderDependencies, strategy)

	strategy, err = parseOrderingStrategy(OrderShortestFirst)
	require.NoError(t, err)
	assert.Equal(t, OrderShortestFirst, strategy)

	_, err = parseOrderingStrategy("random")
	require.Error(t, err)
}

func TestParseOptimizationStrategy(t *testing.T) {
	strategy, err := parseOptimizationStrategy("")
	require.NoError(t, err)
	assert.Equal(t, OptimizeTotalDuration, strategy)

	_, err = parseOptimizationStrategy("fastest")
	require.Error(t, err)
}

func TestSequenceServices(t *testing.T) {
	requirements := []serviceRequirement{
		{ServiceID: "color", Duration: 90 * time.Minute, Priority: 1},
		{ServiceID: "cut", Duration: 30 * time.Minute, Priority: 3, Dependencies: []string{"wash"}},
		{ServiceID: "wash", Duration: 15 * time.Minute, Priority: 2},
	}

	ids := func(ordered []serviceRequirement) []string {
		result := make([]string, 0, len(ordered))
		for _, req := range ordered {
			result = append(result, req.ServiceID)
		}
		return result
	}

	assert.Equal(t, []string{"wash", "cut", "color"}, ids(sequenceServices(requirements, OrderShortestFirst)))
	assert.Equal(t, []string{"color", "cut", "wash"}, ids(sequenceServices(requirements, OrderLongestFirst)))
	assert.Equal(t, []string{"cut", "wash", "color"}, ids(sequenceServices(requirements, OrderHighestPriority)))
	// Depended-upon services first in request order, remainder by descending duration.
	assert.Equal(t, []string{"wash", "color", "cut"}, ids(sequenceServices(requirements, OrderDependencies)))

	// Input order must survive untouched.
	assert.Equal(t, "color", requirements[0].ServiceID)
}

func TestSequenceServicesStableOnTies(t *testing.T) {
	requirements := []serviceRequirement{
		{ServiceID: "a", Duration: 30 * time.Minute},
		{ServiceID: "b", Duration: 30 * time.Minute},
		{ServiceID: "c", Duration: 30 * time.Minute},
	}
	ordered := sequenceServices(requirements, OrderShortestFirst)
	assert.Equal(t, "a", ordered[0].ServiceID)
	assert.Equal(t, "b", ordered[1].ServiceID)
	assert.Equal(t, "c", ordered[2].ServiceID)
}

func TestCandidateStarts(t *testing.T) {
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(10, 0))},
		"sp-2": {interval("iv-2", "sp-2", at(9, 30), at(10, 30))},
	}

	starts := candidateStarts(availability, 15*time.Minute, at(18, 0), 30*time.Minute, 500)

	// 09:30 appears in both intervals and must be emitted once.
	assert.Equal(t, []time.Time{
		at(9, 0), at(9, 15), at(9, 30), at(9, 45),
		at(10, 0), at(10, 15),
	}, starts)
}

func TestCandidateStartsClosingPrefilter(t *testing.T) {
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(17, 0), at(18, 0))},
	}

	starts := candidateStarts(availability, 15*time.Minute, at(18, 0), 45*time.Minute, 500)

	// Anything after 17:15 cannot fit 45 minutes before closing.
	assert.Equal(t, []time.Time{at(17, 0), at(17, 15)}, starts)
}

func TestCandidateStartsCap(t *testing.T) {
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(17, 0))},
	}

	starts := candidateStarts(availability, 15*time.Minute, at(18, 0), 15*time.Minute, 4)
	require.Len(t, starts, 4)
	assert.Equal(t, at(9, 0), starts[0])
	assert.Equal(t, at(9, 45), starts[3])
}

func TestBuildScheduleSameSpecialistSequential(t *testing.T) {
	// One long interval serves both services back to back with the
	// mandatory specialist buffer between them.
	assignment := map[string]string{"cut": "sp-1", "beard": "sp-1"}
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(10, 30))},
	}
	ordered := []serviceRequirement{
		{ServiceID: "cut", Duration: 30 * time.Minute},
		{ServiceID: "beard", Duration: 20 * time.Minute},
	}

	items, ok := buildSchedule(at(9, 0), ordered, assignment, availability, engineTestConfig(), false)
	require.True(t, ok)
	require.Len(t, items, 2)

	assert.Equal(t, at(9, 0), items[0].Start)
	assert.Equal(t, at(9, 30), items[0].End)
	assert.Equal(t, at(9, 40), items[1].Start)
	assert.Equal(t, at(10, 0), items[1].End)

	metrics := evaluateSchedule(items, 10*time.Minute)
	assert.Equal(t, 60, metrics.TotalDurationMinutes)
	assert.Equal(t, 0, metrics.WaitTimeMinutes)
}

func TestBuildScheduleSequentialFillsWindow(t *testing.T) {
	// 30 and 45 minute services with one specialist free 09:00-10:30 land at
	// 09:00-09:30 and 09:40-10:25 with zero customer wait.
	assignment := map[string]string{"cut": "sp-1", "color": "sp-1"}
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(10, 30))},
	}
	ordered := []serviceRequirement{
		{ServiceID: "cut", Duration: 30 * time.Minute},
		{ServiceID: "color", Duration: 45 * time.Minute},
	}

	items, ok := buildSchedule(at(9, 0), ordered, assignment, availability, engineTestConfig(), false)
	require.True(t, ok)
	require.Len(t, items, 2)

	assert.Equal(t, at(9, 0), items[0].Start)
	assert.Equal(t, at(9, 30), items[0].End)
	assert.Equal(t, at(9, 40), items[1].Start)
	assert.Equal(t, at(10, 25), items[1].End)

	metrics := evaluateSchedule(items, 10*time.Minute)
	assert.Equal(t, 85, metrics.TotalDurationMinutes)
	assert.Equal(t, 0, metrics.WaitTimeMinutes)
}

func TestBuildScheduleTransitionBufferOnHandoff(t *testing.T) {
	assignment := map[string]string{"cut": "sp-1", "color": "sp-2"}
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(10, 0))},
		"sp-2": {interval("iv-2", "sp-2", at(9, 0), at(12, 0))},
	}
	ordered := []serviceRequirement{
		{ServiceID: "cut", Duration: 30 * time.Minute},
		{ServiceID: "color", Duration: 60 * time.Minute},
	}

	items, ok := buildSchedule(at(9, 0), ordered, assignment, availability, engineTestConfig(), false)
	require.True(t, ok)

	// Handoff to a different specialist adds the transition buffer.
	assert.Equal(t, at(9, 30), items[0].End)
	assert.Equal(t, at(9, 45), items[1].Start)
	assert.Equal(t, at(10, 45), items[1].End)
}

func TestBuildScheduleParallel(t *testing.T) {
	assignment := map[string]string{"cut": "sp-1", "manicure": "sp-2"}
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(10, 0))},
		"sp-2": {interval("iv-2", "sp-2", at(9, 0), at(10, 0))},
	}
	ordered := []serviceRequirement{
		{ServiceID: "cut", Duration: 45 * time.Minute},
		{ServiceID: "manicure", Duration: 30 * time.Minute},
	}

	items, ok := buildSchedule(at(9, 0), ordered, assignment, availability, engineTestConfig(), true)
	require.True(t, ok)

	// Different specialists run concurrently from the candidate start.
	assert.Equal(t, at(9, 0), items[0].Start)
	assert.Equal(t, at(9, 0), items[1].Start)

	metrics := evaluateSchedule(items, 10*time.Minute)
	assert.Equal(t, 45, metrics.TotalDurationMinutes)
}

func TestBuildScheduleParallelSameSpecialistStillBuffers(t *testing.T) {
	assignment := map[string]string{"cut": "sp-1", "beard": "sp-1"}
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(11, 0))},
	}
	ordered := []serviceRequirement{
		{ServiceID: "cut", Duration: 30 * time.Minute},
		{ServiceID: "beard", Duration: 20 * time.Minute},
	}

	items, ok := buildSchedule(at(9, 0), ordered, assignment, availability, engineTestConfig(), true)
	require.True(t, ok)

	// A specialist can never serve two services at once, parallel or not.
	assert.Equal(t, at(9, 40), items[1].Start)
}

func TestBuildScheduleFailsWithoutPartialResult(t *testing.T) {
	assignment := map[string]string{"cut": "sp-1", "color": "sp-1"}
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(9, 45))},
	}
	ordered := []serviceRequirement{
		{ServiceID: "cut", Duration: 30 * time.Minute},
		{ServiceID: "color", Duration: 60 * time.Minute},
	}

	items, ok := buildSchedule(at(9, 0), ordered, assignment, availability, engineTestConfig(), false)
	assert.False(t, ok)
	assert.Nil(t, items)
}

func TestBuildScheduleConsumesWindows(t *testing.T) {
	// Two services cannot reuse the same minutes of one interval even when
	// nothing else forces them apart.
	assignment := map[string]string{"a": "sp-1", "b": "sp-1"}
	availability := map[string][]models.TimeInterval{
		"sp-1": {interval("iv-1", "sp-1", at(9, 0), at(9, 30))},
	}
	ordered := []serviceRequirement{
		{ServiceID: "a", Duration: 30 * time.Minute},
		{ServiceID: "b", Duration: 30 * time.Minute},
	}

	_, ok := buildSchedule(at(9, 0), ordered, assignment, availability, engineTestConfig(), false)
	assert.False(t, ok)
}

func TestConsumeCoverageAdjacentWindows(t *testing.T) {
	windows := []freeWindow{
		{ID: "iv-1", Start: at(9, 0), End: at(9, 30)},
		{ID: "iv-2", Start: at(9, 30), End: at(10, 0)},
	}

	updated, ok := consumeCoverage(windows, at(9, 15), at(9, 45))
	require.True(t, ok)
	require.Len(t, updated, 2)
	assert.Equal(t, at(9, 0), updated[0].Start)
	assert.Equal(t, at(9, 15), updated[0].End)
	assert.Equal(t, at(9, 45), updated[1].Start)
	assert.Equal(t, at(10, 0), updated[1].End)
}

func TestConsumeCoverageRejectsGaps(t *testing.T) {
	windows := []freeWindow{
		{ID: "iv-1", Start: at(9, 0), End: at(9, 30)},
		{ID: "iv-2", Start: at(9, 45), End: at(10, 15)},
	}

	_, ok := consumeCoverage(windows, at(9, 15), at(10, 0))
	assert.False(t, ok)
}

func TestSubtractSpanSplitsWindow(t *testing.T) {
	windows := []freeWindow{{ID: "iv-1", Start: at(9, 0), End: at(11, 0)}}

	result := subtractSpan(windows, at(9, 30), at(10, 0))
	require.Len(t, result, 2)
	assert.Equal(t, at(9, 0), result[0].Start)
	assert.Equal(t, at(9, 30), result[0].End)
	assert.Equal(t, at(10, 0), result[1].Start)
	assert.Equal(t, at(11, 0), result[1].End)
}

func TestEvaluateScheduleWaitAndUtilization(t *testing.T) {
	items := []scheduleItem{
		{ServiceID: "cut", SpecialistID: "sp-1", Start: at(9, 0), End: at(9, 30), SequenceIndex: 0},
		{ServiceID: "color", SpecialistID: "sp-2", Start: at(10, 0), End: at(11, 0), SequenceIndex: 1},
	}

	metrics := evaluateSchedule(items, 10*time.Minute)
	assert.Equal(t, 120, metrics.TotalDurationMinutes)
	// 30 minute gap on a specialist handoff counts in full.
	assert.Equal(t, 30, metrics.WaitTimeMinutes)
	// sp-1 is active 30/120, sp-2 60/120; averaged across specialists.
	assert.InDelta(t, 37.5, metrics.SpecialistUtilization, 0.01)
}

func TestEvaluateScheduleNetsOutSpecialistBuffer(t *testing.T) {
	items := []scheduleItem{
		{ServiceID: "cut", SpecialistID: "sp-1", Start: at(9, 0), End: at(9, 30), SequenceIndex: 0},
		{ServiceID: "beard", SpecialistID: "sp-1", Start: at(9, 40), End: at(10, 0), SequenceIndex: 1},
	}

	metrics := evaluateSchedule(items, 10*time.Minute)
	assert.Equal(t, 0, metrics.WaitTimeMinutes)
}

func TestRankCandidates(t *testing.T) {
	candidates := []candidateSchedule{
		{Start: at(9, 0), Metrics: metricsOf(90, 20, 50)},
		{Start: at(10, 0), Metrics: metricsOf(60, 30, 80)},
		{Start: at(11, 0), Metrics: metricsOf(75, 5, 60)},
	}

	byDuration := rankCandidates(append([]candidateSchedule(nil), candidates...), OptimizeTotalDuration, 5)
	assert.Equal(t, at(10, 0), byDuration[0].Start)

	byWait := rankCandidates(append([]candidateSchedule(nil), candidates...), OptimizeWaitTime, 5)
	assert.Equal(t, at(11, 0), byWait[0].Start)

	byUtilization := rankCandidates(append([]candidateSchedule(nil), candidates...), OptimizeUtilization, 5)
	assert.Equal(t, at(10, 0), byUtilization[0].Start)

	truncated := rankCandidates(append([]candidateSchedule(nil), candidates...), OptimizeTotalDuration, 2)
	assert.Len(t, truncated, 2)
}

func TestRankCandidatesStableOnTies(t *testing.T) {
	candidates := []candidateSchedule{
		{Start: at(9, 0), Metrics: metricsOf(60, 0, 100)},
		{Start: at(9, 15), Metrics: metricsOf(60, 0, 100)},
	}

	ranked := rankCandidates(candidates, OptimizeTotalDuration, 5)
	assert.Equal(t, at(9, 0), ranked[0].Start)
	assert.Equal(t, at(9, 15), ranked[1].Start)
}
