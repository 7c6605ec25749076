package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/trimly/booking-api/internal/dto"
	"github.com/trimly/booking-api/internal/models"
	appErrors "github.com/trimly/booking-api/pkg/errors"
)

// Ordering strategies for sequencing the requested services.
const (
	OrderShortestFirst   = "shortest_first"
	OrderLongestFirst    = "longest_first"
	OrderHighestPriority = "highest_priority"
	OrderDependencies    = "dependencies"
)

// Optimization strategies for ranking candidate schedules.
const (
	OptimizeTotalDuration = "total_duration"
	OptimizeWaitTime      = "wait_time"
	OptimizeUtilization   = "utilization"
)

func parseOrderingStrategy(raw string) (string, error) {
	if raw == "" {
		return OrderDependencies, nil
	}
	switch raw {
	case OrderShortestFirst, OrderLongestFirst, OrderHighestPriority, OrderDependencies:
		return raw, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown ordering strategy %q", raw))
}

func parseOptimizationStrategy(raw string) (string, error) {
	if raw == "" {
		return OptimizeTotalDuration, nil
	}
	switch raw {
	case OptimizeTotalDuration, OptimizeWaitTime, OptimizeUtilization:
		return raw, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown optimization strategy %q", raw))
}

// serviceRequirement is the read-only per-request view of a catalog service.
type serviceRequirement struct {
	ServiceID    string
	Duration     time.Duration
	Priority     int
	Dependencies []string
}

// scheduleItem is one placed service. SequenceIndex is the position in the
// ordered service list, not the chronological position.
type scheduleItem struct {
	ServiceID     string
	SpecialistID  string
	Start         time.Time
	End           time.Time
	SequenceIndex int
}

// candidateSchedule pairs a feasible placement with its evaluated metrics.
type candidateSchedule struct {
	Start   time.Time
	Items   []scheduleItem
	Metrics dto.ScheduleMetrics
}

// engineConfig carries the placement tuning knobs.
type engineConfig struct {
	SpecialistBuffer time.Duration
	TransitionBuffer time.Duration
	CandidateStep    time.Duration
	MaxCandidates    int
}

// sequenceServices orders the requirements per the selected strategy. The
// result is deterministic for identical inputs.
//
// The dependencies strategy is a two-pass heuristic: services that appear as
// a dependency of another requested service come first in their original
// order, then the remainder sorted by descending duration. Chains deeper than
// two levels can end up misordered; that behaviour is intentional and relied
// upon by callers.
func sequenceServices(requirements []serviceRequirement, strategy string) []serviceRequirement {
	ordered := make([]serviceRequirement, len(requirements))
	copy(ordered, requirements)

	switch strategy {
	case OrderShortestFirst:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Duration < ordered[j].Duration
		})
	case OrderLongestFirst:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Duration > ordered[j].Duration
		})
	case OrderHighestPriority:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Priority > ordered[j].Priority
		})
	case OrderDependencies:
		depended := make(map[string]bool)
		for _, req := range requirements {
			for _, dep := range req.Dependencies {
				depended[dep] = true
			}
		}
		var first, rest []serviceRequirement
		for _, req := range requirements {
			if depended[req.ServiceID] {
				first = append(first, req)
			} else {
				rest = append(rest, req)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool {
			return rest[i].Duration > rest[j].Duration
		})
		ordered = append(first[:len(first):len(first)], rest...)
	}
	return ordered
}

// freeWindow is the in-attempt view of a TimeInterval. Placement consumes
// spans out of windows so later services cannot reuse the same minutes.
type freeWindow struct {
	ID    string
	Start time.Time
	End   time.Time
}

// availabilityWindows converts a specialist's intervals into mutable windows.
func availabilityWindows(intervals []models.TimeInterval) []freeWindow {
	windows := make([]freeWindow, 0, len(intervals))
	for _, interval := range intervals {
		windows = append(windows, freeWindow{ID: interval.ID, Start: interval.StartTime, End: interval.EndTime})
	}
	return windows
}

// candidateStarts enumerates candidate start times by walking every
// specialist's intervals in fixed steps, deduplicated and sorted. Candidates
// that cannot fit the summed service durations before closing are discarded;
// this prefilter ignores buffers and multi-specialist overlap, so surviving
// candidates can still fail placement.
func candidateStarts(availability map[string][]models.TimeInterval, step time.Duration, closing time.Time, totalDuration time.Duration, maxCandidates int) []time.Time {
	seen := make(map[int64]time.Time)
	for _, intervals := range availability {
		for _, interval := range intervals {
			for t := interval.StartTime; t.Before(interval.EndTime); t = t.Add(step) {
				if closing.Sub(t) < totalDuration {
					continue
				}
				seen[t.UnixNano()] = t
			}
		}
	}

	starts := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		starts = append(starts, t)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	if maxCandidates > 0 && len(starts) > maxCandidates {
		starts = starts[:maxCandidates]
	}
	return starts
}

// buildSchedule greedily places the ordered services from the candidate start
// time. It returns false as soon as any service cannot be covered by the
// specialist's remaining free windows; no partial schedule is reported.
func buildSchedule(start time.Time, ordered []serviceRequirement, assignment map[string]string, availability map[string][]models.TimeInterval, cfg engineConfig, allowParallel bool) ([]scheduleItem, bool) {
	windows := make(map[string][]freeWindow, len(availability))
	for specialistID, intervals := range availability {
		windows[specialistID] = availabilityWindows(intervals)
	}

	cursor := start
	lastEnd := make(map[string]time.Time, len(ordered))
	items := make([]scheduleItem, 0, len(ordered))

	for i, req := range ordered {
		specialistID := assignment[req.ServiceID]

		earliest := cursor
		if prevEnd, ok := lastEnd[specialistID]; ok {
			if buffered := prevEnd.Add(cfg.SpecialistBuffer); buffered.After(earliest) {
				earliest = buffered
			}
		}
		if !allowParallel && len(items) > 0 {
			prev := items[len(items)-1]
			floor := prev.End
			if prev.SpecialistID != specialistID {
				floor = floor.Add(cfg.TransitionBuffer)
			}
			if floor.After(earliest) {
				earliest = floor
			}
		}

		itemStart := earliest
		if cursor.After(itemStart) {
			itemStart = cursor
		}
		itemEnd := itemStart.Add(req.Duration)

		consumed, ok := consumeCoverage(windows[specialistID], itemStart, itemEnd)
		if !ok {
			return nil, false
		}
		windows[specialistID] = consumed

		items = append(items, scheduleItem{
			ServiceID:     req.ServiceID,
			SpecialistID:  specialistID,
			Start:         itemStart,
			End:           itemEnd,
			SequenceIndex: i,
		})
		lastEnd[specialistID] = itemEnd
		if !allowParallel {
			cursor = itemEnd
		}
	}

	return items, true
}

// consumeCoverage checks that [start, end) is fully covered either by a single
// free window or by a maximal run of time-adjacent windows, and subtracts the
// span from the covering windows. Returns the updated window list.
func consumeCoverage(windows []freeWindow, start, end time.Time) ([]freeWindow, bool) {
	if len(windows) == 0 {
		return windows, false
	}

	// Single window containing the whole span.
	for _, w := range windows {
		if !start.Before(w.Start) && !end.After(w.End) {
			return subtractSpan(windows, start, end), true
		}
	}

	// Maximal runs of adjacent windows: merge while next.Start <= current.End.
	runStart, runEnd := windows[0].Start, windows[0].End
	covered := false
	for _, w := range windows[1:] {
		if w.Start.After(runEnd) {
			if !start.Before(runStart) && !end.After(runEnd) {
				covered = true
				break
			}
			runStart, runEnd = w.Start, w.End
			continue
		}
		if w.End.After(runEnd) {
			runEnd = w.End
		}
	}
	if !covered && !start.Before(runStart) && !end.After(runEnd) {
		covered = true
	}
	if !covered {
		return windows, false
	}
	return subtractSpan(windows, start, end), true
}

// subtractSpan removes [start, end) from every overlapping window, keeping
// the list sorted by start.
func subtractSpan(windows []freeWindow, start, end time.Time) []freeWindow {
	result := make([]freeWindow, 0, len(windows)+1)
	for _, w := range windows {
		if !w.Start.Before(end) || !w.End.After(start) {
			result = append(result, w)
			continue
		}
		if w.Start.Before(start) {
			result = append(result, freeWindow{ID: w.ID, Start: w.Start, End: start})
		}
		if w.End.After(end) {
			result = append(result, freeWindow{ID: w.ID, Start: end, End: w.End})
		}
	}
	return result
}

// evaluateSchedule computes the quality metrics of a placed schedule.
//
// Wait time sums the idle gaps between consecutively sequenced services,
// net of the mandatory same-specialist buffer: a service starting exactly at
// the earliest permitted moment contributes zero wait.
func evaluateSchedule(items []scheduleItem, specialistBuffer time.Duration) dto.ScheduleMetrics {
	if len(items) == 0 {
		return dto.ScheduleMetrics{}
	}

	earliest, latest := items[0].Start, items[0].End
	for _, item := range items[1:] {
		if item.Start.Before(earliest) {
			earliest = item.Start
		}
		if item.End.After(latest) {
			latest = item.End
		}
	}
	total := latest.Sub(earliest)

	sequenced := make([]scheduleItem, len(items))
	copy(sequenced, items)
	sort.SliceStable(sequenced, func(i, j int) bool {
		return sequenced[i].SequenceIndex < sequenced[j].SequenceIndex
	})

	var wait time.Duration
	for i := 1; i < len(sequenced); i++ {
		prev, next := sequenced[i-1], sequenced[i]
		gap := next.Start.Sub(prev.End)
		if prev.SpecialistID == next.SpecialistID {
			gap -= specialistBuffer
		}
		if gap > 0 {
			wait += gap
		}
	}

	active := make(map[string]time.Duration)
	for _, item := range items {
		active[item.SpecialistID] += item.End.Sub(item.Start)
	}
	var utilization float64
	if total > 0 {
		for _, minutes := range active {
			utilization += minutes.Minutes() / total.Minutes() * 100
		}
		utilization /= float64(len(active))
	}

	return dto.ScheduleMetrics{
		TotalDurationMinutes:  int(total.Minutes()),
		WaitTimeMinutes:       int(wait.Minutes()),
		SpecialistUtilization: utilization,
	}
}

// rankCandidates orders the feasible candidates by the objective and keeps at
// most maxResults of them.
func rankCandidates(candidates []candidateSchedule, objective string, maxResults int) []candidateSchedule {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Metrics, candidates[j].Metrics
		switch objective {
		case OptimizeWaitTime:
			return a.WaitTimeMinutes < b.WaitTimeMinutes
		case OptimizeUtilization:
			return a.SpecialistUtilization > b.SpecialistUtilization
		default:
			return a.TotalDurationMinutes < b.TotalDurationMinutes
		}
	})
	if maxResults > 0 && len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	return candidates
}
