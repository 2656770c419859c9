package planner

import (
	"github.com/hznxin/tripmind/core"
)

// dropReason tags why a candidate was filtered out, so an empty result
// can carry a meaningful reason code.
type dropReason int

const (
	dropNone dropReason = iota
	dropVisited
	dropTooFar
	dropWrongHour
	dropNoTime
)

// Feasibility drops candidates violating hard spatial, temporal and
// contextual constraints.
type Feasibility struct {
	cfg core.PipelineConfig
}

// NewFeasibility creates the feasibility filter.
func NewFeasibility(cfg core.PipelineConfig) *Feasibility {
	return &Feasibility{cfg: cfg}
}

// HourOfDay converts elapsed session hours to a clock hour using the
// configured start hour.
func (f *Feasibility) HourOfDay(elapsed float64) int {
	return (f.cfg.StartHour + int(elapsed)) % 24
}

// Check returns dropNone when the candidate passes every hard filter,
// or the first reason it fails.
func (f *Feasibility) Check(poi core.POI, state core.SessionState, durationHours float64) dropReason {
	if state.Visited(poi.ID) {
		return dropVisited
	}

	if core.Haversine(state.Current, poi) > f.cfg.MaxDistanceKM {
		return dropTooFar
	}

	if f.cfg.TemporalFilter && !categoryOpenAt(poi.Category, f.HourOfDay(state.ElapsedHours)) {
		return dropWrongHour
	}

	// One hour of headroom stands in for the not-yet-known travel time.
	remaining := durationHours - state.ElapsedHours
	if remaining < poi.AvgVisitHours+1.0 {
		return dropNoTime
	}

	return dropNone
}

// Filter applies Check over the pool and returns the survivors plus the
// reason code describing why the result is empty (ReasonNone otherwise).
func (f *Feasibility) Filter(pool []core.POI, state core.SessionState, durationHours float64) ([]core.POI, string) {
	survivors := make([]core.POI, 0, len(pool))
	drops := make(map[dropReason]int)

	for _, poi := range pool {
		reason := f.Check(poi, state, durationHours)
		if reason == dropNone {
			survivors = append(survivors, poi)
			continue
		}
		drops[reason]++
	}

	if len(survivors) > 0 {
		return survivors, core.ReasonNone
	}
	if drops[dropNoTime] > 0 && drops[dropNoTime] >= drops[dropTooFar] && drops[dropNoTime] >= drops[dropWrongHour] {
		return survivors, core.ReasonInsufficientTime
	}
	return survivors, core.ReasonExhaustedPool
}

// categoryOpenAt encodes the time-of-day category windows:
// 0-6 hotel only; 6-9 restaurant/attraction/hotel; 21-24
// restaurant/hotel/entertainment; everything else all day.
func categoryOpenAt(cat core.Category, hour int) bool {
	switch {
	case hour < 6:
		return cat == core.CategoryHotel
	case hour < 9:
		return cat == core.CategoryRestaurant || cat == core.CategoryAttraction || cat == core.CategoryHotel
	case hour >= 21:
		return cat == core.CategoryRestaurant || cat == core.CategoryHotel || cat == core.CategoryEntertainment
	default:
		return true
	}
}
