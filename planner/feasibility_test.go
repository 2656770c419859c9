package planner

import (
	"testing"

	"github.com/hznxin/tripmind/core"
)

func testPipelineConfig() core.PipelineConfig {
	return core.DefaultConfig().Pipeline
}

func testState(current core.POI, elapsed, budget float64) core.SessionState {
	return core.SessionState{
		Current:         current,
		ElapsedHours:    elapsed,
		RemainingBudget: budget,
		VisitedIDs:      make(map[string]bool),
		RegionVisits:    make(map[string]int),
	}
}

var station = core.POI{
	ID: "poi-station", Name: "苏州站", Lat: 31.3012, Lon: 120.5242,
	Category: core.CategoryTransportHub, City: "苏州",
}

func TestFeasibilityDistance(t *testing.T) {
	f := NewFeasibility(testPipelineConfig())
	state := testState(station, 0, 5000)

	near := core.POI{ID: "near", Lat: 31.32, Lon: 120.62, AvgVisitHours: 2}
	far := core.POI{ID: "far", Lat: 32.5, Lon: 121.8, AvgVisitHours: 2} // well past 50km

	if got := f.Check(near, state, 72); got != dropNone {
		t.Errorf("near candidate dropped: %v", got)
	}
	if got := f.Check(far, state, 72); got != dropTooFar {
		t.Errorf("far candidate = %v, want dropTooFar", got)
	}
}

func TestFeasibilityVisited(t *testing.T) {
	f := NewFeasibility(testPipelineConfig())
	state := testState(station, 0, 5000)
	state.VisitedIDs["seen"] = true

	poi := core.POI{ID: "seen", Lat: 31.31, Lon: 120.53, AvgVisitHours: 1}
	if got := f.Check(poi, state, 72); got != dropVisited {
		t.Errorf("visited candidate = %v, want dropVisited", got)
	}
}

func TestFeasibilityInsufficientTime(t *testing.T) {
	f := NewFeasibility(testPipelineConfig())
	state := testState(station, 0, 5000)

	poi := core.POI{ID: "p", Lat: 31.31, Lon: 120.53, AvgVisitHours: 2}
	// remaining 0.5h < 2 + 1
	if got := f.Check(poi, state, 0.5); got != dropNoTime {
		t.Errorf("short session = %v, want dropNoTime", got)
	}
}

func TestFeasibilityTemporalWindows(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.TemporalFilter = true
	f := NewFeasibility(cfg)

	tests := []struct {
		name    string
		elapsed float64 // start hour is 9
		cat     core.Category
		want    dropReason
	}{
		{"attraction mid-day passes", 2, core.CategoryAttraction, dropNone},       // 11:00
		{"attraction at 2am dropped", 17, core.CategoryAttraction, dropWrongHour}, // 02:00
		{"hotel at 2am passes", 17, core.CategoryHotel, dropNone},                 // 02:00
		{"shopping at 7am dropped", 22, core.CategoryShopping, dropWrongHour},     // 07:00
		{"restaurant at 7am passes", 22, core.CategoryRestaurant, dropNone},       // 07:00
		{"attraction at 22 dropped", 13, core.CategoryAttraction, dropWrongHour},  // 22:00
		{"entertainment at 22 passes", 13, core.CategoryEntertainment, dropNone},  // 22:00
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testState(station, tt.elapsed, 5000)
			poi := core.POI{ID: "p", Lat: 31.31, Lon: 120.53, Category: tt.cat, AvgVisitHours: 1}
			if got := f.Check(poi, state, 100); got != tt.want {
				t.Errorf("Check() = %v, want %v (hour %d)", got, tt.want, f.HourOfDay(tt.elapsed))
			}
		})
	}
}

func TestFeasibilityFilterReason(t *testing.T) {
	f := NewFeasibility(testPipelineConfig())
	state := testState(station, 0, 5000)

	pool := []core.POI{
		{ID: "a", Lat: 31.31, Lon: 120.53, AvgVisitHours: 2},
		{ID: "b", Lat: 31.32, Lon: 120.55, AvgVisitHours: 3},
	}

	// Everything feasible.
	survivors, reason := f.Filter(pool, state, 72)
	if len(survivors) != 2 || reason != core.ReasonNone {
		t.Fatalf("Filter() = %d survivors, reason %q", len(survivors), reason)
	}

	// Only half an hour left: the empty result must carry the time code.
	survivors, reason = f.Filter(pool, state, 0.5)
	if len(survivors) != 0 {
		t.Fatalf("Filter() with 0.5h = %d survivors, want 0", len(survivors))
	}
	if reason != core.ReasonInsufficientTime {
		t.Errorf("Filter() reason = %q, want %q", reason, core.ReasonInsufficientTime)
	}
}
