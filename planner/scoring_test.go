package planner

import (
	"math"
	"testing"

	"github.com/hznxin/tripmind/core"
)

func testProfile() core.UserProfile {
	return core.UserProfile{
		Purpose:    map[string]float64{"culture": 0.8, "leisure": 0.7},
		Pace:       map[string]float64{"slow": 0.9, "medium": 0.1, "fast": 0.0},
		Intensity:  map[string]float64{"low": 0.8, "medium": 0.2},
		BudgetTier: "medium",
		AvoidCrowd: 0.5,
	}
}

func TestBaseScoreInRange(t *testing.T) {
	s := NewScorer(core.DefaultConfig().Scoring)
	state := testState(station, 0, 5000)

	poi := core.POI{ID: "p", Name: "拙政园", Category: core.CategoryAttraction, AvgVisitHours: 2.5}
	edges := []core.TransportEdge{{Mode: core.ModeTaxi, DistanceKM: 10, TimeHours: 0.4, Cost: 38}}
	verification := core.Verification{OverallTrust: 0.7, PredictedCrowd: 0.4, WeightedRating: 4.7}
	quality := core.QualityScore{Overall: 0.68}

	score := s.BaseScore(poi, edges, verification, quality, testProfile(), state)
	if score < 0 || score > 1 {
		t.Fatalf("BaseScore = %v out of [0,1]", score)
	}
}

func TestBaseScoreNoveltyComponent(t *testing.T) {
	s := NewScorer(core.DefaultConfig().Scoring)
	state := testState(station, 0, 5000)

	poi := core.POI{ID: "p", Category: core.CategoryAttraction, AvgVisitHours: 2}
	edges := []core.TransportEdge{{Mode: core.ModeTaxi, TimeHours: 0.4}}
	verification := core.Verification{OverallTrust: 0.7, PredictedCrowd: 0.4}
	quality := core.QualityScore{Overall: 0.6}

	fresh := s.BaseScore(poi, edges, verification, quality, testProfile(), state)

	state.VisitedIDs["p"] = true
	visited := s.BaseScore(poi, edges, verification, quality, testProfile(), state)

	// Only the novelty component changes: weight 0.10, value 1 -> 0.
	if math.Abs((fresh-visited)-0.10) > 1e-9 {
		t.Errorf("novelty delta = %v, want 0.10", fresh-visited)
	}
}

func TestBaseScoreEfficiencyDecays(t *testing.T) {
	s := NewScorer(core.DefaultConfig().Scoring)
	state := testState(station, 0, 5000)

	poi := core.POI{ID: "p", Category: core.CategoryAttraction, AvgVisitHours: 2}
	verification := core.Verification{OverallTrust: 0.7, PredictedCrowd: 0.4}
	quality := core.QualityScore{Overall: 0.6}

	near := s.BaseScore(poi, []core.TransportEdge{{Mode: core.ModeWalk, TimeHours: 0.1}},
		verification, quality, testProfile(), state)
	far := s.BaseScore(poi, []core.TransportEdge{{Mode: core.ModeTaxi, TimeHours: 1.5}},
		verification, quality, testProfile(), state)

	if near <= far {
		t.Errorf("near score %v not above far score %v", near, far)
	}
}

func TestBaseScoreUsesBestEdge(t *testing.T) {
	// Efficiency must come from the fastest edge, not the first one.
	slowFirst := []core.TransportEdge{
		{Mode: core.ModeBus, TimeHours: 1.2},
		{Mode: core.ModeTaxi, TimeHours: 0.3},
	}
	if got := efficiencyScore(slowFirst); math.Abs(got-math.Exp(-0.3/2)) > 1e-9 {
		t.Errorf("efficiencyScore = %v, want exp(-0.15)", got)
	}
}

func TestMatchScoreRestaurantAveragesFood(t *testing.T) {
	s := NewScorer(core.DefaultConfig().Scoring)
	profile := testProfile()

	attraction := core.POI{Category: core.CategoryAttraction, AvgVisitHours: 2.5}
	restaurant := core.POI{Category: core.CategoryRestaurant, AvgVisitHours: 1.2}

	// Attraction: (purpose 0.8 + intensity(medium 0.2) + pace(slow 0.9)) / 3
	wantAttraction := (0.8 + 0.2 + 0.9) / 3
	if got := s.MatchScore(attraction, profile); math.Abs(got-wantAttraction) > 1e-9 {
		t.Errorf("attraction match = %v, want %v", got, wantAttraction)
	}

	// Restaurant additionally averages the food stub 0.7:
	// purpose max(leisure 0.7, food 0) + intensity(low 0.8) + pace(slow 0.9) + 0.7
	wantRestaurant := (0.7 + 0.8 + 0.9 + 0.7) / 4
	if got := s.MatchScore(restaurant, profile); math.Abs(got-wantRestaurant) > 1e-9 {
		t.Errorf("restaurant match = %v, want %v", got, wantRestaurant)
	}
}

func TestPurposeMatchTakesMax(t *testing.T) {
	purpose := map[string]float64{"culture": 0.9, "leisure": 0.3, "adventure": 0.5}
	if got := purposeMatch(core.CategoryAttraction, purpose); got != 0.9 {
		t.Errorf("purposeMatch = %v, want max 0.9", got)
	}
	if got := purposeMatch(core.CategoryHotel, purpose); got != 0.0 {
		t.Errorf("hotel purposeMatch = %v, want 0 (no rest weight)", got)
	}
}
