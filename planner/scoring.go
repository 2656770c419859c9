package planner

import (
	"math"

	"github.com/hznxin/tripmind/core"
)

// Scorer computes the base spatio-temporal score: a weighted sum over
// preference match, trust, quality, efficiency, novelty and crowd
// avoidance, clamped to [0,1].
type Scorer struct {
	weights core.ScoringConfig
}

// NewScorer creates a scorer with the configured weights.
func NewScorer(weights core.ScoringConfig) *Scorer {
	return &Scorer{weights: weights}
}

// foodMatchDefault stands in for cuisine matching until POIs carry
// cuisine tags.
const foodMatchDefault = 0.7

// categoryPurposes maps a POI category to the purpose tags it can serve.
var categoryPurposes = map[core.Category][]string{
	core.CategoryAttraction:    {"culture", "leisure", "adventure", "photography"},
	core.CategoryRestaurant:    {"leisure", "food"},
	core.CategoryHotel:         {"rest"},
	core.CategoryShopping:      {"shopping", "leisure"},
	core.CategoryEntertainment: {"leisure", "adventure"},
}

// BaseScore computes the weighted sum over all six components.
func (s *Scorer) BaseScore(
	poi core.POI,
	edges []core.TransportEdge,
	verification core.Verification,
	quality core.QualityScore,
	profile core.UserProfile,
	state core.SessionState,
) float64 {
	match := s.MatchScore(poi, profile)
	trust := verification.OverallTrust
	qual := quality.Overall
	efficiency := efficiencyScore(edges)
	novelty := noveltyScore(poi, state)
	crowd := 1.0 - verification.PredictedCrowd

	score := s.weights.Match*match +
		s.weights.Trust*trust +
		s.weights.Quality*qual +
		s.weights.Efficiency*efficiency +
		s.weights.Novelty*novelty +
		s.weights.Crowd*crowd

	return core.Clamp(score, 0, 1)
}

// MatchScore measures how well the candidate fits the user profile: the
// best purpose match averaged with pace and intensity matches, plus a
// food term for restaurants.
func (s *Scorer) MatchScore(poi core.POI, profile core.UserProfile) float64 {
	scores := []float64{
		purposeMatch(poi.Category, profile.Purpose),
		intensityMatch(poi.AvgVisitHours, profile.Intensity),
		paceMatch(poi.Category, profile.Pace),
	}

	if poi.Category == core.CategoryRestaurant {
		scores = append(scores, foodMatchDefault)
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// purposeMatch takes the max of the candidate's purpose mapping against
// the profile weights.
func purposeMatch(cat core.Category, purpose map[string]float64) float64 {
	tags, ok := categoryPurposes[cat]
	if !ok {
		tags = []string{"leisure"}
	}

	best := 0.0
	for _, tag := range tags {
		if w := purpose[tag]; w > best {
			best = w
		}
	}
	return best
}

// intensityMatch buckets the visit duration into an intensity level and
// reads the profile's weight for it.
func intensityMatch(visitHours float64, intensity map[string]float64) float64 {
	var level string
	switch {
	case visitHours < 1.0:
		level = "very_low"
	case visitHours < 2.0:
		level = "low"
	case visitHours < 3.0:
		level = "medium"
	case visitHours < 4.0:
		level = "high"
	default:
		level = "very_high"
	}

	if w, ok := intensity[level]; ok {
		return w
	}
	return 0.5
}

// paceMatch reads the profile's weight for the candidate's implied pace:
// attractions and restaurants are slow, entertainment fast.
func paceMatch(cat core.Category, pace map[string]float64) float64 {
	var level string
	switch cat {
	case core.CategoryAttraction, core.CategoryRestaurant:
		level = "slow"
	case core.CategoryEntertainment:
		level = "fast"
	default:
		level = "medium"
	}

	if w, ok := pace[level]; ok {
		return w
	}
	return 0.5
}

// efficiencyScore decays with the best (shortest) travel time.
func efficiencyScore(edges []core.TransportEdge) float64 {
	if len(edges) == 0 {
		return 0.5
	}
	best := edges[0].TimeHours
	for _, e := range edges[1:] {
		if e.TimeHours < best {
			best = e.TimeHours
		}
	}
	return math.Exp(-best / 2.0)
}

// noveltyScore is 1 for unvisited POIs, 0 otherwise.
func noveltyScore(poi core.POI, state core.SessionState) float64 {
	if state.Visited(poi.ID) {
		return 0.0
	}
	return 1.0
}
