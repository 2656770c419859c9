package planner

import (
	"math"

	"github.com/hznxin/tripmind/core"
)

// Verifier computes the four-principle trust assessment of a candidate:
// multi-source consistency, review cleanliness, spatial plausibility and
// temporal plausibility. Without live review feeds the cleaning principle
// runs on documented defaults; the contract is only that the struct is
// populated with values in range.
type Verifier struct {
	feasibility *Feasibility
}

// NewVerifier creates a verifier sharing the feasibility clock.
func NewVerifier(f *Feasibility) *Verifier {
	return &Verifier{feasibility: f}
}

const (
	defaultConsistency = 0.7
	defaultFakeRate    = 0.0
)

// Verify populates a Verification for the candidate given the session
// position. overall_trust is the equal-weighted mean of the four
// principle scores.
func (v *Verifier) Verify(poi core.POI, state core.SessionState, durationHours float64) core.Verification {
	consistency, weightedRating := consistencyAcrossSources(poi)
	fakeRate := defaultFakeRate

	distance := core.Haversine(state.Current, poi)
	spatial := spatialScore(distance)

	hour := v.feasibility.HourOfDay(state.ElapsedHours)
	crowd := predictCrowd(poi.Category, hour)

	timeSufficient := 1.0
	if durationHours-state.ElapsedHours < poi.AvgVisitHours+1.0 {
		timeSufficient = 0.0
	}
	temporal := (1.0 + (1.0 - crowd) + timeSufficient) / 3.0

	trust := (consistency + (1.0 - fakeRate) + spatial + temporal) / 4.0

	return core.Verification{
		Consistency:    consistency,
		WeightedRating: weightedRating,
		ValidReviews:   poi.ReviewCount,
		FakeRate:       fakeRate,
		SpatialScore:   core.Clamp(spatial, 0, 1),
		TemporalScore:  core.Clamp(temporal, 0, 1),
		PredictedCrowd: crowd,
		OverallTrust:   core.Clamp(trust, 0, 1),
	}
}

// consistencyAcrossSources measures rating agreement as 1 - sigma/mu over
// the POI's rating sources, and returns the weighted mean rating. With
// fewer than two sources the documented defaults apply.
func consistencyAcrossSources(poi core.POI) (consistency, weightedRating float64) {
	if len(poi.Sources) < 2 {
		return defaultConsistency, poi.Rating
	}

	var sum, weightSum, weighted float64
	for _, s := range poi.Sources {
		sum += s.Rating
		w := s.Weight
		if w <= 0 {
			w = 1.0 / float64(len(poi.Sources))
		}
		weighted += s.Rating * w
		weightSum += w
	}
	mu := sum / float64(len(poi.Sources))
	if weightSum > 0 {
		weightedRating = weighted / weightSum
	} else {
		weightedRating = mu
	}

	var variance float64
	for _, s := range poi.Sources {
		variance += (s.Rating - mu) * (s.Rating - mu)
	}
	sigma := math.Sqrt(variance / float64(len(poi.Sources)))

	if mu <= 0 {
		return 0, weightedRating
	}
	return core.Clamp(1.0-sigma/mu, 0, 1), weightedRating
}

// spatialScore bands the detour plausibility by straight-line distance.
func spatialScore(distanceKM float64) float64 {
	switch {
	case distanceKM < 1.0:
		return 0.95
	case distanceKM < 5.0:
		return 0.85
	case distanceKM < 15.0:
		return 0.75
	case distanceKM < 30.0:
		return 0.60
	default:
		return 0.50
	}
}

// predictCrowd is the category/time crowd table: attractions peak during
// the day, restaurants at meal hours, everything else sits at a moderate
// baseline.
func predictCrowd(cat core.Category, hour int) float64 {
	switch cat {
	case core.CategoryAttraction:
		if hour >= 10 && hour <= 16 {
			return 0.7
		}
		return 0.4
	case core.CategoryRestaurant:
		if (hour >= 11 && hour <= 13) || (hour >= 17 && hour <= 19) {
			return 0.8
		}
		return 0.3
	case core.CategoryShopping:
		if hour >= 14 && hour <= 20 {
			return 0.6
		}
		return 0.4
	default:
		return 0.4
	}
}
