package planner

import (
	"math"
	"strings"

	"github.com/hznxin/tripmind/core"
)

// QualityFilter rejects candidates that are not worth recommending:
// too few reviews, too low a rating, or nothing to actually do there.
// Toggleable by config; when off, all candidates pass.
type QualityFilter struct {
	cfg core.PipelineConfig
}

// NewQualityFilter creates the quality filter.
func NewQualityFilter(cfg core.PipelineConfig) *QualityFilter {
	return &QualityFilter{cfg: cfg}
}

// Quality axis weights.
const (
	wPlayability = 0.30
	wViewability = 0.25
	wPopularity  = 0.25
	wHistory     = 0.20
)

// historyNameTokens are culturally-loaded tokens that bump the history
// axis when present in a POI name.
var historyNameTokens = []string{
	"园", "寺", "庙", "塔", "古", "故居", "博物馆", "纪念馆",
	"遗址", "文化", "历史", "传统", "老街", "古镇",
}

var historyAddressTokens = []string{"老城", "古城", "历史街区"}

// Evaluate derives the quality axes from the POI's category, visit
// duration, review volume and name-token heuristics.
func (q *QualityFilter) Evaluate(poi core.POI, verification core.Verification) core.QualityScore {
	playability := evaluatePlayability(poi)
	viewability := evaluateViewability(poi, verification)
	popularity := evaluatePopularity(poi, verification)
	history := evaluateHistory(poi)

	overall := wPlayability*playability +
		wViewability*viewability +
		wPopularity*popularity +
		wHistory*history

	return core.QualityScore{
		Playability: playability,
		Viewability: viewability,
		Popularity:  popularity,
		History:     history,
		Overall:     core.Clamp(overall, 0, 1),
	}
}

// WorthRecommending applies the rejection thresholds. Always true when
// the filter is disabled.
func (q *QualityFilter) WorthRecommending(poi core.POI, verification core.Verification, quality core.QualityScore) bool {
	if !q.cfg.QualityFilter {
		return true
	}
	if verification.ValidReviews < q.cfg.MinReviews {
		return false
	}
	if verification.WeightedRating < q.cfg.MinRating {
		return false
	}
	if quality.Playability < q.cfg.MinPlayability {
		return false
	}
	return quality.Overall >= q.cfg.MinOverall
}

func evaluatePlayability(poi core.POI) float64 {
	score := 0.0

	switch {
	case poi.AvgVisitHours >= 3.0:
		score += 0.5
	case poi.AvgVisitHours >= 1.5:
		score += 0.3
	case poi.AvgVisitHours >= 0.5:
		score += 0.15
	default:
		score += 0.05
	}

	switch poi.Category {
	case core.CategoryAttraction:
		score += 0.4
	case core.CategoryEntertainment:
		score += 0.35
	case core.CategoryShopping:
		score += 0.3
	case core.CategoryRestaurant:
		score += 0.2
	case core.CategoryHotel:
		score += 0.1
	case core.CategoryTransportHub:
		// nothing to do at a station
	}

	return math.Min(score, 1.0)
}

func evaluateViewability(poi core.POI, verification core.Verification) float64 {
	score := 0.0

	switch poi.Category {
	case core.CategoryAttraction:
		score += 0.6
	case core.CategoryRestaurant, core.CategoryEntertainment:
		score += 0.3
	case core.CategoryShopping:
		score += 0.25
	case core.CategoryHotel:
		score += 0.2
	case core.CategoryTransportHub:
		score += 0.1
	}

	switch {
	case verification.WeightedRating >= 4.8:
		score += 0.2
	case verification.WeightedRating >= 4.5:
		score += 0.15
	case verification.WeightedRating >= 4.0:
		score += 0.1
	}

	return math.Min(score, 1.0)
}

func evaluatePopularity(poi core.POI, verification core.Verification) float64 {
	score := 0.0

	// log10 scaling: ten thousand reviews saturates the review term.
	if verification.ValidReviews > 0 {
		score += math.Min(math.Log10(float64(verification.ValidReviews))/10.0, 0.4)
	}

	switch {
	case verification.WeightedRating >= 4.8:
		score += 0.3
	case verification.WeightedRating >= 4.5:
		score += 0.25
	case verification.WeightedRating >= 4.0:
		score += 0.15
	default:
		score += 0.05
	}

	score += math.Min(float64(len(poi.Sources))*0.1, 0.3)

	return math.Min(score, 1.0)
}

func evaluateHistory(poi core.POI) float64 {
	score := 0.0

	for _, token := range historyNameTokens {
		if strings.Contains(poi.Name, token) {
			score += 0.4
			break
		}
	}
	for _, token := range historyAddressTokens {
		if strings.Contains(poi.Address, token) {
			score += 0.2
			break
		}
	}
	if poi.TicketPrice > 0 {
		score += 0.2
	}

	return math.Min(score, 1.0)
}
