// Package waxis implements the experience-coherence enrichment: the
// rule-derived tension decomposition, the concurrent causal-reasoning
// fan-out to the external reasoning service, and the composition of the
// final score from the base score and the coherence perturbation.
package waxis

import (
	"github.com/hznxin/tripmind/core"
)

// TensionInput is everything the rule tensions need about one candidate.
type TensionInput struct {
	Current    core.POI
	Candidate  core.POI
	Region     string
	VisitCount int
	HourOfDay  int
	Famous     bool
}

// ComputeTensions derives the signed novelty/continuity/energy tensions
// and the conflict degree for one candidate. Pure rules, always computed.
func ComputeTensions(in TensionInput) core.Tensions {
	novelty := noveltyTension(in.VisitCount)
	continuity := continuityTension(in.Current.Category, in.Candidate.Category, in.Famous)
	energy := energyTension(in.Candidate.Category, in.HourOfDay)

	return core.Tensions{
		Novelty:    core.Clamp(novelty, -1, 1),
		Continuity: core.Clamp(continuity, -1, 1),
		Energy:     core.Clamp(energy, -1, 1),
		Conflict:   conflictDegree(novelty, continuity, energy),
	}
}

// noveltyTension: a fresh region attracts, a once-visited one mildly
// repels, a saturated one strongly repels.
func noveltyTension(visitCount int) float64 {
	switch {
	case visitCount == 0:
		return 0.8
	case visitCount == 1:
		return -0.3
	default:
		return -0.6
	}
}

// continuityTension: repeating the category reads as monotony; switching
// reads as variety. Well-known landmarks add coherence either way.
func continuityTension(current, next core.Category, famous bool) float64 {
	t := 0.3
	if current == next {
		t = -0.4
	}
	if famous {
		t += 0.2
	}
	return t
}

// energyTension follows the clock: mornings are fresh, evenings tired.
// A restaurant at meal hours recovers energy.
func energyTension(cat core.Category, hour int) float64 {
	var t float64
	switch {
	case hour < 12:
		t = 0.6
	case hour < 16:
		t = 0.2
	case hour < 18:
		t = -0.2
	default:
		t = -0.5
	}

	if cat == core.CategoryRestaurant {
		if (hour >= 11 && hour <= 13) || (hour >= 17 && hour <= 19) {
			t += 0.4
		}
	}
	return t
}

// conflictDegree is min(pos, neg)/3 over the three signed tensions: zero
// when they all agree in direction, up to 1/3 or 2/3 when they disagree.
func conflictDegree(tensions ...float64) float64 {
	var pos, neg int
	for _, t := range tensions {
		if t > 0 {
			pos++
		} else if t < 0 {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}
	m := pos
	if neg < m {
		m = neg
	}
	return float64(m) / 3.0
}
