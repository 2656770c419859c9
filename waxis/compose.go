package waxis

import (
	"github.com/hznxin/tripmind/core"
)

// SemanticScore folds the signed tensions into the semantic coherence
// term: S_sem = 0.5 + 0.3*novelty + 0.2*continuity + 0.1*energy, clamped
// to [-1,1].
func SemanticScore(t core.Tensions) float64 {
	return core.Clamp(0.5+0.3*t.Novelty+0.2*t.Continuity+0.1*t.Energy, -1, 1)
}

// RuleCausal is the rule-only stand-in for the reasoning scalar, used
// whenever the external service is unavailable. Same shape as the
// semantic term but bounded away from the extremes.
func RuleCausal(t core.Tensions) float64 {
	return core.Clamp(0.5+0.3*t.Novelty+0.2*t.Continuity+0.1*t.Energy, 0.1, 0.95)
}

// Compose builds the coherence perturbation F_wc = delta*S_sem +
// epsilon*C_causal. With delta, epsilon <= 0.2 and the inputs bounded,
// |F_wc| stays below 0.5 by construction.
func Compose(delta, epsilon, sSem, cCausal float64) float64 {
	return delta*sSem + epsilon*cCausal
}

// FinalScore lifts the base score by the perturbation and clamps to
// [0,1].
func FinalScore(base, fwc float64) float64 {
	return core.Clamp(base+fwc, 0, 1)
}
