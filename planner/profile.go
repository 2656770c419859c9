package planner

import (
	"strings"

	"github.com/hznxin/tripmind/core"
)

// Keyword tables for profile extraction. Matching is substring-based over
// the lowercased input, which handles both Chinese phrases and mixed-case
// Latin input.
var (
	purposeKeywords = []struct {
		tag    string
		weight float64
		words  []string
	}{
		{"culture", 0.8, []string{"文化", "历史", "博物馆", "园林", "culture", "history", "museum"}},
		{"leisure", 0.7, []string{"休闲", "放松", "度假", "leisure", "relax"}},
		{"food", 0.8, []string{"美食", "吃", "餐厅", "food", "eat"}},
		{"shopping", 0.7, []string{"购物", "买", "shopping"}},
		{"adventure", 0.8, []string{"冒险", "刺激", "探险", "adventure"}},
	}

	slowPaceWords  = []string{"慢", "悠闲", "慢节奏", "slow"}
	fastPaceWords  = []string{"快", "紧凑", "多去", "fast"}
	relaxedWords   = []string{"轻松", "慢", "悠闲", "easy"}
	intensiveWords = []string{"暴走", "深度", "intensive"}

	lowBudgetWords    = []string{"穷游", "省钱", "便宜", "budget"}
	luxuryBudgetWords = []string{"奢华", "高端", "豪华", "luxury"}

	quietWords = []string{"人少", "安静", "避开", "quiet"}
)

// ExtractProfile derives a UserProfile from the user's free-form input by
// keyword mapping. An empty or unmatched input yields the leisure/culture
// default profile.
func ExtractProfile(userInput string) core.UserProfile {
	input := strings.ToLower(userInput)

	purpose := make(map[string]float64)
	for _, kw := range purposeKeywords {
		if containsAny(input, kw.words) {
			purpose[kw.tag] = kw.weight
		}
	}
	if len(purpose) == 0 {
		purpose = map[string]float64{"leisure": 0.6, "culture": 0.5}
	}

	intensity := map[string]float64{"low": 0.5, "medium": 0.4, "high": 0.1}
	if containsAny(input, relaxedWords) {
		intensity = map[string]float64{"low": 0.8, "medium": 0.2, "high": 0.0}
	} else if containsAny(input, intensiveWords) {
		intensity = map[string]float64{"low": 0.0, "medium": 0.3, "high": 0.7}
	}

	pace := map[string]float64{"slow": 0.6, "medium": 0.3, "fast": 0.1}
	if containsAny(input, slowPaceWords) {
		pace = map[string]float64{"slow": 0.9, "medium": 0.1, "fast": 0.0}
	} else if containsAny(input, fastPaceWords) {
		pace = map[string]float64{"slow": 0.0, "medium": 0.3, "fast": 0.7}
	}

	budgetTier := "medium"
	if containsAny(input, lowBudgetWords) {
		budgetTier = "low"
	} else if containsAny(input, luxuryBudgetWords) {
		budgetTier = "luxury"
	}

	avoidCrowd := 0.5
	if containsAny(input, quietWords) {
		avoidCrowd = 0.9
	}

	return core.UserProfile{
		Purpose:    purpose,
		Pace:       pace,
		Intensity:  intensity,
		Food:       map[string]float64{},
		BudgetTier: budgetTier,
		AvoidCrowd: avoidCrowd,
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
