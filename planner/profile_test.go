package planner

import (
	"testing"
)

func TestExtractProfileDefaults(t *testing.T) {
	profile := ExtractProfile("")

	if profile.Purpose["leisure"] != 0.6 || profile.Purpose["culture"] != 0.5 {
		t.Errorf("default purpose = %v, want leisure 0.6 / culture 0.5", profile.Purpose)
	}
	if profile.Pace["slow"] != 0.6 || profile.Pace["medium"] != 0.3 || profile.Pace["fast"] != 0.1 {
		t.Errorf("default pace = %v", profile.Pace)
	}
	if profile.BudgetTier != "medium" {
		t.Errorf("default budget tier = %q, want medium", profile.BudgetTier)
	}
	if profile.AvoidCrowd != 0.5 {
		t.Errorf("default avoid crowd = %v, want 0.5", profile.AvoidCrowd)
	}
}

func TestExtractProfileKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, p map[string]float64, tier string, crowd float64)
	}{
		{
			name:  "garden lover maps to culture",
			input: "休闲慢节奏喜欢园林",
			check: func(t *testing.T, purpose map[string]float64, tier string, crowd float64) {
				if purpose["culture"] != 0.8 {
					t.Errorf("culture = %v, want 0.8", purpose["culture"])
				}
				if purpose["leisure"] != 0.7 {
					t.Errorf("leisure = %v, want 0.7", purpose["leisure"])
				}
			},
		},
		{
			name:  "food trip",
			input: "就想吃美食",
			check: func(t *testing.T, purpose map[string]float64, tier string, crowd float64) {
				if purpose["food"] != 0.8 {
					t.Errorf("food = %v, want 0.8", purpose["food"])
				}
			},
		},
		{
			name:  "budget cues",
			input: "穷游省钱",
			check: func(t *testing.T, purpose map[string]float64, tier string, crowd float64) {
				if tier != "low" {
					t.Errorf("tier = %q, want low", tier)
				}
			},
		},
		{
			name:  "luxury cues",
			input: "高端奢华度假",
			check: func(t *testing.T, purpose map[string]float64, tier string, crowd float64) {
				if tier != "luxury" {
					t.Errorf("tier = %q, want luxury", tier)
				}
			},
		},
		{
			name:  "crowd avoidance",
			input: "喜欢人少安静的地方",
			check: func(t *testing.T, purpose map[string]float64, tier string, crowd float64) {
				if crowd != 0.9 {
					t.Errorf("avoid crowd = %v, want 0.9", crowd)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := ExtractProfile(tt.input)
			tt.check(t, profile.Purpose, profile.BudgetTier, profile.AvoidCrowd)
		})
	}
}

func TestExtractProfilePace(t *testing.T) {
	slow := ExtractProfile("慢节奏悠闲一点")
	if slow.Pace["slow"] != 0.9 {
		t.Errorf("slow pace = %v, want 0.9", slow.Pace["slow"])
	}

	fast := ExtractProfile("行程紧凑多去几个地方")
	if fast.Pace["fast"] != 0.7 {
		t.Errorf("fast pace = %v, want 0.7", fast.Pace["fast"])
	}

	intensive := ExtractProfile("暴走深度游")
	if intensive.Intensity["high"] != 0.7 {
		t.Errorf("intensity high = %v, want 0.7", intensive.Intensity["high"])
	}
}
