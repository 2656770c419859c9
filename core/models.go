package core

import (
	"time"
)

// Category classifies a POI. The pipeline keys several heuristic tables
// (time windows, crowd prediction, quality scoring) off this value.
type Category string

const (
	CategoryAttraction    Category = "attraction"
	CategoryRestaurant    Category = "restaurant"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryHotel         Category = "hotel"
	CategoryTransportHub  Category = "transport_hub"
)

// RatingSource is one external rating feed for a POI (e.g. a map provider
// or a review site). Consistency across sources feeds the trust score.
type RatingSource struct {
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Weight      float64 `json:"weight"`
}

// POI is an addressable destination. Immutable once created; owned by the
// POI store.
type POI struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Lat           float64        `json:"lat"`
	Lon           float64        `json:"lon"`
	Category      Category       `json:"category"`
	Address       string         `json:"address"`
	City          string         `json:"city"`
	AvgVisitHours float64        `json:"avg_visit_hours"`
	TicketPrice   float64        `json:"ticket_price"`
	Rating        float64        `json:"rating"`
	ReviewCount   int            `json:"review_count"`
	Sources       []RatingSource `json:"sources,omitempty"`
}

// TransportMode enumerates the travel modes the estimator knows about.
type TransportMode string

const (
	ModeWalk   TransportMode = "walk"
	ModeTaxi   TransportMode = "taxi"
	ModeBus    TransportMode = "bus"
	ModeSubway TransportMode = "subway"
)

// TransportEdge is one feasible way of reaching a candidate from the
// current position: (distance, time, cost) under fixed heuristics.
// Derived per request; owned by the CandidateOption that references it.
type TransportEdge struct {
	Mode       TransportMode `json:"mode"`
	DistanceKM float64       `json:"distance_km"`
	TimeHours  float64       `json:"time_hours"`
	Cost       float64       `json:"cost"`
}

// Verification holds the four-principle trust assessment of a candidate.
// OverallTrust is the equal-weighted mean of consistency, 1-fake_rate,
// spatial and temporal scores.
type Verification struct {
	Consistency    float64 `json:"consistency_score"`
	WeightedRating float64 `json:"weighted_rating"`
	ValidReviews   int     `json:"valid_reviews"`
	FakeRate       float64 `json:"fake_rate"`
	SpatialScore   float64 `json:"spatial_score"`
	TemporalScore  float64 `json:"temporal_score"`
	PredictedCrowd float64 `json:"predicted_crowd"`
	OverallTrust   float64 `json:"overall_trust"`
}

// QualityScore rates how much a POI is worth visiting, independent of the
// current session. All axes are in [0,1].
type QualityScore struct {
	Playability float64 `json:"playability"`
	Viewability float64 `json:"viewability"`
	Popularity  float64 `json:"popularity"`
	History     float64 `json:"history"`
	Overall     float64 `json:"overall"`
}

// Tensions is the rule-derived decomposition of how a candidate fits the
// session right now. Novelty, continuity and energy are signed in [-1,1];
// conflict in [0,1] measures how much the signed tensions disagree.
type Tensions struct {
	Novelty    float64 `json:"novelty"`
	Continuity float64 `json:"continuity"`
	Energy     float64 `json:"energy"`
	Conflict   float64 `json:"conflict"`
}

// WAxisDetails carries the experience-coherence enrichment attached to a
// candidate after the reasoning fan-out.
type WAxisDetails struct {
	CCausal      float64  `json:"c_causal"`
	CausalAbsent bool     `json:"causal_absent,omitempty"`
	Tensions     Tensions `json:"tensions"`
	Region       string   `json:"region"`
	VisitCount   int      `json:"visit_count"`
}

// RiskLevel annotates a candidate with how dangerous selecting it would
// be for the session's remaining time and budget. Metadata only: risk
// never reorders or drops results.
type RiskLevel string

const (
	RiskInfo     RiskLevel = "info"
	RiskWarning  RiskLevel = "warning"
	RiskCritical RiskLevel = "critical"
)

// CandidateOption is one entry of the ranked shortlist returned by a
// NextOptions call. Discarded unless the user selects it.
type CandidateOption struct {
	POI          POI             `json:"poi"`
	Edges        []TransportEdge `json:"edges"`
	Verification Verification    `json:"verification"`
	Quality      QualityScore    `json:"quality"`
	BaseScore    float64         `json:"base_score"`
	MatchScore   float64         `json:"match_score"`
	FinalScore   float64         `json:"final_score"`
	WAxis        *WAxisDetails   `json:"w_axis,omitempty"`
	Explanation  string          `json:"explanation,omitempty"`
	Rank         int             `json:"rank"`
	Risk         RiskLevel       `json:"risk_level"`
	RiskDetails  []string        `json:"risk_details,omitempty"`
	// FuturePreview names up to three POIs reachable after hypothetically
	// selecting this option.
	FuturePreview []string `json:"future_preview,omitempty"`
}

// MinEdgeTime returns the shortest travel time over the option's edges.
func (o *CandidateOption) MinEdgeTime() float64 {
	if len(o.Edges) == 0 {
		return 0
	}
	min := o.Edges[0].TimeHours
	for _, e := range o.Edges[1:] {
		if e.TimeHours < min {
			min = e.TimeHours
		}
	}
	return min
}

// MinEdgeCost returns the cheapest edge cost over the option's edges.
func (o *CandidateOption) MinEdgeCost() float64 {
	if len(o.Edges) == 0 {
		return 0
	}
	min := o.Edges[0].Cost
	for _, e := range o.Edges[1:] {
		if e.Cost < min {
			min = e.Cost
		}
	}
	return min
}

// UserProfile is derived once per session from the user's free-form input.
type UserProfile struct {
	Purpose    map[string]float64 `json:"purpose"`
	Pace       map[string]float64 `json:"pace"`
	Intensity  map[string]float64 `json:"intensity"`
	Food       map[string]float64 `json:"food,omitempty"`
	BudgetTier string             `json:"budget_tier"`
	AvoidCrowd float64            `json:"avoid_crowd"`
}

// SessionState is the mutable position of a session. Only the Coordinator
// mutates it, and only inside Select. ElapsedHours and VisitedIDs are
// monotone; RemainingBudget only decreases.
type SessionState struct {
	Current         POI             `json:"current"`
	ElapsedHours    float64         `json:"elapsed_hours"`
	RemainingBudget float64         `json:"remaining_budget"`
	VisitedIDs      map[string]bool `json:"visited_ids"`
	RegionVisits    map[string]int  `json:"region_visits"`
}

// Clone deep-copies the state so pipeline stages can take it by value
// without aliasing the session's maps.
func (s SessionState) Clone() SessionState {
	out := s
	out.VisitedIDs = make(map[string]bool, len(s.VisitedIDs))
	for k, v := range s.VisitedIDs {
		out.VisitedIDs[k] = v
	}
	out.RegionVisits = make(map[string]int, len(s.RegionVisits))
	for k, v := range s.RegionVisits {
		out.RegionVisits[k] = v
	}
	return out
}

// Visited reports whether the POI id has been selected this session.
func (s SessionState) Visited(id string) bool {
	return s.VisitedIDs[id]
}

// Selection records one applied user choice.
type Selection struct {
	POI  POI           `json:"poi"`
	Edge TransportEdge `json:"edge"`
	At   time.Time     `json:"at"`
}

// ReturnConstraint is the hard "be back by" requirement: the user must
// reach Place before DeadlineHour (clock hour of day).
type ReturnConstraint struct {
	DeadlineHour float64 `json:"deadline_hour"`
	Place        POI     `json:"place"`
	Mode         string  `json:"mode,omitempty"`
}

// HardConstraints are requirements that trigger critical risk when an
// action would violate them.
type HardConstraints struct {
	Return *ReturnConstraint `json:"return,omitempty"`
}

// Session is one user's planning session. Lives in a SessionStore keyed
// by ID; expires after an idle TTL.
type Session struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id,omitempty"`
	City          string          `json:"city"`
	DurationHours float64         `json:"duration_hours"`
	Budget        float64         `json:"budget"`
	Profile       UserProfile     `json:"profile"`
	Initial       SessionState    `json:"initial_state"`
	State         SessionState    `json:"current_state"`
	History       []Selection     `json:"history"`
	Constraints   HardConstraints `json:"hard_constraints"`
	CreatedAt     time.Time       `json:"created_at"`
	LastActive    time.Time       `json:"last_active"`
}

// DegradationNote marks a pipeline stage that ran in fallback mode. Notes
// are accumulated by the Coordinator and attached to the response; they
// are informational, never errors.
type DegradationNote struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// Reason codes for an empty (but valid) options result.
const (
	ReasonNone             = "none"
	ReasonInsufficientTime = "insufficient_time"
	ReasonExhaustedPool    = "exhausted_pool"
)

// OptionsResult is the full outcome of one NextOptions call: the ranked
// shortlist, a reason code when it is empty, and any degradation notes.
type OptionsResult struct {
	Options  []CandidateOption `json:"options"`
	Reason   string            `json:"reason,omitempty"`
	Degraded []DegradationNote `json:"degraded,omitempty"`
}

// Clamp bounds v to [lo, hi]. Score-like fields clamp rather than fail on
// drift.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
