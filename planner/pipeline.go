package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hznxin/tripmind/core"
	"github.com/hznxin/tripmind/explain"
	"github.com/hznxin/tripmind/waxis"
)

// WeatherFunc resolves the current weather label for a city. The default
// implementation is static; a live weather client can be plugged in
// without touching the pipeline.
type WeatherFunc func(city string) string

// Coordinator owns session lifecycle and drives one request through the
// pipeline. It is the only component that mutates session state, and only
// inside Select; NextOptions is read-only with respect to the session.
type Coordinator struct {
	cfg         *core.Config
	sessions    core.SessionStore
	pois        core.POIStore
	feasibility *Feasibility
	verifier    *Verifier
	quality     *QualityFilter
	scorer      *Scorer
	waxis       *waxis.Engine
	explainer   *explain.Layer
	weather     WeatherFunc
	logger      core.Logger
	telemetry   core.Telemetry
}

// CoordinatorOptions wires the coordinator's collaborators. Sessions and
// POIs are required; Client may be nil for rule-only operation; Weather
// defaults to a static sunny stub.
type CoordinatorOptions struct {
	Config    *core.Config
	Sessions  core.SessionStore
	POIs      core.POIStore
	Client    core.AIClient
	Weather   WeatherFunc
	Logger    core.Logger
	Telemetry core.Telemetry
}

// NewCoordinator builds the pipeline from configuration.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required: %w", core.ErrMissingConfiguration)
	}
	if opts.Sessions == nil || opts.POIs == nil {
		return nil, fmt.Errorf("session store and POI store are required: %w", core.ErrMissingConfiguration)
	}

	logger := opts.Logger
	if logger == nil {
		logger = opts.Config.Logger()
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("planner/pipeline")
	}
	telemetry := opts.Telemetry
	if telemetry == nil {
		telemetry = &core.NoOpTelemetry{}
	}
	weather := opts.Weather
	if weather == nil {
		weather = func(string) string { return "晴天" }
	}

	feasibility := NewFeasibility(opts.Config.Pipeline)

	return &Coordinator{
		cfg:         opts.Config,
		sessions:    opts.Sessions,
		pois:        opts.POIs,
		feasibility: feasibility,
		verifier:    NewVerifier(feasibility),
		quality:     NewQualityFilter(opts.Config.Pipeline),
		scorer:      NewScorer(opts.Config.Scoring),
		waxis:       waxis.NewEngine(opts.Client, opts.Config.WAxis, opts.Logger, telemetry),
		explainer:   explain.NewLayer(opts.Client, opts.Config.Explain, opts.Logger, telemetry),
		weather:     weather,
		logger:      logger,
		telemetry:   telemetry,
	}, nil
}

// InitInput is everything needed to open a session.
type InitInput struct {
	UserID        string
	City          string
	Start         core.POI
	DurationHours float64
	Budget        float64
	UserInput     string
	Constraints   core.HardConstraints
}

// Initialize derives the user profile, builds the initial state and
// stores a new session.
func (c *Coordinator) Initialize(ctx context.Context, in InitInput) (*core.Session, error) {
	if in.City == "" {
		return nil, &core.PlannerError{Op: "coordinator.Initialize", Kind: "input",
			Message: "destination city is required", Err: core.ErrInvalidInput}
	}
	if in.DurationHours <= 0 {
		return nil, &core.PlannerError{Op: "coordinator.Initialize", Kind: "input",
			Message: "duration must be positive", Err: core.ErrInvalidInput}
	}
	if in.Budget < 0 {
		return nil, &core.PlannerError{Op: "coordinator.Initialize", Kind: "input",
			Message: "budget must be non-negative", Err: core.ErrInvalidInput}
	}
	if in.Start.ID == "" {
		return nil, &core.PlannerError{Op: "coordinator.Initialize", Kind: "input",
			Message: "start POI is required", Err: core.ErrInvalidInput}
	}

	state := core.SessionState{
		Current:         in.Start,
		ElapsedHours:    0,
		RemainingBudget: in.Budget,
		VisitedIDs:      make(map[string]bool),
		RegionVisits:    make(map[string]int),
	}

	session := &core.Session{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		City:          in.City,
		DurationHours: in.DurationHours,
		Budget:        in.Budget,
		Profile:       ExtractProfile(in.UserInput),
		Initial:       state.Clone(),
		State:         state,
		Constraints:   in.Constraints,
	}

	if err := c.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	c.logger.InfoWithContext(ctx, "Session initialized", map[string]interface{}{
		"operation":  "initialize",
		"session_id": session.ID,
		"city":       session.City,
		"duration":   session.DurationHours,
		"budget":     session.Budget,
	})
	return session, nil
}

// NextOptions runs the full pipeline for a session and returns the
// ranked shortlist. Routine data gaps degrade per stage and never error;
// an empty list with a reason code is a valid result.
func (c *Coordinator) NextOptions(ctx context.Context, sessionID string, k int) (*core.OptionsResult, error) {
	session, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = c.cfg.Pipeline.TopK
	}

	ctx, span := c.telemetry.StartSpan(ctx, "pipeline.next_options")
	defer span.End()
	span.SetAttribute("session_id", session.ID)
	span.SetAttribute("k", k)

	state := session.State.Clone()
	result := &core.OptionsResult{Reason: core.ReasonNone}

	// Fetch. A POI store failure degrades to an empty pool rather than
	// erroring: feasible gaps are not errors.
	pool, err := c.pois.ListInCity(ctx, session.City)
	if err != nil {
		c.logger.WarnWithContext(ctx, "POI store unavailable", map[string]interface{}{
			"session_id": session.ID,
			"city":       session.City,
			"error":      err.Error(),
		})
		result.Reason = core.ReasonExhaustedPool
		result.Degraded = append(result.Degraded, core.DegradationNote{Stage: "fetch", Reason: "poi store unavailable"})
		result.Options = []core.CandidateOption{}
		return result, nil
	}
	if len(pool) > c.cfg.Pipeline.PoolSize {
		pool = pool[:c.cfg.Pipeline.PoolSize]
	}
	if len(pool) == 0 {
		result.Reason = core.ReasonExhaustedPool
		result.Options = []core.CandidateOption{}
		return result, nil
	}

	// Feasibility.
	survivors, reason := c.feasibility.Filter(pool, state, session.DurationHours)
	if len(survivors) == 0 {
		result.Reason = reason
		result.Options = []core.CandidateOption{}
		return result, nil
	}

	// Transport, verification, quality, base score.
	options := make([]core.CandidateOption, 0, len(survivors))
	for _, poi := range survivors {
		edges := EnumerateEdges(state.Current, poi)
		if len(edges) == 0 {
			continue
		}

		verification := c.verifier.Verify(poi, state, session.DurationHours)
		quality := c.quality.Evaluate(poi, verification)
		if !c.quality.WorthRecommending(poi, verification, quality) {
			continue
		}

		options = append(options, core.CandidateOption{
			POI:          poi,
			Edges:        edges,
			Verification: verification,
			Quality:      quality,
			BaseScore:    c.scorer.BaseScore(poi, edges, verification, quality, session.Profile, state),
			MatchScore:   c.scorer.MatchScore(poi, session.Profile),
		})
	}
	if len(options) == 0 {
		result.Reason = core.ReasonExhaustedPool
		result.Options = []core.CandidateOption{}
		return result, nil
	}

	// W-axis enrichment: rule tensions always, causal fan-out when the
	// reasoning service is configured.
	hour := c.feasibility.HourOfDay(state.ElapsedHours)
	weather := c.weather(session.City)
	tasks := make([]waxis.Task, len(options))
	for i, opt := range options {
		region := RegionOf(opt.POI)
		tasks[i] = waxis.Task{
			Current:    state.Current,
			Candidate:  opt.POI,
			Region:     region,
			VisitCount: state.RegionVisits[region],
			HourOfDay:  hour,
			Weather:    weather,
			Famous:     IsFamousLandmark(opt.POI.Name),
		}
	}
	enrichment, note := c.waxis.Enrich(ctx, tasks)
	if note != nil {
		result.Degraded = append(result.Degraded, *note)
	}
	for i := range options {
		options[i].WAxis = &core.WAxisDetails{
			CCausal:      enrichment[i].CCausal,
			CausalAbsent: enrichment[i].Absent,
			Tensions:     enrichment[i].Tensions,
			Region:       tasks[i].Region,
			VisitCount:   tasks[i].VisitCount,
		}
		options[i].FinalScore = waxis.FinalScore(options[i].BaseScore, enrichment[i].FWC)
	}

	// Rank. The tie-break chain makes the order total: score, novelty
	// tension, shortest edge time, then POI id.
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].FinalScore != options[j].FinalScore {
			return options[i].FinalScore > options[j].FinalScore
		}
		ni, nj := options[i].WAxis.Tensions.Novelty, options[j].WAxis.Tensions.Novelty
		if ni != nj {
			return ni > nj
		}
		ti, tj := options[i].MinEdgeTime(), options[j].MinEdgeTime()
		if ti != tj {
			return ti < tj
		}
		return options[i].POI.ID < options[j].POI.ID
	})
	for i := range options {
		options[i].Rank = i + 1
	}

	// Risk annotation: metadata only, never reorders.
	for i := range options {
		AnnotateRisk(&options[i], state, session, c.cfg.Pipeline.StartHour)
	}

	if len(options) > k {
		options = options[:k]
	}

	// One-step lookahead for the shortlist.
	for i := range options {
		options[i].FuturePreview = c.previewFuture(pool, options[i].POI, state, session.DurationHours)
	}

	// Explanations for the shortlist only.
	if note := c.explainer.Annotate(ctx, options, explain.Request{
		TimeLabel: formatClock(float64(c.cfg.Pipeline.StartHour) + state.ElapsedHours),
		HourOfDay: hour,
		Weather:   weather,
	}); note != nil {
		result.Degraded = append(result.Degraded, *note)
	}

	result.Options = options

	c.logger.InfoWithContext(ctx, "Options computed", map[string]interface{}{
		"operation":  "next_options",
		"session_id": session.ID,
		"pool":       len(pool),
		"survivors":  len(survivors),
		"returned":   len(options),
		"degraded":   len(result.Degraded),
	})
	return result, nil
}

// Select applies the user's choice under the session's per-key lock and
// returns the new state. Fails with ErrInvalidSelection when the edge is
// not one of the option's edges or the POI was already visited.
func (c *Coordinator) Select(ctx context.Context, sessionID string, option core.CandidateOption, edge core.TransportEdge) (core.SessionState, error) {
	var newState core.SessionState

	err := c.sessions.Update(ctx, sessionID, func(session *core.Session) error {
		if len(option.Edges) == 0 {
			return &core.PlannerError{Op: "coordinator.Select", Kind: "selection", ID: option.POI.ID,
				Message: "option has no edges", Err: core.ErrInvalidSelection}
		}
		if !edgeInOption(edge, option) {
			return &core.PlannerError{Op: "coordinator.Select", Kind: "selection", ID: option.POI.ID,
				Message: "edge does not belong to the option", Err: core.ErrInvalidSelection}
		}
		if session.State.Visited(option.POI.ID) {
			return &core.PlannerError{Op: "coordinator.Select", Kind: "selection", ID: option.POI.ID,
				Message: "poi already visited", Err: core.ErrInvalidSelection}
		}

		session.State.Current = option.POI
		session.State.ElapsedHours += edge.TimeHours + option.POI.AvgVisitHours
		session.State.RemainingBudget -= edge.Cost + option.POI.TicketPrice
		session.State.VisitedIDs[option.POI.ID] = true
		session.State.RegionVisits[RegionOf(option.POI)]++
		session.History = append(session.History, core.Selection{
			POI:  option.POI,
			Edge: edge,
			At:   time.Now(),
		})

		newState = session.State.Clone()
		return nil
	})
	if err != nil {
		return core.SessionState{}, err
	}

	c.logger.InfoWithContext(ctx, "Selection applied", map[string]interface{}{
		"operation":  "select",
		"session_id": sessionID,
		"poi":        option.POI.ID,
		"mode":       string(edge.Mode),
		"elapsed":    newState.ElapsedHours,
		"budget":     newState.RemainingBudget,
	})
	return newState, nil
}

// Delete removes a session. Idempotent.
func (c *Coordinator) Delete(ctx context.Context, sessionID string) error {
	return c.sessions.Delete(ctx, sessionID)
}

// GCExpired sweeps expired sessions from the store.
func (c *Coordinator) GCExpired(ctx context.Context) (int, error) {
	return c.sessions.GCExpired(ctx)
}

// previewFuture lists up to three POI names reachable after
// hypothetically selecting the candidate (two hours later, candidate
// marked visited).
func (c *Coordinator) previewFuture(pool []core.POI, selected core.POI, state core.SessionState, durationHours float64) []string {
	hypothetical := state.Clone()
	hypothetical.Current = selected
	hypothetical.ElapsedHours += 2.0
	hypothetical.VisitedIDs[selected.ID] = true

	var names []string
	for _, poi := range pool {
		if c.feasibility.Check(poi, hypothetical, durationHours) != dropNone {
			continue
		}
		names = append(names, poi.Name)
		if len(names) == 3 {
			break
		}
	}
	return names
}

// edgeInOption compares by value: mode plus the numeric triple.
func edgeInOption(edge core.TransportEdge, option core.CandidateOption) bool {
	for _, e := range option.Edges {
		if e == edge {
			return true
		}
	}
	return false
}
