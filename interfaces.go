// Package tripmind is the stateful travel-itinerary decision core: given
// a session (position, elapsed time, budget, preferences) and a candidate
// pool, it produces a ranked, explained shortlist of next destinations
// and advances the session on selection.
//
// The root package re-exports the types most callers need; the
// implementation lives in the core, planner, waxis, explain, ai,
// resilience and telemetry packages.
package tripmind

import (
	"github.com/hznxin/tripmind/core"
	"github.com/hznxin/tripmind/planner"
)

// Type aliases for the public surface
type Config = core.Config
type Logger = core.Logger
type Telemetry = core.Telemetry
type AIClient = core.AIClient
type POIStore = core.POIStore
type SessionStore = core.SessionStore

type POI = core.POI
type Category = core.Category
type TransportEdge = core.TransportEdge
type TransportMode = core.TransportMode
type CandidateOption = core.CandidateOption
type OptionsResult = core.OptionsResult
type Session = core.Session
type SessionState = core.SessionState
type UserProfile = core.UserProfile
type RiskLevel = core.RiskLevel
type DegradationNote = core.DegradationNote

type Coordinator = planner.Coordinator
type CoordinatorOptions = planner.CoordinatorOptions
type InitInput = planner.InitInput

// Constructors re-exported for convenience
var (
	NewConfig             = core.NewConfig
	DefaultConfig         = core.DefaultConfig
	NewMemorySessionStore = core.NewMemorySessionStore
	NewStaticPOIStore     = planner.NewStaticPOIStore
	NewCoordinator        = planner.NewCoordinator
)

// Category constants
const (
	CategoryAttraction    = core.CategoryAttraction
	CategoryRestaurant    = core.CategoryRestaurant
	CategoryShopping      = core.CategoryShopping
	CategoryEntertainment = core.CategoryEntertainment
	CategoryHotel         = core.CategoryHotel
	CategoryTransportHub  = core.CategoryTransportHub
)

// Risk levels
const (
	RiskInfo     = core.RiskInfo
	RiskWarning  = core.RiskWarning
	RiskCritical = core.RiskCritical
)
