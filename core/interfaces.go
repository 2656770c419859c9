package core

import (
	"context"
)

// Logger interface - minimal logging interface
type Logger interface {
	// Basic logging methods
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})

	// Context-aware methods for request correlation
	InfoWithContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, fields map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, fields map[string]interface{})
}

// ComponentAwareLogger extends Logger with component context support.
// This allows different parts of the pipeline to carry their own
// component identifier while sharing the same base configuration:
//
//	kubectl logs ... | jq 'select(.component == "planner/waxis")'
//
// Component naming convention:
//   - "planner/core"      - data model, config, session stores
//   - "planner/pipeline"  - the coordinator and its stages
//   - "planner/waxis"     - tension + causal enrichment
//   - "planner/explain"   - explanation layer
//   - "planner/ai"        - LLM client wrappers
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// Telemetry interface - optional telemetry support
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a telemetry span
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// AIClient is the narrow contract the core consumes for both the
// reasoning and the explanation services. Implementations must support
// concurrent invocation; individual failures surface as errors which the
// callers convert to sentinel-absent values.
type AIClient interface {
	GenerateResponse(ctx context.Context, prompt string, options *AIOptions) (*AIResponse, error)
}

// AIOptions for AI generation
type AIOptions struct {
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// AIResponse from AI client
type AIResponse struct {
	Content string
	Model   string
}

// POIStore is the read-only candidate source. ListInCity must return a
// deterministic order across calls so ranking is reproducible given
// identical inputs.
type POIStore interface {
	ListInCity(ctx context.Context, city string) ([]POI, error)
}

// SessionStore holds live sessions keyed by session id. Implementations
// must support concurrent read/write; Update provides the per-key
// exclusivity Select relies on. Get refreshes the session's last-active
// time and reports expiry as ErrSessionExpired.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	// Update loads the session, runs fn while holding the per-session
	// lock, and persists the result iff fn returns nil.
	Update(ctx context.Context, id string, fn func(*Session) error) error
	// GCExpired removes sessions idle past the TTL and reports how many.
	GCExpired(ctx context.Context) (int, error)
}

// Default no-op implementations

// NoOpLogger provides a no-op logger implementation
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

func (n *NoOpLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}
func (n *NoOpLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
}

// NoOpTelemetry provides a no-op telemetry implementation
type NoOpTelemetry struct{}

func (n *NoOpTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

func (n *NoOpTelemetry) RecordMetric(name string, value float64, labels map[string]string) {}

// NoOpSpan provides a no-op span implementation
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                       {}
func (n *NoOpSpan) SetAttribute(key string, value interface{}) {}
func (n *NoOpSpan) RecordError(err error)                      {}
