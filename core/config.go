package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the decision core.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// A YAML file can be loaded between layers 1 and 2 with LoadFromFile;
// unknown keys in the file are rejected.
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithName("tripmind"),
//	    WithTopK(5),
//	    WithQualityFilter(false),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Name identifies the service in logs and telemetry.
	Name string `json:"name" yaml:"name" env:"TRIPMIND_NAME"`

	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring"`
	WAxis    WAxisConfig    `json:"waxis" yaml:"waxis"`
	Explain  ExplainConfig  `json:"explain" yaml:"explain"`
	Session  SessionConfig  `json:"session" yaml:"session"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`

	// Logger instance for configuration operations (excluded from JSON)
	logger Logger
}

// PipelineConfig bounds the candidate pipeline.
type PipelineConfig struct {
	// PoolSize hard-caps how many POIs are fetched per request.
	PoolSize int `json:"pool_size" yaml:"pool_size" env:"TRIPMIND_POOL_SIZE" default:"200"`
	// MaxDistanceKM drops candidates farther than this from the current
	// position.
	MaxDistanceKM float64 `json:"max_distance_km" yaml:"max_distance_km" env:"TRIPMIND_MAX_DISTANCE_KM" default:"50"`
	// TemporalFilter gates the time-of-day category filter.
	TemporalFilter bool `json:"temporal_filter" yaml:"temporal_filter" env:"TRIPMIND_TEMPORAL_FILTER" default:"false"`
	// QualityFilter gates the minimum-quality rejection stage.
	QualityFilter  bool    `json:"quality_filter" yaml:"quality_filter" env:"TRIPMIND_QUALITY_FILTER" default:"true"`
	MinReviews     int     `json:"min_reviews" yaml:"min_reviews" env:"TRIPMIND_MIN_REVIEWS" default:"50"`
	MinRating      float64 `json:"min_rating" yaml:"min_rating" env:"TRIPMIND_MIN_RATING" default:"4.0"`
	MinPlayability float64 `json:"min_playability" yaml:"min_playability" env:"TRIPMIND_MIN_PLAYABILITY" default:"0.3"`
	MinOverall     float64 `json:"min_overall" yaml:"min_overall" env:"TRIPMIND_MIN_OVERALL" default:"0.5"`
	// TopK is how many ranked options a request returns.
	TopK int `json:"top_k" yaml:"top_k" env:"TRIPMIND_TOP_K" default:"10"`
	// StartHour anchors elapsed hours to a clock hour of day.
	StartHour int `json:"start_hour" yaml:"start_hour" env:"TRIPMIND_START_HOUR" default:"9"`
}

// ScoringConfig holds the base-score weights. They must sum to 1.0.
type ScoringConfig struct {
	Match      float64 `json:"match" yaml:"match" env:"TRIPMIND_WEIGHT_MATCH" default:"0.25"`
	Trust      float64 `json:"trust" yaml:"trust" env:"TRIPMIND_WEIGHT_TRUST" default:"0.20"`
	Quality    float64 `json:"quality" yaml:"quality" env:"TRIPMIND_WEIGHT_QUALITY" default:"0.20"`
	Efficiency float64 `json:"efficiency" yaml:"efficiency" env:"TRIPMIND_WEIGHT_EFFICIENCY" default:"0.15"`
	Novelty    float64 `json:"novelty" yaml:"novelty" env:"TRIPMIND_WEIGHT_NOVELTY" default:"0.10"`
	Crowd      float64 `json:"crowd" yaml:"crowd" env:"TRIPMIND_WEIGHT_CROWD" default:"0.10"`
}

// Sum returns the total of all weights.
func (s ScoringConfig) Sum() float64 {
	return s.Match + s.Trust + s.Quality + s.Efficiency + s.Novelty + s.Crowd
}

// WAxisConfig controls the experience-coherence enrichment.
type WAxisConfig struct {
	// Delta weights the semantic term, Epsilon the causal term. Both must
	// lie in [0, 0.2] so the perturbation cannot dominate the base score.
	Delta   float64 `json:"delta" yaml:"delta" env:"TRIPMIND_WAXIS_DELTA" default:"0.1"`
	Epsilon float64 `json:"epsilon" yaml:"epsilon" env:"TRIPMIND_WAXIS_EPSILON" default:"0.1"`
	// Concurrency caps the reasoning fan-out worker pool.
	Concurrency int           `json:"concurrency" yaml:"concurrency" env:"TRIPMIND_WAXIS_CONCURRENCY" default:"10"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" env:"TRIPMIND_WAXIS_TIMEOUT" default:"5s"`
}

// ExplainConfig controls the explanation layer.
type ExplainConfig struct {
	Enabled     bool          `json:"enabled" yaml:"enabled" env:"TRIPMIND_EXPLAIN_ENABLED" default:"true"`
	Concurrency int           `json:"concurrency" yaml:"concurrency" env:"TRIPMIND_EXPLAIN_CONCURRENCY" default:"10"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" env:"TRIPMIND_EXPLAIN_TIMEOUT" default:"5s"`
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	// TTL is the idle expiry of a session.
	TTL time.Duration `json:"ttl" yaml:"ttl" env:"TRIPMIND_SESSION_TTL" default:"24h"`
	// RedisURL switches the session store to Redis when set.
	RedisURL string `json:"redis_url" yaml:"redis_url" env:"TRIPMIND_REDIS_URL,REDIS_URL"`
}

// AIConfig configures the LLM client shared by reasoning and explanation.
// This is an optional module - when Enabled is false the pipeline runs
// rule-only with zero network traffic.
type AIConfig struct {
	Enabled     bool          `json:"enabled" yaml:"enabled" env:"TRIPMIND_AI_ENABLED" default:"false"`
	APIKey      string        `json:"-" yaml:"-" env:"TRIPMIND_AI_API_KEY,OPENAI_API_KEY"`
	BaseURL     string        `json:"base_url" yaml:"base_url" env:"TRIPMIND_AI_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `json:"model" yaml:"model" env:"TRIPMIND_AI_MODEL" default:"gpt-4o-mini"`
	Temperature float64       `json:"temperature" yaml:"temperature" env:"TRIPMIND_AI_TEMPERATURE" default:"0.5"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens" env:"TRIPMIND_AI_MAX_TOKENS" default:"60"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" env:"TRIPMIND_AI_TIMEOUT" default:"10s"`
}

// LoggingConfig controls the production logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"TRIPMIND_LOG_LEVEL" default:"info"`
	Format string `json:"format" yaml:"format" env:"TRIPMIND_LOG_FORMAT" default:"json"`
	Output string `json:"output" yaml:"output" env:"TRIPMIND_LOG_OUTPUT" default:"stdout"`
}

// DefaultConfig returns a Config populated with defaults only.
func DefaultConfig() *Config {
	return &Config{
		Name: "tripmind",
		Pipeline: PipelineConfig{
			PoolSize:       200,
			MaxDistanceKM:  50,
			TemporalFilter: false,
			QualityFilter:  true,
			MinReviews:     50,
			MinRating:      4.0,
			MinPlayability: 0.3,
			MinOverall:     0.5,
			TopK:           10,
			StartHour:      9,
		},
		Scoring: ScoringConfig{
			Match:      0.25,
			Trust:      0.20,
			Quality:    0.20,
			Efficiency: 0.15,
			Novelty:    0.10,
			Crowd:      0.10,
		},
		WAxis: WAxisConfig{
			Delta:       0.1,
			Epsilon:     0.1,
			Concurrency: 10,
			Timeout:     5 * time.Second,
		},
		Explain: ExplainConfig{
			Enabled:     true,
			Concurrency: 10,
			Timeout:     5 * time.Second,
		},
		Session: SessionConfig{
			TTL: 24 * time.Hour,
		},
		AI: AIConfig{
			Enabled:     false,
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.5,
			MaxTokens:   60,
			Timeout:     10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Option is a functional configuration option.
type Option func(*Config) error

// WithName sets the service name.
func WithName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidConfiguration)
		}
		c.Name = name
		return nil
	}
}

// WithTopK sets how many options a request returns.
func WithTopK(k int) Option {
	return func(c *Config) error {
		if k < 1 {
			return fmt.Errorf("%w: top_k must be >= 1, got %d", ErrInvalidConfiguration, k)
		}
		c.Pipeline.TopK = k
		return nil
	}
}

// WithQualityFilter toggles the quality rejection stage.
func WithQualityFilter(enabled bool) Option {
	return func(c *Config) error {
		c.Pipeline.QualityFilter = enabled
		return nil
	}
}

// WithTemporalFilter toggles the time-of-day category filter.
func WithTemporalFilter(enabled bool) Option {
	return func(c *Config) error {
		c.Pipeline.TemporalFilter = enabled
		return nil
	}
}

// WithScoringWeights replaces the base-score weights.
func WithScoringWeights(w ScoringConfig) Option {
	return func(c *Config) error {
		c.Scoring = w
		return nil
	}
}

// WithWAxisWeights sets the semantic and causal perturbation weights.
func WithWAxisWeights(delta, epsilon float64) Option {
	return func(c *Config) error {
		c.WAxis.Delta = delta
		c.WAxis.Epsilon = epsilon
		return nil
	}
}

// WithAI enables the LLM-backed reasoning and explanation services.
func WithAI(ai AIConfig) Option {
	return func(c *Config) error {
		c.AI = ai
		return nil
	}
}

// WithSessionTTL sets the idle session expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: session ttl must be positive", ErrInvalidConfiguration)
		}
		c.Session.TTL = ttl
		return nil
	}
}

// WithLogger overrides the logger used by the configured components.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.logger = logger
		return nil
	}
}

// NewConfig builds a Config applying defaults, environment variables and
// functional options in that order, then validates the result.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if cfg.logger == nil {
		cfg.logger = NewProductionLogger(cfg.Logging, cfg.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Logger returns the configured logger (never nil after NewConfig).
func (c *Config) Logger() Logger {
	if c.logger == nil {
		return &NoOpLogger{}
	}
	return c.logger
}

// LoadFromFile merges a YAML file into the config. Unknown keys reject
// at load.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return nil
}

// LoadFromEnv applies environment variable overrides for the variables
// read below. The env tags of MinPlayability, MinOverall, AI Temperature,
// AI MaxTokens and the explanation Concurrency and Timeout are not read
// here; those fields keep their default or file values.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("TRIPMIND_NAME"); v != "" {
		c.Name = v
	}

	var err error
	if err = envInt("TRIPMIND_POOL_SIZE", &c.Pipeline.PoolSize); err != nil {
		return err
	}
	if err = envFloat("TRIPMIND_MAX_DISTANCE_KM", &c.Pipeline.MaxDistanceKM); err != nil {
		return err
	}
	if err = envBool("TRIPMIND_TEMPORAL_FILTER", &c.Pipeline.TemporalFilter); err != nil {
		return err
	}
	if err = envBool("TRIPMIND_QUALITY_FILTER", &c.Pipeline.QualityFilter); err != nil {
		return err
	}
	if err = envInt("TRIPMIND_MIN_REVIEWS", &c.Pipeline.MinReviews); err != nil {
		return err
	}
	if err = envFloat("TRIPMIND_MIN_RATING", &c.Pipeline.MinRating); err != nil {
		return err
	}
	if err = envInt("TRIPMIND_TOP_K", &c.Pipeline.TopK); err != nil {
		return err
	}
	if err = envInt("TRIPMIND_START_HOUR", &c.Pipeline.StartHour); err != nil {
		return err
	}
	if err = envFloat("TRIPMIND_WAXIS_DELTA", &c.WAxis.Delta); err != nil {
		return err
	}
	if err = envFloat("TRIPMIND_WAXIS_EPSILON", &c.WAxis.Epsilon); err != nil {
		return err
	}
	if err = envInt("TRIPMIND_WAXIS_CONCURRENCY", &c.WAxis.Concurrency); err != nil {
		return err
	}
	if err = envDuration("TRIPMIND_WAXIS_TIMEOUT", &c.WAxis.Timeout); err != nil {
		return err
	}
	if err = envBool("TRIPMIND_EXPLAIN_ENABLED", &c.Explain.Enabled); err != nil {
		return err
	}
	if err = envDuration("TRIPMIND_SESSION_TTL", &c.Session.TTL); err != nil {
		return err
	}
	if v := os.Getenv("TRIPMIND_REDIS_URL"); v != "" {
		c.Session.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Session.RedisURL = v
	}
	if err = envBool("TRIPMIND_AI_ENABLED", &c.AI.Enabled); err != nil {
		return err
	}
	if v := os.Getenv("TRIPMIND_AI_API_KEY"); v != "" {
		c.AI.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("TRIPMIND_AI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("TRIPMIND_AI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if err = envDuration("TRIPMIND_AI_TIMEOUT", &c.AI.Timeout); err != nil {
		return err
	}
	if v := os.Getenv("TRIPMIND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRIPMIND_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TRIPMIND_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}
	return nil
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Pipeline.PoolSize < 1 {
		return fmt.Errorf("%w: pool_size must be >= 1", ErrInvalidConfiguration)
	}
	if c.Pipeline.MaxDistanceKM <= 0 {
		return fmt.Errorf("%w: max_distance_km must be positive", ErrInvalidConfiguration)
	}
	if c.Pipeline.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1", ErrInvalidConfiguration)
	}
	if c.Pipeline.StartHour < 0 || c.Pipeline.StartHour > 23 {
		return fmt.Errorf("%w: start_hour must be in [0,23]", ErrInvalidConfiguration)
	}
	if sum := c.Scoring.Sum(); math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("%w: scoring weights must sum to 1.0, got %.4f", ErrInvalidConfiguration, sum)
	}
	if c.WAxis.Delta < 0 || c.WAxis.Delta > 0.2 {
		return fmt.Errorf("%w: waxis delta must be in [0,0.2]", ErrInvalidConfiguration)
	}
	if c.WAxis.Epsilon < 0 || c.WAxis.Epsilon > 0.2 {
		return fmt.Errorf("%w: waxis epsilon must be in [0,0.2]", ErrInvalidConfiguration)
	}
	if c.WAxis.Concurrency < 1 {
		return fmt.Errorf("%w: waxis concurrency must be >= 1", ErrInvalidConfiguration)
	}
	if c.Explain.Concurrency < 1 {
		return fmt.Errorf("%w: explain concurrency must be >= 1", ErrInvalidConfiguration)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", ErrInvalidConfiguration)
	}
	if c.AI.Enabled && c.AI.APIKey == "" {
		return fmt.Errorf("%w: ai enabled but no api key", ErrMissingConfiguration)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfiguration, c.Logging.Level)
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfiguration, key, v)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfiguration, key, v)
	}
	*dst = f
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfiguration, key, v)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfiguration, key, v)
	}
	*dst = d
	return nil
}

// ============================================================================
// ProductionLogger Implementation
// ============================================================================

// ProductionLogger is the default structured logger. It writes one line
// per event, JSON or human-readable, and can be re-scoped per component.
type ProductionLogger struct {
	level       string
	debug       bool
	serviceName string
	component   string
	format      string
	output      io.Writer
}

// NewProductionLogger creates a logger from LoggingConfig
func NewProductionLogger(logging LoggingConfig, serviceName string) Logger {
	var output io.Writer = os.Stdout
	if logging.Output == "stderr" {
		output = os.Stderr
	}

	return &ProductionLogger{
		level:       strings.ToLower(logging.Level),
		debug:       strings.ToLower(logging.Level) == "debug",
		serviceName: serviceName,
		component:   "planner/core",
		format:      logging.Format,
		output:      output,
	}
}

// WithComponent returns a copy of the logger scoped to a component name.
func (p *ProductionLogger) WithComponent(component string) Logger {
	clone := *p
	clone.component = component
	return &clone
}

func (p *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields)
}

func (p *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields)
}

func (p *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields)
}

func (p *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields)
	}
}

func (p *ProductionLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields)
}

func (p *ProductionLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields)
}

func (p *ProductionLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields)
}

func (p *ProductionLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields)
	}
}

func (p *ProductionLogger) logEvent(level, msg string, fields map[string]interface{}) {
	timestamp := time.Now().Format(time.RFC3339)

	if p.format == "json" {
		logEntry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"service":   p.serviceName,
			"component": p.component,
			"message":   msg,
		}
		for k, v := range fields {
			logEntry[k] = v
		}
		if data, err := json.Marshal(logEntry); err == nil {
			fmt.Fprintln(p.output, string(data))
		}
		return
	}

	var fieldStr strings.Builder
	if len(fields) > 0 {
		fieldStr.WriteString(" ")
		for k, v := range fields {
			fieldStr.WriteString(fmt.Sprintf("%s=%v ", k, v))
		}
	}
	fmt.Fprintf(p.output, "%s [%s] [%s] %s%s\n",
		timestamp, level, p.serviceName, msg, fieldStr.String())
}
