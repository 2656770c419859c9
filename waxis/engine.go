package waxis

import (
	"context"
	"fmt"

	"github.com/hznxin/tripmind/ai"
	"github.com/hznxin/tripmind/core"
)

// Engine computes the W-axis enrichment for a request's candidate set:
// rule tensions for every candidate, plus one reasoning-service call per
// candidate through a bounded fan-out when a client is configured.
type Engine struct {
	client    core.AIClient
	cfg       core.WAxisConfig
	logger    core.Logger
	telemetry core.Telemetry
}

// NewEngine creates the enrichment engine. A nil client means rule-only
// operation with zero network traffic.
func NewEngine(client core.AIClient, cfg core.WAxisConfig, logger core.Logger, telemetry core.Telemetry) *Engine {
	if logger == nil {
		logger = &core.NoOpLogger{}
	} else if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("planner/waxis")
	}
	if telemetry == nil {
		telemetry = &core.NoOpTelemetry{}
	}
	return &Engine{client: client, cfg: cfg, logger: logger, telemetry: telemetry}
}

// Task describes one candidate to enrich.
type Task struct {
	Current    core.POI
	Candidate  core.POI
	Region     string
	VisitCount int
	HourOfDay  int
	Weather    string
	Famous     bool
}

// Result is the enrichment of one candidate, in task order.
type Result struct {
	Tensions core.Tensions
	SSem     float64
	CCausal  float64
	Absent   bool // reasoning unavailable; CCausal is the rule fallback
	FWC      float64
}

// Enrich computes tensions and causal scores for all tasks, rejoining the
// fan-out by original index. The returned note is non-nil when any
// candidate fell back to rule-only reasoning.
func (e *Engine) Enrich(ctx context.Context, tasks []Task) ([]Result, *core.DegradationNote) {
	ctx, span := e.telemetry.StartSpan(ctx, "waxis.enrich")
	defer span.End()
	span.SetAttribute("candidates", len(tasks))

	results := make([]Result, len(tasks))
	for i, t := range tasks {
		tensions := ComputeTensions(TensionInput{
			Current:    t.Current,
			Candidate:  t.Candidate,
			Region:     t.Region,
			VisitCount: t.VisitCount,
			HourOfDay:  t.HourOfDay,
			Famous:     t.Famous,
		})
		results[i] = Result{Tensions: tensions, SSem: SemanticScore(tensions)}
	}

	scalars, oks := e.reason(ctx, tasks)

	absent := 0
	for i := range results {
		if oks != nil && oks[i] {
			results[i].CCausal = scalars[i]
		} else {
			results[i].CCausal = RuleCausal(results[i].Tensions)
			results[i].Absent = true
			absent++
		}
		results[i].FWC = Compose(e.cfg.Delta, e.cfg.Epsilon, results[i].SSem, results[i].CCausal)
	}

	e.telemetry.RecordMetric("waxis.reasoning.absent", float64(absent), map[string]string{
		"total": fmt.Sprintf("%d", len(tasks)),
	})

	if absent == 0 {
		return results, nil
	}
	reason := "reasoning unavailable for all candidates"
	if absent < len(results) {
		reason = fmt.Sprintf("reasoning unavailable for %d/%d candidates", absent, len(results))
	}
	return results, &core.DegradationNote{Stage: "reasoning", Reason: reason}
}

// reason fans the reasoning calls out over the bounded worker pool.
// Returns nil oks when no client is configured. After cancellation,
// partial results are kept only when at least half of the fan-out
// arrived; below that the whole batch degrades to rule-only.
func (e *Engine) reason(ctx context.Context, tasks []Task) ([]float64, []bool) {
	if e.client == nil || len(tasks) == 0 {
		return nil, nil
	}

	scalars, oks := FanOut(ctx, len(tasks), e.cfg.Concurrency, func(ctx context.Context, i int) (float64, bool) {
		return e.rateOne(ctx, tasks[i])
	})

	if ctx.Err() != nil {
		received := 0
		for _, ok := range oks {
			if ok {
				received++
			}
		}
		if received*2 < len(tasks) {
			e.logger.Warn("Reasoning fan-out cancelled below majority, dropping partial results", map[string]interface{}{
				"received": received,
				"total":    len(tasks),
			})
			return nil, nil
		}
	}

	return scalars, oks
}

// rateOne performs a single reasoning call with the per-call timeout and
// parses the scalar. Any failure reports absent.
func (e *Engine) rateOne(ctx context.Context, t Task) (float64, bool) {
	callCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	resp, err := e.client.GenerateResponse(callCtx, e.buildPrompt(t), &core.AIOptions{
		Temperature: 0.5,
		MaxTokens:   10,
	})
	if err != nil {
		e.logger.Debug("Reasoning call failed", map[string]interface{}{
			"candidate": t.Candidate.ID,
			"error":     err.Error(),
		})
		return 0, false
	}

	scalar, ok := ai.ParseScalar(resp.Content)
	if !ok {
		e.logger.Debug("Reasoning response had no parsable scalar", map[string]interface{}{
			"candidate": t.Candidate.ID,
			"content":   resp.Content,
		})
		return 0, false
	}
	return scalar, true
}

// buildPrompt states the decision context and asks for a single 0-1
// scalar.
func (e *Engine) buildPrompt(t Task) string {
	weather := t.Weather
	if weather == "" {
		weather = "晴天"
	}
	return fmt.Sprintf(`评估旅行决策合理性（0-1分）：

当前：%s
候选：%s（%s区域）
时间：%d点 | 天气：%s
该区域已访问：%d次

评估要点：
1. 区域重复：首次+0.3，第2次-0.25，第3次-0.4
2. 时间合理：中午餐厅+0.4，其他时段餐厅-0.2
3. 天气适配：雨天室内+0.2，雨天户外-0.3
4. 景点知名度：知名景点+0.15
5. 类型连续：重复类型-0.15

只返回一个0-1之间的数字（如0.85），不要解释。`,
		t.Current.Name, t.Candidate.Name, t.Region, t.HourOfDay, weather, t.VisitCount)
}
