// Package explain turns ranked candidates into short conversational
// rationales. The voice is a travel companion, not a scoring report: it
// references time, distance and fatigue, concedes tensions when they
// conflict, questions its own first pick when a region is saturated, and
// argues for the runner-up.
//
// With a generative client the text is produced by rank-aware prompting;
// without one (or on any per-candidate failure) deterministic rule
// templates take over, so the layer works with zero network traffic.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/hznxin/tripmind/core"
	"github.com/hznxin/tripmind/waxis"
)

// Layer generates per-candidate explanations for the top of a shortlist.
type Layer struct {
	client    core.AIClient
	cfg       core.ExplainConfig
	logger    core.Logger
	telemetry core.Telemetry
}

// NewLayer creates the explanation layer. A nil client selects the
// template-only mode.
func NewLayer(client core.AIClient, cfg core.ExplainConfig, logger core.Logger, telemetry core.Telemetry) *Layer {
	if logger == nil {
		logger = &core.NoOpLogger{}
	} else if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("planner/explain")
	}
	if telemetry == nil {
		telemetry = &core.NoOpTelemetry{}
	}
	return &Layer{client: client, cfg: cfg, logger: logger, telemetry: telemetry}
}

// Request carries the session context shared by all candidates of one
// call.
type Request struct {
	TimeLabel string // clock label, e.g. "10:30"
	HourOfDay int
	Weather   string
}

// Annotate fills Explanation on each option in place. Options must
// already be ranked (Rank set, best first) and carry WAxis details. The
// returned note is non-nil whenever rule templates were used: always when
// no client is configured, and otherwise when any generative call failed.
func (l *Layer) Annotate(ctx context.Context, options []core.CandidateOption, req Request) *core.DegradationNote {
	if len(options) == 0 || !l.cfg.Enabled {
		return nil
	}

	ctx, span := l.telemetry.StartSpan(ctx, "explain.annotate")
	defer span.End()
	span.SetAttribute("candidates", len(options))

	if l.client == nil {
		for i := range options {
			options[i].Explanation = l.fallback(&options[i], options, req)
		}
		return &core.DegradationNote{Stage: "explanation", Reason: "generative service disabled, rule templates used"}
	}

	texts, oks := waxis.FanOut(ctx, len(options), l.cfg.Concurrency, func(ctx context.Context, i int) (string, bool) {
		return l.generateOne(ctx, &options[i], options, req)
	})

	failed := 0
	for i := range options {
		if oks[i] && texts[i] != "" {
			options[i].Explanation = texts[i]
		} else {
			options[i].Explanation = l.fallback(&options[i], options, req)
			failed++
		}
	}

	if failed == 0 {
		return nil
	}
	return &core.DegradationNote{
		Stage:  "explanation",
		Reason: fmt.Sprintf("generative service failed for %d/%d candidates, rule templates used", failed, len(options)),
	}
}

// generateOne runs a single generative call with the per-candidate
// timeout.
func (l *Layer) generateOne(ctx context.Context, opt *core.CandidateOption, shortlist []core.CandidateOption, req Request) (string, bool) {
	callCtx := ctx
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	resp, err := l.client.GenerateResponse(callCtx, l.buildPrompt(opt, shortlist, req), &core.AIOptions{
		Temperature: 0.8,
		MaxTokens:   60,
	})
	if err != nil {
		l.logger.Debug("Explanation call failed", map[string]interface{}{
			"candidate": opt.POI.ID,
			"rank":      opt.Rank,
			"error":     err.Error(),
		})
		return "", false
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", false
	}
	return text, true
}

// buildPrompt selects the rank-aware strategy. The first-rank prompt in a
// saturated region must question the pick and may name a less-visited
// alternative; rank two argues what the leader lacks; everything else
// explains, conceding when the tensions conflict.
func (l *Layer) buildPrompt(opt *core.CandidateOption, shortlist []core.CandidateOption, req Request) string {
	w := opt.WAxis
	region, visits := regionOf(opt)

	transport := "步行"
	transportMin := 10
	if len(opt.Edges) > 0 {
		transport = modeLabel(opt.Edges[0].Mode)
		transportMin = int(opt.Edges[0].TimeHours * 60)
	}

	if opt.Rank == 1 && visits >= 2 {
		alt := lessVisitedAlternative(opt, shortlist)
		return fmt.Sprintf(`你是旅行伙伴。系统把%s（%s区域）排在了第一，但这个区域已经去过%d次了。
请质疑这个选择：用一句反问提醒重复，并建议考虑%s那边。1-2句话，30-40字，口语化。
直接输出，不要前缀。`, opt.POI.Name, region, visits, alt)
	}

	if opt.Rank == 2 {
		return fmt.Sprintf(`你是旅行伙伴。%s（%s区域）排在第二。请替它说句话：强调第一名缺少的东西（新鲜感、更近、或者省力气）。
1-2句话，30-40字，口语化。直接输出，不要前缀。`, opt.POI.Name, region)
	}

	var tensionBlock string
	if w != nil {
		tensionBlock = fmt.Sprintf(`核心张力（决定你的语气）：
- 新鲜感张力：%.1f（%s）
- 体力张力：%.1f（%s）
- 连续性张力：%.1f（%s）
- 冲突度：%.1f（%s）`,
			w.Tensions.Novelty, signLabel(w.Tensions.Novelty, "想去新地方", "重复区域"),
			w.Tensions.Energy, signLabel(w.Tensions.Energy, "精力充沛", "有点累了"),
			w.Tensions.Continuity, signLabel(w.Tensions.Continuity, "体验丰富", "重复类型"),
			w.Tensions.Conflict, conflictLabel(w.Tensions.Conflict))
	}

	return fmt.Sprintf(`你是旅行伙伴，用朋友的口吻解释为什么选择这个地方。呈现"犹豫"，不要总是完美合理。

地点：%s
区域：%s（%s）
时间：%s | 天气：%s
交通：%s %d分钟

%s

要求（必须遵守）：
1. 如果冲突度>0.3，必须呈现矛盾："虽然...但是..."或"一方面...一方面..."
2. 如果冲突度<0.3，可以单一理由，但不要太肯定，用"我觉得"、"可能"
3. 不要说"正好"、"刚好"、"正合适"
4. 允许犹豫："不知道是不是..."、"要不..."、"也行"
5. 1-2句话，30-40字

直接输出解释，不要任何前缀。`,
		opt.POI.Name, region, visitLabel(visits), req.TimeLabel, weatherOr(req.Weather),
		transport, transportMin, tensionBlock)
}

func regionOf(opt *core.CandidateOption) (string, int) {
	if opt.WAxis != nil {
		return opt.WAxis.Region, opt.WAxis.VisitCount
	}
	return "其他", 0
}

// lessVisitedAlternative finds a shortlist entry in a region with fewer
// visits than the given option's, preferring the highest-ranked one.
func lessVisitedAlternative(opt *core.CandidateOption, shortlist []core.CandidateOption) string {
	_, visits := regionOf(opt)
	for i := range shortlist {
		if shortlist[i].POI.ID == opt.POI.ID {
			continue
		}
		altRegion, altVisits := regionOf(&shortlist[i])
		if altVisits < visits {
			return altRegion
		}
	}
	return "别的区域"
}

func signLabel(v float64, pos, neg string) string {
	if v > 0 {
		return pos
	}
	return neg
}

func conflictLabel(v float64) string {
	if v > 1.0/3 {
		return "矛盾明显"
	}
	return "比较一致"
}

func visitLabel(visits int) string {
	if visits > 0 {
		return fmt.Sprintf("第%d次", visits+1)
	}
	return "首次"
}

func weatherOr(w string) string {
	if w == "" {
		return "晴天"
	}
	return w
}

func modeLabel(mode core.TransportMode) string {
	switch mode {
	case core.ModeWalk:
		return "步行"
	case core.ModeTaxi:
		return "打车"
	case core.ModeBus:
		return "公交"
	case core.ModeSubway:
		return "地铁"
	default:
		return string(mode)
	}
}
