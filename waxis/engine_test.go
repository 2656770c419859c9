package waxis

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hznxin/tripmind/ai"
	"github.com/hznxin/tripmind/core"
)

func testEngineConfig() core.WAxisConfig {
	return core.WAxisConfig{Delta: 0.1, Epsilon: 0.1, Concurrency: 10, Timeout: time.Second}
}

func engineTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{
			Current:    core.POI{ID: "cur", Name: "苏州站", Category: core.CategoryTransportHub},
			Candidate:  core.POI{ID: "cand", Name: "拙政园", Category: core.CategoryAttraction},
			Region:     "姑苏",
			VisitCount: 0,
			HourOfDay:  10,
			Famous:     true,
		}
	}
	return tasks
}

func TestEnrichRuleOnlyWithoutClient(t *testing.T) {
	engine := NewEngine(nil, testEngineConfig(), nil, nil)

	results, note := engine.Enrich(context.Background(), engineTasks(3))
	if note == nil || note.Stage != "reasoning" {
		t.Fatalf("expected a reasoning degradation note, got %+v", note)
	}
	for i, r := range results {
		if !r.Absent {
			t.Errorf("result %d not marked absent", i)
		}
		if want := RuleCausal(r.Tensions); r.CCausal != want {
			t.Errorf("result %d causal = %v, want rule fallback %v", i, r.CCausal, want)
		}
		if math.Abs(r.FWC) >= 0.5 {
			t.Errorf("result %d |F_wc| = %v, want < 0.5", i, math.Abs(r.FWC))
		}
	}
}

func TestEnrichUsesReasoningScalar(t *testing.T) {
	client := &ai.MockClient{Respond: func(prompt string) (string, error) {
		if !strings.Contains(prompt, "拙政园") {
			t.Errorf("prompt missing candidate name: %q", prompt)
		}
		return "0.85", nil
	}}
	engine := NewEngine(client, testEngineConfig(), nil, nil)

	results, note := engine.Enrich(context.Background(), engineTasks(4))
	if note != nil {
		t.Fatalf("unexpected degradation note: %+v", note)
	}
	for i, r := range results {
		if r.Absent {
			t.Errorf("result %d marked absent", i)
		}
		if r.CCausal != 0.85 {
			t.Errorf("result %d causal = %v, want 0.85", i, r.CCausal)
		}
	}
	if client.Calls() != 4 {
		t.Errorf("client calls = %d, want one per candidate", client.Calls())
	}
}

func TestEnrichClampsOutOfRangeScalar(t *testing.T) {
	// The service occasionally returns a bare int "1"; clamp, don't
	// reject.
	client := &ai.MockClient{Respond: func(string) (string, error) { return "1", nil }}
	engine := NewEngine(client, testEngineConfig(), nil, nil)

	results, _ := engine.Enrich(context.Background(), engineTasks(1))
	if results[0].CCausal != 1.0 || results[0].Absent {
		t.Errorf("causal = %v absent=%v, want 1.0 present", results[0].CCausal, results[0].Absent)
	}
}

func TestEnrichUnparsableFallsBack(t *testing.T) {
	client := &ai.MockClient{Respond: func(string) (string, error) { return "说不好", nil }}
	engine := NewEngine(client, testEngineConfig(), nil, nil)

	results, note := engine.Enrich(context.Background(), engineTasks(2))
	if note == nil {
		t.Fatal("expected degradation note for unparsable responses")
	}
	for i, r := range results {
		if !r.Absent {
			t.Errorf("result %d should be absent", i)
		}
	}
}

func TestEnrichPartialFailure(t *testing.T) {
	var n int
	client := &ai.MockClient{Respond: func(string) (string, error) {
		n++
		if n%2 == 0 {
			return "", core.ErrServiceUnavailable
		}
		return "0.7", nil
	}}
	cfg := testEngineConfig()
	cfg.Concurrency = 1 // serialize so the alternation is deterministic
	engine := NewEngine(client, cfg, nil, nil)

	results, note := engine.Enrich(context.Background(), engineTasks(4))
	if note == nil || !strings.Contains(note.Reason, "2/4") {
		t.Fatalf("note = %+v, want 2/4 partial fallback", note)
	}

	present, absent := 0, 0
	for _, r := range results {
		if r.Absent {
			absent++
		} else {
			present++
		}
	}
	if present != 2 || absent != 2 {
		t.Errorf("present=%d absent=%d, want 2/2", present, absent)
	}
}

func TestEnrichCancelledBelowMajorityDropsPartials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled: nothing dispatches, zero received

	client := &ai.MockClient{Respond: func(string) (string, error) { return "0.9", nil }}
	engine := NewEngine(client, testEngineConfig(), nil, nil)

	results, note := engine.Enrich(ctx, engineTasks(5))
	if note == nil {
		t.Fatal("expected degradation note after cancellation")
	}
	for i, r := range results {
		if !r.Absent {
			t.Errorf("result %d kept a partial below majority", i)
		}
	}
}

func TestEnrichEmptyTasks(t *testing.T) {
	engine := NewEngine(nil, testEngineConfig(), nil, nil)
	results, note := engine.Enrich(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
	if note != nil {
		t.Errorf("unexpected note for empty input: %+v", note)
	}
}
