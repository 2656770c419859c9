package telemetry

import (
	"context"
	"testing"
)

func TestNewProviderRequiresServiceName(t *testing.T) {
	if _, err := NewProvider(""); err == nil {
		t.Fatal("expected error for empty service name")
	}
}

func TestProviderSpanLifecycle(t *testing.T) {
	provider, err := NewProvider("tripmind-test")
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	defer provider.Shutdown(context.Background())

	ctx, span := provider.StartSpan(context.Background(), "pipeline.next_options")
	if ctx == nil {
		t.Fatal("StartSpan returned nil context")
	}
	span.SetAttribute("k", 3)
	span.SetAttribute("session_id", "abc")
	span.SetAttribute("score", 0.7)
	span.SetAttribute("flag", true)
	span.End()
}

func TestProviderMetricsAccumulate(t *testing.T) {
	provider, err := NewProvider("tripmind-test")
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	defer provider.Shutdown(context.Background())

	provider.RecordMetric("waxis.reasoning.absent", 2, nil)
	provider.RecordMetric("waxis.reasoning.absent", 3, map[string]string{"total": "5"})

	snap := provider.Snapshot()
	if snap["waxis.reasoning.absent"] != 5 {
		t.Errorf("accumulated = %v, want 5", snap["waxis.reasoning.absent"])
	}
}

func TestProviderShutdownIdempotent(t *testing.T) {
	provider, err := NewProvider("tripmind-test")
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("first Shutdown() failed: %v", err)
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() failed: %v", err)
	}
}
