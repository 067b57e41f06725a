package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
)

func TestLoggerEmitPopulatesRequiredFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "run-123")
	if err != nil {
		t.Fatalf("unexpected error constructing logger: %v", err)
	}

	err = logger.Emit(Entry{
		Category: CategoryCompose,
		Severity: SeverityInfo,
		Message:  "resolving defaults",
		Stage:    "resolve",
	})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	required := []string{"timestamp", "category", "message", "severity"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected key %q in payload: %v", key, payload)
		}
	}

	if payload["category"] != string(CategoryCompose) {
		t.Fatalf("expected category %q, got %v", CategoryCompose, payload["category"])
	}

	if payload["runId"] != "run-123" {
		t.Fatalf("expected runId to be propagated, got %v", payload["runId"])
	}

	if payload["stage"] != "resolve" {
		t.Fatalf("expected stage to be preserved, got %v", payload["stage"])
	}
}

func TestLoggerEmitEscalatesSeverityOnError(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "run-123")
	if err != nil {
		t.Fatalf("unexpected error constructing logger: %v", err)
	}

	err = logger.Emit(Entry{
		Category: CategoryFragment,
		Message:  "fragment loaded",
		Severity: SeverityInfo,
		Fragment: "policy/act",
		Error:    errors.New("boom"),
	})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if payload["severity"] != string(SeverityError) {
		t.Fatalf("expected severity escalated to error, got %v", payload["severity"])
	}

	metadata, ok := payload["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("expected metadata map, got %T", payload["metadata"])
	}

	if metadata["error"] != "boom" {
		t.Fatalf("expected error metadata to be captured, got %v", metadata["error"])
	}

	if payload["fragment"] != "policy/act" {
		t.Fatalf("expected fragment preserved, got %v", payload["fragment"])
	}
}

func TestLoggerRequiresRunID(t *testing.T) {
	_, err := NewLogger(io.Discard, "")
	if err == nil {
		t.Fatalf("expected error when run ID missing")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	if err := (NopLogger{}).Emit(Entry{Message: "ignored"}); err != nil {
		t.Fatalf("nop logger must not fail: %v", err)
	}
}
