package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"drift-and-delve/server/logging"
)

func TestConsoleSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})

	err := sink.Write(logging.Event{
		Type:     "navigation.path_failed",
		Tick:     42,
		Actor:    logging.EntityRef{ID: "agent-3", Kind: logging.EntityKindAgent},
		Targets:  []logging.EntityRef{{ID: "client-1", Kind: logging.EntityKindClient}},
		Severity: logging.SeverityWarn,
		Payload:  map[string]any{"reason": "window"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	line := buf.String()
	for _, want := range []string{
		"[navigation.path_failed]",
		"tick=42",
		"actor=agent:agent-3",
		"severity=warn",
		"targets=client:client-1",
		`payload={"reason":"window"}`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("console line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("color codes emitted without UseColor: %q", line)
	}
}

func TestConsoleSinkColor(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{UseColor: true})

	if err := sink.Write(logging.Event{Type: "x", Severity: logging.SeverityError}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[31merror\x1b[0m") {
		t.Fatalf("expected red severity, got %q", buf.String())
	}
}

func TestJSONSinkWireShape(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	event := logging.Event{
		Type:     "lifecycle.agent_spawned",
		Tick:     7,
		Time:     time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		Actor:    logging.EntityRef{ID: "agent-1", Kind: logging.EntityKindAgent},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		TraceID:  "trace-9",
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(buf.Bytes(), &wire); err != nil {
		t.Fatalf("sink output is not one JSON document: %v (%q)", err, buf.String())
	}
	if wire["type"] != "lifecycle.agent_spawned" || wire["tick"] != float64(7) {
		t.Fatalf("wire header wrong: %+v", wire)
	}
	if wire["time"] != "2025-03-14T09:26:53Z" {
		t.Fatalf("time encoding wrong: %v", wire["time"])
	}
	if wire["traceId"] != "trace-9" {
		t.Fatalf("traceId missing: %+v", wire)
	}
	actor, ok := wire["actor"].(map[string]any)
	if !ok || actor["id"] != "agent-1" || actor["kind"] != "agent" {
		t.Fatalf("actor encoding wrong: %+v", wire["actor"])
	}
}

func TestJSONSinkCloseStopsFlusher(t *testing.T) {
	sink := NewJSON(&bytes.Buffer{}, 10*time.Millisecond)
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	// The second close must not panic on the stop channel.
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestMemorySinkCopiesEvents(t *testing.T) {
	sink := NewMemorySink()
	extra := map[string]any{"k": "v"}
	if err := sink.Write(logging.Event{Type: "x", Extra: extra}); err != nil {
		t.Fatalf("write: %v", err)
	}
	extra["k"] = "mutated"

	events := sink.Events()
	if len(events) != 1 || events[0].Extra["k"] != "v" {
		t.Fatalf("stored event aliases caller map: %+v", events)
	}

	events[0].Type = "tampered"
	if sink.Events()[0].Type != "x" {
		t.Fatalf("Events() returned aliased storage")
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatalf("reset did not clear events")
	}
}
