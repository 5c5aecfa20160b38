package logging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *captureSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close(context.Context) error { return nil }

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func closeRouter(t *testing.T, r *Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("router close: %v", err)
	}
}

func TestRouterDeliversToSinks(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	sink := &captureSink{}
	router, err := NewRouter(ClockFunc(func() time.Time { return now }), Config{
		Fields: map[string]any{"node": "test-1"},
	}, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	for i := 0; i < 5; i++ {
		router.Publish(context.Background(), Event{
			Type:     "navigation.path_computed",
			Tick:     uint64(i),
			Actor:    EntityRef{ID: "agent-1", Kind: EntityKindAgent},
			Severity: SeverityInfo,
		})
	}
	closeRouter(t, router)

	events := sink.snapshot()
	if len(events) != 5 {
		t.Fatalf("delivered %d events, want 5", len(events))
	}
	for i, event := range events {
		if event.Tick != uint64(i) {
			t.Fatalf("event %d out of order: tick=%d", i, event.Tick)
		}
		if !event.Time.Equal(now) {
			t.Fatalf("event time not stamped from clock: %v", event.Time)
		}
		if event.Extra["node"] != "test-1" {
			t.Fatalf("router fields missing: %+v", event.Extra)
		}
	}
	if stats := router.Stats(); stats.EventsTotal != 5 || stats.DroppedTotal != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(nil, Config{MinimumSeverity: SeverityInfo}, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "navigation.agent_stalled", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "lifecycle.agent_spawned", Severity: SeverityInfo})
	closeRouter(t, router)

	events := sink.snapshot()
	if len(events) != 1 || events[0].Type != "lifecycle.agent_spawned" {
		t.Fatalf("filter failed, delivered %+v", events)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("filtered events must not count, stats = %+v", stats)
	}
}

func TestRouterIgnoresUntypedAndPostCloseEvents(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(nil, Config{}, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), Event{Severity: SeverityError})
	closeRouter(t, router)
	router.Publish(context.Background(), Event{Type: "lifecycle.agent_spawned", Severity: SeverityInfo})

	if events := sink.snapshot(); len(events) != 0 {
		t.Fatalf("unexpected deliveries: %+v", events)
	}
}

func TestRouterSinkLookup(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(nil, Config{}, []NamedSink{
		{Name: "capture", Sink: sink},
		{Name: "missing", Sink: nil},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	defer closeRouter(t, router)

	if got := router.Sink("capture"); got != Sink(sink) {
		t.Fatalf("Sink lookup returned %v", got)
	}
	if got := router.Sink("missing"); got != nil {
		t.Fatalf("nil sinks must not register, got %v", got)
	}
}

func TestWithFieldsDoesNotOverrideEventValues(t *testing.T) {
	var got Event
	pub := WithFields(PublisherFunc(func(_ context.Context, event Event) {
		got = event
	}), map[string]any{"node": "test-1", "region": "eu"})

	pub.Publish(context.Background(), Event{
		Type:  "network.client_connected",
		Extra: map[string]any{"node": "explicit"},
	})

	if got.Extra["node"] != "explicit" {
		t.Fatalf("explicit extra overwritten: %+v", got.Extra)
	}
	if got.Extra["region"] != "eu" {
		t.Fatalf("decorator field missing: %+v", got.Extra)
	}

	if WithFields(nil, map[string]any{"a": 1}) == nil {
		t.Fatalf("nil publisher should decay to nop, not nil")
	}
}

func TestCloneEventIsolatesCallerData(t *testing.T) {
	targets := []EntityRef{{ID: "agent-2", Kind: EntityKindAgent}}
	extra := map[string]any{"k": "v"}
	original := Event{Type: "x", Targets: targets, Extra: extra}

	cloned := cloneEvent(original)
	targets[0].ID = "mutated"
	extra["k"] = "mutated"

	if cloned.Targets[0].ID != "agent-2" || cloned.Extra["k"] != "v" {
		t.Fatalf("clone aliases caller data: %+v", cloned)
	}
}

func TestRouterSurvivesFailingSink(t *testing.T) {
	failing := &captureSink{err: errors.New("disk full")}
	healthy := &captureSink{}
	router, err := NewRouter(nil, Config{}, []NamedSink{
		{Name: "failing", Sink: failing},
		{Name: "healthy", Sink: healthy},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "lifecycle.agent_spawned", Severity: SeverityInfo})
	closeRouter(t, router)

	if events := healthy.snapshot(); len(events) != 1 {
		t.Fatalf("healthy sink starved by failing sibling: %+v", events)
	}
}
