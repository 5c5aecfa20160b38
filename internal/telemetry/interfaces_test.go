package telemetry

import (
	"bytes"
	"log"
	"testing"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func TestCounters(t *testing.T) {
	counters := NewCounters()

	counters.Add("paths_requested", 2)
	counters.Store("paths_requested", 5)
	counters.Add("paths_requested", 3)

	snapshot := counters.Snapshot()
	if got := snapshot["paths_requested"]; got != 8 {
		t.Fatalf("unexpected counter value: %d", got)
	}

	snapshot["paths_requested"] = 99
	if counters.Snapshot()["paths_requested"] != 8 {
		t.Fatalf("snapshot aliases counter storage")
	}

	// Nil receivers must not panic.
	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	nilCounters.Store("ignored", 1)
	if nilCounters.Snapshot() != nil {
		t.Fatalf("nil snapshot should be nil")
	}
}
