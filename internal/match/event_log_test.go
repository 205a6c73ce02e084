package match

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quidditch/internal/sim"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// TestEmitBeforeStart tests that a stopped log rejects events
func TestEmitBeforeStart(t *testing.T) {
	el := NewEventLog()
	if el.EmitSimple(EventTypeGoal, 1, sim.NoPlayer, nil) {
		t.Error("Expected emit to fail before Start")
	}
	el.Stop()
	el.Stop()
}

// TestEventLogWritesJSONL tests the async writer output
func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		payload := GoalPayload{Side: "home", HomeScore: 10 * (i + 1)}
		if !el.EmitSimple(EventTypeGoal, uint64(i), sim.NoPlayer, payload) {
			t.Fatalf("Emit %d rejected", i)
		}
	}
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d", len(lines))
	}

	var lastSeq uint64
	for i, line := range lines {
		if !strings.Contains(line, `"type":"goal"`) {
			t.Errorf("Line %d: expected named type, got %s", i, line)
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("Line %d: %v", i, err)
		}
		if e.Type != EventTypeGoal {
			t.Errorf("Line %d: expected goal, got %v", i, e.Type)
		}
		if _, err := ulid.Parse(e.ID); err != nil {
			t.Errorf("Line %d: bad ULID %q: %v", i, e.ID, err)
		}
		if e.Sequence <= lastSeq {
			t.Errorf("Line %d: sequence %d not increasing", i, e.Sequence)
		}
		lastSeq = e.Sequence
	}

	stats := el.Stats()
	if stats.Written != 5 || stats.Pending != 0 || stats.Running {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

// TestPerPlayerRateLimit tests that one player cannot flood the log
func TestPerPlayerRateLimit(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer el.Stop()

	accepted := 0
	for i := 0; i < 60; i++ {
		if el.EmitSimple(EventTypeTackle, uint64(i), 2, nil) {
			accepted++
		}
	}

	if accepted >= 60 {
		t.Error("Expected some tackles to be rate limited")
	}
	if el.Stats().Dropped == 0 {
		t.Error("Expected dropped count to grow")
	}
	if !el.EmitSimple(EventTypeTackle, 61, 3, nil) {
		t.Error("Another player should have its own budget")
	}
}

// TestRecentKeepsNewest tests the ring buffer view
func TestRecentKeepsNewest(t *testing.T) {
	el := NewEventLog()
	el.globalLimiter = rate.NewLimiter(rate.Inf, 0)
	if err := el.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer el.Stop()

	total := EventBufferSize + 100
	for i := 1; i <= total; i++ {
		el.EmitSimple(EventTypeTick, uint64(i), sim.NoPlayer, nil)
	}

	recent := el.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(recent))
	}
	for i, e := range recent {
		if want := uint64(total - 2 + i); e.TickNum != want {
			t.Errorf("Expected tick %d, got %d", want, e.TickNum)
		}
	}

	if got := len(el.Recent(5000)); got != EventBufferSize {
		t.Errorf("Expected Recent capped at %d, got %d", EventBufferSize, got)
	}
}

// TestEventTypeString tests event type names
func TestEventTypeString(t *testing.T) {
	tests := []struct {
		kind     sim.EventKind
		expected string
	}{
		{sim.EventPickup, "pickup"},
		{sim.EventSteal, "steal"},
		{sim.EventTackle, "tackle"},
		{sim.EventPass, "pass"},
		{sim.EventThrow, "throw"},
		{sim.EventOutOfBounds, "out_of_bounds"},
		{sim.EventLanded, "landed"},
		{sim.EventControl, "control"},
	}

	for _, tt := range tests {
		if got := fromSim(tt.kind).String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Expected sim name %s, got %s", tt.expected, got)
		}
	}
}
