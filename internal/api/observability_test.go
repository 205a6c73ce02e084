package api

import (
	"net/http/httptest"
	"strings"
	"testing"

	"quidditch/internal/match"
	"quidditch/internal/sim"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordEvent tests event counters by type
func TestRecordEvent(t *testing.T) {
	goalsBefore := testutil.ToFloat64(goalsTotal.WithLabelValues("away"))
	possessionBefore := testutil.ToFloat64(possessionChanges)
	tacklesBefore := testutil.ToFloat64(matchEvents.WithLabelValues("tackle"))

	RecordEvent(match.NewEvent(match.EventTypeGoal, 1, sim.NoPlayer, match.GoalPayload{Side: "away", AwayScore: 10}))
	RecordEvent(match.NewEvent(match.EventTypePickup, 2, 3, nil))
	RecordEvent(match.NewEvent(match.EventTypeSteal, 3, 1, nil))
	RecordEvent(match.NewEvent(match.EventTypeTackle, 4, 1, nil))

	if got := testutil.ToFloat64(goalsTotal.WithLabelValues("away")) - goalsBefore; got != 1 {
		t.Errorf("Expected 1 away goal, got %v", got)
	}
	if got := testutil.ToFloat64(possessionChanges) - possessionBefore; got != 2 {
		t.Errorf("Expected 2 possession changes, got %v", got)
	}
	if got := testutil.ToFloat64(matchEvents.WithLabelValues("tackle")) - tacklesBefore; got != 1 {
		t.Errorf("Expected 1 tackle, got %v", got)
	}
}

// TestUpdateEventLogStats tests the event log gauges
func TestUpdateEventLogStats(t *testing.T) {
	UpdateEventLogStats(match.LogStats{Total: 12, Dropped: 3})

	if got := testutil.ToFloat64(eventLogTotal); got != 12 {
		t.Errorf("Expected 12, got %v", got)
	}
	if got := testutil.ToFloat64(eventLogDropped); got != 3 {
		t.Errorf("Expected 3, got %v", got)
	}
}

// TestDebugHandler tests metrics exposure and basic auth
func TestDebugHandler(t *testing.T) {
	RecordTick(1)

	rec := httptest.NewRecorder()
	DebugHandler(ObservabilityConfig{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "match_tick_duration_seconds") {
		t.Error("Expected tick histogram in /metrics")
	}

	guarded := DebugHandler(ObservabilityConfig{BasicAuthUser: "ops", BasicAuthPass: "secret"})

	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 401 {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

// TestRequestMetricsUseRoutePattern tests endpoint labels stay bounded
func TestRequestMetricsUseRoutePattern(t *testing.T) {
	router := newTestRouter(newStubSession())
	before := testutil.ToFloat64(requestTotal.WithLabelValues("GET", "/api/state", "OK"))

	do(t, router, "GET", "/api/state", "")
	do(t, router, "GET", "/api/state?x=1", "")

	if got := testutil.ToFloat64(requestTotal.WithLabelValues("GET", "/api/state", "OK")) - before; got != 2 {
		t.Errorf("Expected 2 requests on the pattern, got %v", got)
	}
}
