package spectator

import (
	"strings"
	"testing"

	"quidditch/internal/config"
	"quidditch/internal/match"
	"quidditch/internal/sim"

	"github.com/gdamore/tcell/v2"
)

func newTestScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func rowText(s tcell.Screen, y, w int) string {
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func testSnapshot() *match.Snapshot {
	return &match.Snapshot{
		Tick:  7,
		Phase: match.PhasePlaying,
		Home:  match.SideSnapshot{Team: sim.Gryffindor, Name: "Gryffindor", Score: 10},
		Away:  match.SideSnapshot{Team: sim.Slytherin, Name: "Slytherin", Score: 20},
		Players: []match.PlayerSnapshot{
			{ID: 0, Team: sim.Gryffindor, X: 100, Z: 200, Controllable: true, UserControlled: true},
			{ID: 3, Team: sim.Slytherin, X: 100, Z: -200, Controllable: false},
		},
		Ball: match.BallSnapshot{X: 0, Z: 0},
	}
}

// TestViewDrawsPlayers tests player glyphs and styles
func TestViewDrawsPlayers(t *testing.T) {
	s := newTestScreen(t, 80, 40)
	v := NewView(config.DefaultField(), sim.DefaultCatalog())
	v.Draw(s, testSnapshot())

	g := v.grid(80, 40)

	x, y := g.cell(100, 200)
	r, _, style, _ := s.GetContent(x, y)
	if r != '0' {
		t.Errorf("Expected user glyph '0', got %q", r)
	}
	fg, _, attrs := style.Decompose()
	if attrs&tcell.AttrReverse == 0 {
		t.Error("Expected user player in reverse video")
	}
	if fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("Expected Gryffindor red, got %v", fg)
	}

	x, y = g.cell(100, -200)
	r, _, style, _ = s.GetContent(x, y)
	if r != '3' {
		t.Errorf("Expected glyph '3', got %q", r)
	}
	if _, _, attrs := style.Decompose(); attrs&tcell.AttrDim == 0 {
		t.Error("Expected fallen player dimmed")
	}

	x, y = g.cell(0, 0)
	if r, _, _, _ := s.GetContent(x, y); r != ballRune {
		t.Errorf("Expected ball at centre, got %q", r)
	}
}

// TestViewKeepsNorthUp tests the north hoop is above the south hoop
func TestViewKeepsNorthUp(t *testing.T) {
	field := config.DefaultField()
	g := NewView(field, sim.DefaultCatalog()).grid(80, 40)

	_, north := g.cell(0, field.NorthGoal.Center[2])
	_, south := g.cell(0, field.SouthGoal.Center[2])
	if north >= south {
		t.Errorf("Expected north row %d above south row %d", north, south)
	}

	_, top := g.cell(0, -field.LongAxis)
	_, bottom := g.cell(0, field.LongAxis)
	if top < statusRows || bottom >= 40-helpRows {
		t.Errorf("Field rows %d..%d overlap the status or help line", top, bottom)
	}
}

// TestViewStatusLine tests the score line and match-over notice
func TestViewStatusLine(t *testing.T) {
	s := newTestScreen(t, 100, 40)
	v := NewView(config.DefaultField(), sim.DefaultCatalog())

	snap := testSnapshot()
	v.Draw(s, snap)
	if line := rowText(s, 0, 100); !strings.HasPrefix(line, "Gryffindor 10 : 20 Slytherin  tick 7") {
		t.Errorf("Unexpected status line %q", line)
	}

	snap.Phase = match.PhaseOver
	snap.Winner = "away"
	v.Draw(s, snap)
	if line := rowText(s, 0, 100); !strings.Contains(line, "Slytherin win!") {
		t.Errorf("Expected winner notice, got %q", line)
	}
}

// TestViewWaiting tests the placeholder before the first state
func TestViewWaiting(t *testing.T) {
	s := newTestScreen(t, 40, 10)
	NewView(config.DefaultField(), sim.DefaultCatalog()).Draw(s, nil)

	if line := rowText(s, 0, 40); !strings.HasPrefix(line, "waiting") {
		t.Errorf("Expected waiting message, got %q", line)
	}
}
