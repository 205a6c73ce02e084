package radar

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"quidditch/internal/config"
	"quidditch/internal/match"
	"quidditch/internal/sim"
)

func newTestRenderer() *Renderer {
	return New(config.DefaultField(), config.DefaultPhysics(), sim.DefaultCatalog())
}

func kickoff(t *testing.T) *match.Snapshot {
	t.Helper()
	cfg := config.Default()
	cfg.Match.Seed = 1
	s, err := match.NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s.Snapshot()
}

func rgbaAt(t *testing.T, r *Renderer, snap *match.Snapshot, x, z float64) color.RGBA {
	t.Helper()
	img, err := r.Render(snap, 300, 600)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	px, py := r.project(300, 600).point(x, z)
	return color.RGBAModel.Convert(img.At(int(px), int(py))).(color.RGBA)
}

// TestRenderSize tests output dimensions
func TestRenderSize(t *testing.T) {
	img, err := newTestRenderer().Render(kickoff(t), 320, 480)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 480 {
		t.Errorf("Expected 320x480, got %dx%d", b.Dx(), b.Dy())
	}
}

// TestRenderRejectsBadSize tests dimension validation
func TestRenderRejectsBadSize(t *testing.T) {
	r := newTestRenderer()
	snap := kickoff(t)

	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 100},
		{"negative height", 100, -1},
		{"too wide", MaxSize + 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Render(snap, tt.width, tt.height); !errors.Is(err, ErrBadSize) {
				t.Errorf("Expected ErrBadSize, got %v", err)
			}
		})
	}

	if _, err := r.Render(nil, 100, 100); err == nil {
		t.Error("Expected error for nil snapshot")
	}
}

// TestPlayersUseTeamColour tests dot colours by house
func TestPlayersUseTeamColour(t *testing.T) {
	r := newTestRenderer()
	snap := kickoff(t)

	// Player 4 is the centre away player at (0, 0, -200).
	if got := rgbaAt(t, r, snap, 0, -200); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("Expected Slytherin green, got %v", got)
	}
	// Player 1 is the centre home player at (0, 0, 200).
	if got := rgbaAt(t, r, snap, 0, 200); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Expected Gryffindor red, got %v", got)
	}
}

// TestBallIsWhite tests the ball dot
func TestBallIsWhite(t *testing.T) {
	r := newTestRenderer()
	snap := kickoff(t)

	if got := rgbaAt(t, r, snap, snap.Ball.X, snap.Ball.Z); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected white ball, got %v", got)
	}
}

// TestProjectionKeepsNorthUp tests that -z maps above the centre
func TestProjectionKeepsNorthUp(t *testing.T) {
	p := newTestRenderer().project(300, 600)
	_, north := p.point(0, -1000)
	_, south := p.point(0, 1000)
	if north >= south {
		t.Errorf("Expected north above south, got %v >= %v", north, south)
	}

	x, _ := p.point(420, 0)
	if x > 300 {
		t.Errorf("Field should fit the image width, got edge at %v", x)
	}
}

// TestRenderPNG tests encoding round trip into a valid PNG
func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestRenderer().RenderPNG(&buf, kickoff(t), 200, 400); err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 200 {
		t.Errorf("Expected width 200, got %d", img.Bounds().Dx())
	}
}
