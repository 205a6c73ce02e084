// Package radar draws a top-down minimap of a match snapshot.
package radar

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"quidditch/internal/config"
	"quidditch/internal/match"
	"quidditch/internal/sim"

	"github.com/fogleman/gg"
)

// MaxSize caps either image dimension.
const MaxSize = 2048

// ErrBadSize is returned for non-positive or oversized dimensions.
var ErrBadSize = errors.New("radar: bad image size")

// Layout
const (
	margin           = 0.9   // Fraction of the image the field fills
	centreCircle     = 210.0 // World radius of the centre circle
	hoopMarker       = 30.0  // World half-width of the hoop marker
	minPlayerPixels  = 3.0
	ballPixels       = 3.0
	userRingPixels   = 3.0
	fallenAlpha      = 110
	outlineLineWidth = 2.0
)

var (
	backgroundColor = color.RGBA{0, 0, 0, 128}
	lineColor       = color.RGBA{255, 255, 255, 255}
	scopeColor      = color.NRGBA{255, 255, 255, 60}
	ballColor       = color.RGBA{255, 255, 255, 255}
	outlineColor    = color.RGBA{0, 0, 0, 255}
)

// Renderer maps world x/z onto image pixels. It is safe for concurrent use.
type Renderer struct {
	field   config.FieldConfig
	catalog *sim.Catalog
	radius  float64 // world player radius
}

// New creates a renderer for the given field and team colours.
func New(field config.FieldConfig, physics config.PhysicsConfig, catalog *sim.Catalog) *Renderer {
	return &Renderer{field: field, catalog: catalog, radius: physics.PlayerRadius}
}

// projection converts world coordinates to pixels with -z at the top.
type projection struct {
	cx, cy, scale float64
}

func (p projection) point(x, z float64) (float64, float64) {
	return p.cx + x*p.scale, p.cy + z*p.scale
}

func (r *Renderer) project(width, height int) projection {
	scale := math.Min(float64(width)/(2*r.field.ShortAxis), float64(height)/(2*r.field.LongAxis)) * margin
	return projection{cx: float64(width) / 2, cy: float64(height) / 2, scale: scale}
}

// Render draws snap at the given size.
func (r *Renderer) Render(snap *match.Snapshot, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 || width > MaxSize || height > MaxSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	if snap == nil {
		return nil, errors.New("radar: nil snapshot")
	}

	dc := gg.NewContext(width, height)
	proj := r.project(width, height)

	r.drawField(dc, proj)
	r.drawGoals(dc, proj)
	r.drawPlayers(dc, proj, snap.Players)
	r.drawBall(dc, proj, snap.Ball)

	return dc.Image(), nil
}

func (r *Renderer) drawField(dc *gg.Context, p projection) {
	cx, cy := p.point(0, 0)
	rx, rz := r.field.ShortAxis*p.scale, r.field.LongAxis*p.scale

	dc.SetColor(backgroundColor)
	dc.DrawEllipse(cx, cy, rx, rz)
	dc.Fill()

	dc.SetColor(lineColor)
	dc.SetLineWidth(outlineLineWidth)
	dc.DrawEllipse(cx, cy, rx, rz)
	dc.Stroke()

	// Halfway line
	dc.SetLineWidth(1)
	dc.DrawLine(cx-rx, cy, cx+rx, cy)
	dc.Stroke()

	dc.DrawCircle(cx, cy, centreCircle*p.scale)
	dc.Stroke()
}

func (r *Renderer) drawGoals(dc *gg.Context, p projection) {
	for _, g := range []config.GoalConfig{r.field.NorthGoal, r.field.SouthGoal} {
		x, y := p.point(g.Center[0], g.Center[2])

		// Shooting scope
		dc.SetColor(scopeColor)
		dc.SetDash(4, 4)
		dc.DrawCircle(x, y, g.Radius*p.scale)
		dc.Stroke()
		dc.SetDash()

		dc.SetColor(lineColor)
		dc.SetLineWidth(outlineLineWidth)
		dc.DrawLine(x-hoopMarker*p.scale, y, x+hoopMarker*p.scale, y)
		dc.Stroke()
	}
}

func (r *Renderer) drawPlayers(dc *gg.Context, p projection, players []match.PlayerSnapshot) {
	radius := math.Max(r.radius*p.scale, minPlayerPixels)

	for _, pl := range players {
		x, y := p.point(pl.X, pl.Z)

		c := r.teamColor(pl.Team)
		fill := color.NRGBA{c.R, c.G, c.B, 255}
		if !pl.Controllable {
			fill.A = fallenAlpha
		}

		dc.SetColor(outlineColor)
		dc.DrawCircle(x, y, radius+1)
		dc.Fill()

		dc.SetColor(fill)
		dc.DrawCircle(x, y, radius)
		dc.Fill()

		if pl.UserControlled {
			dc.SetColor(lineColor)
			dc.SetLineWidth(2)
			dc.DrawCircle(x, y, radius+userRingPixels)
			dc.Stroke()
		}
	}
}

func (r *Renderer) drawBall(dc *gg.Context, p projection, b match.BallSnapshot) {
	x, y := p.point(b.X, b.Z)

	dc.SetColor(outlineColor)
	dc.DrawCircle(x, y, ballPixels+1)
	dc.Fill()

	dc.SetColor(ballColor)
	dc.DrawCircle(x, y, ballPixels)
	dc.Fill()
}

func (r *Renderer) teamColor(t sim.Team) color.RGBA {
	if info, ok := r.catalog.Lookup(t); ok {
		return info.Color
	}
	return color.RGBA{128, 128, 128, 255}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode radar png: %w", err)
	}
	return nil
}

// RenderPNG renders snap and writes it as PNG.
func (r *Renderer) RenderPNG(w io.Writer, snap *match.Snapshot, width, height int) error {
	img, err := r.Render(snap, width, height)
	if err != nil {
		return err
	}
	return EncodePNG(w, img)
}
