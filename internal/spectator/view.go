package spectator

import (
	"fmt"
	"math"
	"strconv"

	"quidditch/internal/config"
	"quidditch/internal/match"
	"quidditch/internal/sim"

	"github.com/gdamore/tcell/v2"
)

// Terminal cells are roughly twice as tall as they are wide.
const cellAspect = 2.0

const (
	statusRows = 1
	helpRows   = 1
	outlineDot = '·'
	hoopRune   = 'O'
	ballRune   = '●'
)

const helpLine = "←→ turn  ↑↓ speed  w/s climb  space throw  tab switch  n rematch  q quit"

var (
	styleDefault = tcell.StyleDefault
	styleLine    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHoop    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBall    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleHelp    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// View draws a snapshot top-down with north at the top.
type View struct {
	field   config.FieldConfig
	catalog *sim.Catalog
}

// NewView creates a view for the given field.
func NewView(field config.FieldConfig, catalog *sim.Catalog) *View {
	return &View{field: field, catalog: catalog}
}

// grid maps world x/z to terminal cells inside the field area.
type grid struct {
	cx, cy   float64
	colsPerU float64
	rowsPerU float64
}

func (v *View) grid(width, height int) grid {
	rows := float64(height - statusRows - helpRows)
	scale := math.Min(float64(width-2)/(2*v.field.ShortAxis*cellAspect), (rows-1)/(2*v.field.LongAxis))
	return grid{
		cx:       float64(width) / 2,
		cy:       float64(statusRows) + rows/2,
		colsPerU: scale * cellAspect,
		rowsPerU: scale,
	}
}

func (g grid) cell(x, z float64) (int, int) {
	return int(math.Floor(g.cx + x*g.colsPerU)), int(math.Floor(g.cy + z*g.rowsPerU))
}

// Draw renders snap onto s. A nil snapshot draws a waiting message.
func (v *View) Draw(s tcell.Screen, snap *match.Snapshot) {
	s.Clear()
	w, h := s.Size()

	if snap == nil {
		drawText(s, 0, 0, styleDefault, "waiting for match state...")
		s.Show()
		return
	}

	g := v.grid(w, h)
	v.drawField(s, g)
	v.drawPlayers(s, g, snap.Players)

	bx, by := g.cell(snap.Ball.X, snap.Ball.Z)
	s.SetContent(bx, by, ballRune, nil, styleBall)

	drawText(s, 0, 0, styleDefault, v.status(snap))
	drawText(s, 0, h-1, styleHelp, helpLine)
	s.Show()
}

func (v *View) drawField(s tcell.Screen, g grid) {
	steps := int(2 * math.Pi * v.field.LongAxis * g.rowsPerU * 2)
	if steps < 32 {
		steps = 32
	}
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x, y := g.cell(v.field.ShortAxis*math.Cos(a), v.field.LongAxis*math.Sin(a))
		s.SetContent(x, y, outlineDot, nil, styleLine)
	}

	// Halfway line
	x0, y := g.cell(-v.field.ShortAxis, 0)
	x1, _ := g.cell(v.field.ShortAxis, 0)
	for x := x0 + 1; x < x1; x++ {
		s.SetContent(x, y, '─', nil, styleLine)
	}

	for _, goal := range []config.GoalConfig{v.field.NorthGoal, v.field.SouthGoal} {
		x, y := g.cell(goal.Center[0], goal.Center[2])
		s.SetContent(x, y, hoopRune, nil, styleHoop)
	}
}

func (v *View) drawPlayers(s tcell.Screen, g grid, players []match.PlayerSnapshot) {
	for _, p := range players {
		x, y := g.cell(p.X, p.Z)

		style := tcell.StyleDefault.Foreground(v.color(p.Team))
		if p.UserControlled {
			style = style.Reverse(true)
		}
		if !p.Controllable {
			style = style.Dim(true)
		}

		r := rune('0' + p.ID%10)
		if p.HandUp {
			r = '^'
		}
		s.SetContent(x, y, r, nil, style)
	}
}

func (v *View) color(t sim.Team) tcell.Color {
	info, ok := v.catalog.Lookup(t)
	if !ok {
		return tcell.ColorGray
	}
	return tcell.NewRGBColor(int32(info.Color.R), int32(info.Color.G), int32(info.Color.B))
}

func (v *View) status(snap *match.Snapshot) string {
	line := fmt.Sprintf("%s %d : %d %s  tick %s",
		snap.Home.Name, snap.Home.Score, snap.Away.Score, snap.Away.Name, strconv.FormatUint(snap.Tick, 10))

	if snap.Home.InRange {
		line += "  IN RANGE"
	}
	if snap.Phase == match.PhaseOver {
		winner := snap.Home.Name
		if snap.Winner == sim.Away.String() {
			winner = snap.Away.Name
		}
		line += fmt.Sprintf("  %s win! press n for a rematch", winner)
	}
	return line
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
