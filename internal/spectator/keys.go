// Package spectator is the terminal client: key mapping, a top-down field
// view, the WebSocket connection and audio cues.
package spectator

import (
	"time"

	"quidditch/internal/sim"

	"github.com/gdamore/tcell/v2"
)

// HoldWindow is how long a key counts as held after its last press.
// Terminals report presses and auto-repeats but never releases.
const HoldWindow = 180 * time.Millisecond

// Action is one mapped key.
type Action uint8

const (
	ActionNone Action = iota
	ActionTurnLeft
	ActionTurnRight
	ActionUp
	ActionDown
	ActionAccelerate
	ActionDecelerate
	ActionResetFacing
	ActionThrow
	ActionSwitch
	ActionRematch
	ActionQuit
)

// opposite pairs cancel each other so a frame is never contradictory.
var opposite = map[Action]Action{
	ActionTurnLeft:   ActionTurnRight,
	ActionTurnRight:  ActionTurnLeft,
	ActionUp:         ActionDown,
	ActionDown:       ActionUp,
	ActionAccelerate: ActionDecelerate,
	ActionDecelerate: ActionAccelerate,
}

// ActionFor maps a key event.
//
//	←/a →/d   turn        w/s     climb, dive
//	↑/↓       speed       r       level out
//	space     throw       tab     switch player
//	n         rematch     q/esc   quit
func ActionFor(ev *tcell.EventKey) Action {
	return actionForKey(ev.Key(), ev.Rune())
}

func actionForKey(key tcell.Key, r rune) Action {
	switch key {
	case tcell.KeyLeft:
		return ActionTurnLeft
	case tcell.KeyRight:
		return ActionTurnRight
	case tcell.KeyUp:
		return ActionAccelerate
	case tcell.KeyDown:
		return ActionDecelerate
	case tcell.KeyTab:
		return ActionSwitch
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
	default:
		return ActionNone
	}

	switch r {
	case 'a', 'A':
		return ActionTurnLeft
	case 'd', 'D':
		return ActionTurnRight
	case 'w', 'W':
		return ActionUp
	case 's', 'S':
		return ActionDown
	case 'r', 'R':
		return ActionResetFacing
	case ' ':
		return ActionThrow
	case 'n', 'N':
		return ActionRematch
	case 'q', 'Q':
		return ActionQuit
	}
	return ActionNone
}

// Controls turns key presses into intent frames. Not safe for concurrent use.
type Controls struct {
	held   map[Action]time.Time
	throw  bool
	toggle bool
}

// NewControls returns empty controls.
func NewControls() *Controls {
	return &Controls{held: make(map[Action]time.Time)}
}

// Press records a key press at now. Rematch and Quit are not intents and
// are ignored here.
func (c *Controls) Press(a Action, now time.Time) {
	switch a {
	case ActionThrow:
		c.throw = true
	case ActionSwitch:
		c.toggle = true
	case ActionTurnLeft, ActionTurnRight, ActionUp, ActionDown,
		ActionAccelerate, ActionDecelerate, ActionResetFacing:
		if o, ok := opposite[a]; ok {
			delete(c.held, o)
		}
		c.held[a] = now
	}
}

func (c *Controls) isHeld(a Action, now time.Time) bool {
	t, ok := c.held[a]
	if !ok {
		return false
	}
	if now.Sub(t) > HoldWindow {
		delete(c.held, a)
		return false
	}
	return true
}

// Frame returns the intents for now and consumes Throw and Switch.
func (c *Controls) Frame(now time.Time) sim.Intents {
	in := sim.Intents{
		TurnLeft:    c.isHeld(ActionTurnLeft, now),
		TurnRight:   c.isHeld(ActionTurnRight, now),
		Up:          c.isHeld(ActionUp, now),
		Down:        c.isHeld(ActionDown, now),
		Accelerate:  c.isHeld(ActionAccelerate, now),
		Decelerate:  c.isHeld(ActionDecelerate, now),
		ResetFacing: c.isHeld(ActionResetFacing, now),
		Throw:       c.throw,
		Switch:      c.toggle,
	}
	c.throw, c.toggle = false, false
	return in
}
