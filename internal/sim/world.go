package sim

import (
	"errors"
	"fmt"

	"quidditch/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrMatchStarted is returned by setters that are only valid before the first step.
	ErrMatchStarted = errors.New("sim: match already started")
	// ErrNoPlayer is returned for an unknown player handle.
	ErrNoPlayer = errors.New("sim: no such player")
)

// Starting layout.
const (
	startSpacing = 100
	startDepth   = 200
	ballStartY   = 200
)

// WorldOptions configure a new world.
type WorldOptions struct {
	Field    config.FieldConfig
	Physics  config.PhysicsConfig
	Agent    config.AgentConfig
	TeamSize int
	Home     Team
	Away     Team
	Catalog  *Catalog
	Rand     Rand
}

// World owns every entity of one match and advances them in a fixed order:
// human intents and computer steering, then each player's move, then the
// collision pass, then the ball.
//
// A World is not safe for concurrent use.
type World struct {
	rules    *Rules
	catalog  *Catalog
	players  []*Player
	ball     *Ball
	resolver *Resolver
	agent    *Controller

	home, away Team
	user       PlayerID
	tick       uint64
	events     []Event
}

// NewWorld lays out TeamSize players per side and a free ball.
func NewWorld(opts WorldOptions) *World {
	rules := NewRules(opts.Field, opts.Physics)
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	w := &World{
		rules:   rules,
		catalog: catalog,
		home:    opts.Home,
		away:    opts.Away,
		user:    NoPlayer,
		events:  make([]Event, 0, 16),
	}

	n := opts.TeamSize
	for _, side := range []Side{Home, Away} {
		team, z, yaw := opts.Home, float64(startDepth), 0.0
		if side == Away {
			team, z, yaw = opts.Away, -startDepth, 180
		}
		for i := 0; i < n; i++ {
			x := startSpacing * (float64(n-1)/2 - float64(i))
			id := PlayerID(len(w.players))
			w.players = append(w.players, NewPlayer(id, side, team, mgl64.Vec3{x, 0, z}, yaw, rules))
		}
	}

	w.ball = NewBall(mgl64.Vec3{0, ballStartY, 0}, rules, w)
	w.resolver = NewResolver(rules)
	w.agent = NewController(opts.Agent, rules, opts.Rand, len(w.players))
	w.setUser(w.firstOf(Home))
	return w
}

// Player implements Roster.
func (w *World) Player(id PlayerID) (*Player, bool) {
	if id < 0 || int(id) >= len(w.players) {
		return nil, false
	}
	return w.players[id], true
}

// Players returns every player, home side first.
func (w *World) Players() []*Player { return w.players }

// Ball returns the ball.
func (w *World) Ball() *Ball { return w.ball }

// Rules returns the shared rule set.
func (w *World) Rules() *Rules { return w.rules }

// Agent returns the computer player controller.
func (w *World) Agent() *Controller { return w.agent }

// Catalog returns the team registry.
func (w *World) Catalog() *Catalog { return w.catalog }

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 { return w.tick }

// Teams returns the home and away houses.
func (w *World) Teams() (home, away Team) { return w.home, w.away }

// UserPlayer returns the human-controlled player, or nil.
func (w *World) UserPlayer() *Player {
	p, _ := w.Player(w.user)
	return p
}

// SetTeams assigns houses before kick-off.
func (w *World) SetTeams(home, away Team) error {
	if w.tick > 0 {
		return ErrMatchStarted
	}
	for _, t := range []Team{home, away} {
		if _, ok := w.catalog.Lookup(t); !ok {
			return fmt.Errorf("set teams: unknown team %d", t)
		}
	}
	w.home, w.away = home, away
	for _, p := range w.players {
		p.Team = home
		if p.Side == Away {
			p.Team = away
		}
	}
	return nil
}

// Step advances the match by delta milliseconds. The returned events are
// valid until the next call.
func (w *World) Step(delta float64, in Intents) []Event {
	w.tick++
	w.events = w.events[:0]

	w.applyIntents(delta, in)
	w.agent.Step(w.tick, w.players, w.ball, w.emit)

	for _, p := range w.players {
		falling := !p.Controllable
		if p.Move(delta) == OutOfBoundary {
			w.emit(Event{Kind: EventOutOfBounds, Player: p.ID, Other: NoPlayer})
		}
		if falling && p.Controllable {
			w.emit(Event{Kind: EventLanded, Player: p.ID, Other: NoPlayer})
		}
	}

	w.resolver.Resolve(w.players, w.ball, w.emit)
	w.followHolder()
	w.ball.Move(delta)

	return w.events
}

func (w *World) emit(e Event) {
	e.Tick = w.tick
	w.events = append(w.events, e)
}

func (w *World) applyIntents(delta float64, in Intents) {
	if in.Validate() != nil {
		in = Intents{Throw: in.Throw, Switch: in.Switch}
	}
	if in.Switch {
		w.ChangeDefender()
	}

	p := w.UserPlayer()
	if p == nil {
		return
	}

	if in.Throw {
		if holder, held := w.ball.Holder(); held && holder == p.ID {
			w.throw(p)
		} else {
			p.HandUp = !p.HandUp
		}
	}

	if !p.Controllable {
		return
	}
	switch {
	case in.TurnLeft:
		p.Turn(1, delta)
	case in.TurnRight:
		p.Turn(-1, delta)
	}
	switch {
	case in.Up:
		p.Climb(1, delta)
	case in.Down:
		p.Climb(-1, delta)
	}
	switch {
	case in.Accelerate:
		p.Accelerate()
	case in.Decelerate:
		p.Decelerate()
	}
	if in.ResetFacing {
		p.Pitch = 0
	}
}

// throw releases the ball along the holder's velocity, or its heading when still.
func (w *World) throw(p *Player) {
	speed := w.rules.Physics.ThrowSpeed
	dir := p.Forward()
	if l := p.Velocity.Len(); l > minDirection {
		dir = p.Velocity.Mul(1 / l)
	}
	w.ball.Release(dir.Mul(speed))
	p.HandUp = false
	w.emit(Event{Kind: EventThrow, Player: p.ID, Other: NoPlayer})
}

// ChangeDefender hands human control to the home player nearest the ball.
// It does nothing while the human player carries the ball.
func (w *World) ChangeDefender() {
	if holder, held := w.ball.Holder(); held && holder == w.user {
		return
	}

	best, bestDist := NoPlayer, 0.0
	for _, p := range w.players {
		if p.Side != Home {
			continue
		}
		d := p.Position.Sub(w.ball.Position).Len()
		if best == NoPlayer || d < bestDist {
			best, bestDist = p.ID, d
		}
	}
	w.setUser(best)
}

// followHolder gives human control to any home player that gains the ball.
func (w *World) followHolder() {
	holder, held := w.ball.Holder()
	if !held {
		return
	}
	if p, ok := w.Player(holder); ok && p.Side == Home {
		w.setUser(holder)
	}
}

func (w *World) setUser(id PlayerID) {
	if id == w.user {
		return
	}
	for _, p := range w.players {
		p.UserControlled = p.ID == id
	}
	prev := w.user
	w.user = id
	if w.tick > 0 {
		w.emit(Event{Kind: EventControl, Player: id, Other: prev})
	}
}

func (w *World) firstOf(side Side) PlayerID {
	for _, p := range w.players {
		if p.Side == side {
			return p.ID
		}
	}
	return NoPlayer
}

// GiveBall attaches the ball to id directly, as after a goal.
func (w *World) GiveBall(id PlayerID) error {
	p, ok := w.Player(id)
	if !ok {
		return fmt.Errorf("give ball: %w: player %d", ErrNoPlayer, id)
	}
	w.ball.SetHolder(id)
	w.ball.Velocity = mgl64.Vec3{}
	w.ball.Position = w.ball.SocketPosition(p)
	if p.Side == Home {
		w.setUser(id)
	}
	return nil
}

// InShotRange reports whether side holds the ball within scope of the goal it attacks.
func (w *World) InShotRange(side Side) bool {
	holder, held := w.ball.Holder()
	if !held {
		return false
	}
	p, ok := w.Player(holder)
	if !ok || p.Side != side {
		return false
	}
	goal := w.rules.AttackGoal(side)
	return w.ball.CheckScope(goal.Center, goal.Radius) && goal.Open(w.ball.Position)
}

// FarthestFrom returns the player of side farthest along dir (the sign of z)
// used to restart play after a goal.
func (w *World) FarthestFrom(side Side, dir float64) PlayerID {
	best, bestZ := NoPlayer, 0.0
	for _, p := range w.players {
		if p.Side != side {
			continue
		}
		z := p.Position.Z() * dir
		if best == NoPlayer || z > bestZ {
			best, bestZ = p.ID, z
		}
	}
	return best
}

// Reset restores every entity for a rematch without reallocating.
func (w *World) Reset() {
	for _, p := range w.players {
		p.Reset()
	}
	w.ball.Reset()
	w.agent.ResetReaction()
	w.tick = 0
	w.events = w.events[:0]
	w.user = NoPlayer
	w.setUser(w.firstOf(Home))
}
