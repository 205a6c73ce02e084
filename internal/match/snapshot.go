package match

import (
	"time"

	"quidditch/internal/sim"
)

// PlayerSnapshot is an immutable copy of player state for rendering.
// Uses value types (not pointers) to ensure immutability.
type PlayerSnapshot struct {
	ID             sim.PlayerID `json:"id"`
	Side           string       `json:"side"`
	Team           sim.Team     `json:"team"`
	X              float64      `json:"x"`
	Y              float64      `json:"y"`
	Z              float64      `json:"z"`
	Yaw            float64      `json:"yaw"`
	Pitch          float64      `json:"pitch"`
	Speed          float64      `json:"speed"`
	Controllable   bool         `json:"controllable"`
	Collided       bool         `json:"collided"`
	UserControlled bool         `json:"userControlled"`
	HandUp         bool         `json:"handUp"`
	Role           string       `json:"role"`
}

// BallSnapshot is an immutable copy of the ball
type BallSnapshot struct {
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Z      float64      `json:"z"`
	VX     float64      `json:"vx"`
	VY     float64      `json:"vy"`
	VZ     float64      `json:"vz"`
	Held   bool         `json:"held"`
	Holder sim.PlayerID `json:"holder"`
}

// SideSnapshot is one team's standing
type SideSnapshot struct {
	Team    sim.Team `json:"team"`
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Score   int      `json:"score"`
	InRange bool     `json:"inRange"` // holder within shooting scope
}

// Snapshot is a complete immutable match state. A new one is published
// after every tick and never mutated afterwards.
type Snapshot struct {
	MatchID   string    `json:"matchId"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Tick      uint64    `json:"tick"`
	Seed      int64     `json:"seed"`
	Phase     Phase     `json:"phase"`
	Winner    string    `json:"winner,omitempty"`

	Home SideSnapshot `json:"home"`
	Away SideSnapshot `json:"away"`

	Players []PlayerSnapshot `json:"players"`
	Ball    BallSnapshot     `json:"ball"`
}

// Player returns the snapshot of id.
func (s *Snapshot) Player(id sim.PlayerID) (PlayerSnapshot, bool) {
	if id < 0 || int(id) >= len(s.Players) {
		return PlayerSnapshot{}, false
	}
	return s.Players[id], true
}

// User returns the human-controlled player, if any.
func (s *Snapshot) User() (PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.UserControlled {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// buildSnapshot copies the world. Caller holds s.mu.
func (s *Session) buildSnapshot() *Snapshot {
	s.sequence++
	w := s.world
	home, away := w.Teams()

	snap := &Snapshot{
		MatchID:   s.id,
		Sequence:  s.sequence,
		Timestamp: s.now(),
		Tick:      w.Tick(),
		Seed:      s.seed,
		Phase:     s.phase,
		Home:      s.sideSnapshot(sim.Home, home),
		Away:      s.sideSnapshot(sim.Away, away),
		Players:   make([]PlayerSnapshot, 0, len(w.Players())),
	}
	if s.phase == PhaseOver {
		snap.Winner = s.winner.String()
	}

	agent := w.Agent()
	for _, p := range w.Players() {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:             p.ID,
			Side:           p.Side.String(),
			Team:           p.Team,
			X:              p.Position.X(),
			Y:              p.Position.Y(),
			Z:              p.Position.Z(),
			Yaw:            p.Yaw,
			Pitch:          p.Pitch,
			Speed:          p.Speed,
			Controllable:   p.Controllable,
			Collided:       p.Collided,
			UserControlled: p.UserControlled,
			HandUp:         p.HandUp,
			Role:           agent.Role(p.ID).String(),
		})
	}

	b := w.Ball()
	holder, held := b.Holder()
	snap.Ball = BallSnapshot{
		X:      b.Position.X(),
		Y:      b.Position.Y(),
		Z:      b.Position.Z(),
		VX:     b.Velocity.X(),
		VY:     b.Velocity.Y(),
		VZ:     b.Velocity.Z(),
		Held:   held,
		Holder: holder,
	}
	return snap
}

func (s *Session) sideSnapshot(side sim.Side, team sim.Team) SideSnapshot {
	info, _ := s.world.Catalog().Lookup(team)
	return SideSnapshot{
		Team:    team,
		Name:    info.Name,
		Color:   info.Hex,
		Score:   s.scores[side],
		InRange: s.world.InShotRange(side),
	}
}

// publish stores a fresh snapshot. Caller holds s.mu.
func (s *Session) publish() *Snapshot {
	snap := s.buildSnapshot()
	s.snapshot.Store(snap)
	return snap
}
