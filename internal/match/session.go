package match

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"quidditch/internal/config"
	"quidditch/internal/sim"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrMatchOver is returned for input after the final whistle.
	ErrMatchOver = errors.New("match: match is over")
	// ErrNoHolder is returned by scope queries while the ball is free.
	ErrNoHolder = errors.New("match: nobody holds the ball")
)

// Phase is the match lifecycle state.
type Phase string

const (
	PhasePlaying Phase = "playing"
	PhaseOver    Phase = "over"
)

// Scope describes the holder's position relative to the goal it attacks.
type Scope struct {
	Holder   sim.PlayerID `json:"holder"`
	Side     string       `json:"side"`
	Distance float64      `json:"distance"`
	Radius   float64      `json:"radius"`
	InRange  bool         `json:"inRange"`
}

// Session runs one match: the fixed-rate loop, scoring, human input and
// publication of snapshots and events. All methods are safe for concurrent use.
type Session struct {
	mu  sync.Mutex
	cfg config.AppConfig

	world   *sim.World
	id      string
	seed    int64
	scores  [2]int
	phase   Phase
	winner  sim.Side
	delta   float64 // milliseconds per tick
	intents intentBuffer

	sequence uint64
	snapshot atomic.Pointer[Snapshot]
	eventLog *EventLog

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// Event callbacks
	onTick  func(d time.Duration)
	onEvent func(e Event)

	now func() time.Time
}

// NewSession builds a match from configuration. Houses are looked up by name
// in the default catalog.
func NewSession(cfg config.AppConfig) (*Session, error) {
	catalog := sim.DefaultCatalog()
	home, err := catalog.Parse(cfg.Match.HomeTeam)
	if err != nil {
		return nil, fmt.Errorf("home team: %w", err)
	}
	away, err := catalog.Parse(cfg.Match.AwayTeam)
	if err != nil {
		return nil, fmt.Errorf("away team: %w", err)
	}
	if cfg.Match.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %d", cfg.Match.TickRate)
	}

	seed := cfg.Match.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		cfg:      cfg,
		id:       ulid.Make().String(),
		seed:     seed,
		phase:    PhasePlaying,
		delta:    1000 / float64(cfg.Match.TickRate),
		intents:  intentBuffer{ttl: cfg.Match.IntentTTL},
		eventLog: NewEventLog(),
		now:      time.Now,
	}
	s.world = sim.NewWorld(sim.WorldOptions{
		Field:    cfg.Field,
		Physics:  cfg.Physics,
		Agent:    cfg.Agent,
		TeamSize: cfg.Match.TeamSize,
		Home:     home,
		Away:     away,
		Catalog:  catalog,
		Rand:     rand.New(rand.NewSource(seed)),
	})
	s.publish()
	return s, nil
}

// ID returns the current match ID. A rematch gets a new one.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Seed returns the seed the controller draws from.
func (s *Session) Seed() int64 { return s.seed }

// Catalog returns the team registry.
func (s *Session) Catalog() *sim.Catalog { return s.world.Catalog() }

// Rules returns the shared geometry.
func (s *Session) Rules() *sim.Rules { return s.world.Rules() }

// Start begins the match loop. A stopped session can be started again.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.ticker = time.NewTicker(time.Second / time.Duration(s.cfg.Match.TickRate))
	s.stopChan = make(chan struct{})

	ticker, stop := s.ticker, s.stopChan
	go func() {
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-stop:
				return
			}
		}
	}()

	log.Info("🎮 Match engine started", "tps", s.cfg.Match.TickRate, "match", s.id, "seed", s.seed)
}

// Stop stops the match loop
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.ticker.Stop()
	close(s.stopChan)
	log.Info("🛑 Match engine stopped", "match", s.id)
}

// SetCallbacks sets tick and event observers. Both run on the match loop
// and must not call back into the session.
func (s *Session) SetCallbacks(onTick func(time.Duration), onEvent func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = onTick
	s.onEvent = onEvent
}

// tick is called at TickRate times per second
func (s *Session) tick() {
	start := time.Now()

	s.mu.Lock()
	s.step()
	s.publish()
	onTick := s.onTick
	s.mu.Unlock()

	if onTick != nil {
		onTick(time.Since(start))
	}
}

// step advances the world once and applies the scoring rules.
// Caller holds s.mu.
func (s *Session) step() {
	if s.phase == PhaseOver {
		return
	}

	in := s.intents.take(s.now())

	// A home throw inside the goal's scope is a shot, not a pass.
	if in.Throw && s.world.InShotRange(sim.Home) {
		in.Throw = false
		s.goal(sim.Home)
		if s.phase == PhaseOver {
			return
		}
	}

	for _, e := range s.world.Step(s.delta, in) {
		s.record(NewEvent(fromSim(e.Kind), e.Tick, e.Player, ContactPayload{Player: e.Player, Other: e.Other}))
	}

	tick := s.world.Tick()
	if tick%TickEventEvery == 0 {
		s.record(NewEvent(EventTypeTick, tick, sim.NoPlayer, TickPayload{
			Seed:    s.seed,
			Players: len(s.world.Players()),
			DeltaMs: s.delta,
		}))
	}

	if s.world.Agent().Ready() && s.world.InShotRange(sim.Away) {
		s.goal(sim.Away)
	}
}

// goal awards a goal to side and restarts play with the defenders.
// Caller holds s.mu.
func (s *Session) goal(side sim.Side) {
	scorer := s.world.Ball().HolderID()
	s.scores[side] += s.cfg.Match.GoalPoints

	// The receiver is the defender deepest in their own half.
	defending := side.Opponent()
	dir := -1.0
	if defending == sim.Home {
		dir = 1
	}
	receiver := s.world.FarthestFrom(defending, dir)
	if err := s.world.GiveBall(receiver); err != nil {
		log.Error("restart after goal failed", "err", err)
	} else if p, ok := s.world.Player(receiver); ok {
		p.HandUp = true
	}

	if defending == sim.Away {
		s.world.Agent().ResetReaction()
		s.world.ChangeDefender()
	}

	s.record(NewEvent(EventTypeGoal, s.world.Tick(), scorer, GoalPayload{
		Side:      side.String(),
		Scorer:    scorer,
		HomeScore: s.scores[sim.Home],
		AwayScore: s.scores[sim.Away],
		Receiver:  receiver,
	}))
	log.Info("🥅 Goal", "side", side, "home", s.scores[sim.Home], "away", s.scores[sim.Away])

	if s.scores[sim.Home] > s.cfg.Match.WinningScore || s.scores[sim.Away] > s.cfg.Match.WinningScore {
		s.phase = PhaseOver
		s.winner = sim.Home
		if s.scores[sim.Away] > s.scores[sim.Home] {
			s.winner = sim.Away
		}
		s.record(NewEvent(EventTypeMatchOver, s.world.Tick(), sim.NoPlayer, MatchOverPayload{
			Winner:    s.winner.String(),
			HomeScore: s.scores[sim.Home],
			AwayScore: s.scores[sim.Away],
		}))
		log.Info("🏆 Match over", "winner", s.winner, "home", s.scores[sim.Home], "away", s.scores[sim.Away])
	}
}

// record stamps the match ID and hands the event to the log and observer.
func (s *Session) record(e Event) {
	e.MatchID = s.id
	s.eventLog.Emit(e)
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

// SubmitIntent queues human input for the next tick.
func (s *Session) SubmitIntent(in sim.Intents) error {
	if err := in.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseOver {
		return ErrMatchOver
	}
	s.intents.submit(in, s.now())
	return nil
}

// Switch requests a change of controlled player on the next tick. Held
// controls keep applying.
func (s *Session) Switch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseOver {
		return ErrMatchOver
	}
	s.intents.requestSwitch()
	return nil
}

// Rematch restores every entity, clears the scores and starts a new match ID.
func (s *Session) Rematch() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.world.Reset()
	s.scores = [2]int{}
	s.phase = PhasePlaying
	s.winner = sim.Home
	s.intents.clear()
	s.id = ulid.Make().String()

	s.record(NewEvent(EventTypeRematch, 0, sim.NoPlayer, nil))
	log.Info("🔁 Rematch", "match", s.id)
	return s.publish()
}

// SetTeams assigns houses before the first tick.
func (s *Session) SetTeams(home, away sim.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.world.SetTeams(home, away); err != nil {
		return err
	}
	s.publish()
	return nil
}

// Snapshot returns the latest published state. It never blocks the loop.
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Scope reports how far the holder is from the goal it attacks.
func (s *Session) Scope() (Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holder, held := s.world.Ball().Holder()
	if !held {
		return Scope{}, ErrNoHolder
	}
	p, ok := s.world.Player(holder)
	if !ok {
		return Scope{}, ErrNoHolder
	}

	goal := s.world.Rules().AttackGoal(p.Side)
	return Scope{
		Holder:   holder,
		Side:     p.Side.String(),
		Distance: distance(s.world.Ball().Position, goal.Center),
		Radius:   goal.Radius,
		InRange:  s.world.InShotRange(p.Side),
	}, nil
}

func distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// StartEventLog initializes the event logging system
func (s *Session) StartEventLog(filePath string) error {
	return s.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (s *Session) StopEventLog() {
	s.eventLog.Stop()
}

// EventLogStats returns event log statistics for monitoring
func (s *Session) EventLogStats() LogStats {
	return s.eventLog.Stats()
}

// RecentEvents returns up to n of the newest logged events.
func (s *Session) RecentEvents(n int) []Event {
	return s.eventLog.Recent(n)
}
