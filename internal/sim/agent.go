package sim

import (
	"math"

	"quidditch/internal/config"
)

// Rand is the random source the controller draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Role is the behaviour a computer player ran on the last tick.
type Role uint8

const (
	RoleIdle Role = iota // human-controlled or falling
	RoleEvading
	RoleReturning
	RoleHolder
	RoleAttacker
	RoleSupport
)

// String returns human-readable role
func (r Role) String() string {
	switch r {
	case RoleEvading:
		return "evading"
	case RoleReturning:
		return "returning"
	case RoleHolder:
		return "holder"
	case RoleAttacker:
		return "attacker"
	case RoleSupport:
		return "support"
	default:
		return "idle"
	}
}

// Controller steers every player that is not under human control.
type Controller struct {
	cfg   config.AgentConfig
	rules *Rules
	rng   Rand

	interval []int // per-player support stagger
	phase    []int
	roles    []Role
	reaction int // ticks since the last reaction reset
}

// NewController assigns each of n players a randomized stagger interval.
func NewController(cfg config.AgentConfig, rules *Rules, rng Rand, n int) *Controller {
	c := &Controller{
		cfg:      cfg,
		rules:    rules,
		rng:      rng,
		interval: make([]int, n),
		phase:    make([]int, n),
		roles:    make([]Role, n),
	}
	spread := cfg.StaggerMax - cfg.StaggerMin + 1
	for i := range c.interval {
		c.interval[i] = cfg.StaggerMin + rng.Intn(max(spread, 1))
		c.phase[i] = rng.Intn(c.interval[i])
	}
	return c
}

// Reaction returns the reaction-delay counter.
func (c *Controller) Reaction() int { return c.reaction }

// ResetReaction restarts the reaction delay.
func (c *Controller) ResetReaction() { c.reaction = 0 }

// Ready reports whether the reaction delay has elapsed.
func (c *Controller) Ready() bool { return c.reaction > c.cfg.ReactionDelayTicks }

// Role returns the role id ran on the last tick.
func (c *Controller) Role(id PlayerID) Role {
	if int(id) < 0 || int(id) >= len(c.roles) {
		return RoleIdle
	}
	return c.roles[id]
}

// Interval returns the support stagger of id.
func (c *Controller) Interval(id PlayerID) int {
	return c.interval[id]
}

// Step sets steering for every computer player.
func (c *Controller) Step(tick uint64, players []*Player, ball *Ball, emit func(Event)) {
	c.reaction++

	attacker := c.attacker(players, ball)
	for _, p := range players {
		if p.UserControlled || !p.Controllable {
			c.roles[p.ID] = RoleIdle
			continue
		}
		c.roles[p.ID] = c.decide(tick, p, attacker == p.ID, players, ball, emit)
	}
}

func (c *Controller) decide(tick uint64, p *Player, attacker bool, players []*Player, ball *Ball, emit func(Event)) Role {
	holder, held := ball.Holder()
	isHolder := held && holder == p.ID

	if threat := c.nearestThreat(p, attacker, players, ball); threat != nil {
		if isHolder && c.rng.Float64() < c.cfg.PassThreshold {
			if mate := nearestTeammate(p, players); mate != nil {
				c.pass(p, mate, ball)
				emit(Event{Kind: EventPass, Player: p.ID, Other: mate.ID})
				return RoleHolder
			}
		}
		p.SteerToward(p.Position.Sub(threat.Position))
		return RoleEvading
	}

	if c.rules.Field.NearEdge(p.Position, c.cfg.BoundaryFraction) {
		p.SteerToward(p.Position.Mul(-1))
		return RoleReturning
	}

	switch {
	case isHolder:
		c.carry(p)
		return RoleHolder
	case attacker:
		c.attack(p, ball)
		return RoleAttacker
	default:
		c.support(tick, p, players, ball)
		return RoleSupport
	}
}

// attacker picks the single computer-side player nearest the ball. Nobody
// attacks unless the ball is free or carried by the human player. The
// user's teammates never attack. It is recomputed every tick.
func (c *Controller) attacker(players []*Player, ball *Ball) PlayerID {
	if holder, held := ball.Holder(); held {
		if int(holder) < 0 || int(holder) >= len(players) {
			return NoPlayer
		}
		if h := players[holder]; h.Side == ComputerSide || !h.UserControlled {
			return NoPlayer
		}
	}

	best, bestDist := NoPlayer, math.Inf(1)
	for _, p := range players {
		if p.Side != ComputerSide || p.UserControlled || !p.Controllable {
			continue
		}
		if d := p.Position.Sub(ball.Position).Len(); d < bestDist {
			best, bestDist = p.ID, d
		}
	}
	return best
}

// nearestThreat finds the closest player on an approaching course within the
// look-ahead radius. An attacker does not avoid the holder it is chasing.
func (c *Controller) nearestThreat(p *Player, attacker bool, players []*Player, ball *Ball) *Player {
	holder, held := ball.Holder()

	var threat *Player
	bestDist := math.Inf(1)
	for _, q := range players {
		if q.ID == p.ID {
			continue
		}
		if attacker && held && q.ID == holder {
			continue
		}
		if !c.rules.collidesWithin(p, q, c.cfg.LookAheadRadius) {
			continue
		}
		if d := p.Position.Sub(q.Position).Len(); d < bestDist {
			threat, bestDist = q, d
		}
	}
	return threat
}

func nearestTeammate(p *Player, players []*Player) *Player {
	var mate *Player
	bestDist := math.Inf(1)
	for _, q := range players {
		if q.ID == p.ID || q.Side != p.Side {
			continue
		}
		if d := p.Position.Sub(q.Position).Len(); d < bestDist {
			mate, bestDist = q, d
		}
	}
	return mate
}

// pass releases the ball toward mate and starts the holder turning after it.
// A mate on the same spot gets the ball along the current heading.
func (c *Controller) pass(p, mate *Player, ball *Ball) {
	dir := horizontal(mate.Position.Sub(p.Position))
	if dir.Len() < minDirection {
		dir = p.Forward()
	} else {
		dir = dir.Normalize()
	}
	ball.Release(dir.Mul(c.cfg.PassSpeed))
	p.SteerToward(dir)
}

// carry holds course until the reaction delay has elapsed, then beelines for goal.
func (c *Controller) carry(p *Player) {
	if c.Ready() {
		goal := c.rules.AttackGoal(p.Side)
		p.SteerToward(goal.Center.Sub(p.Position))
	}
	p.AccelerateCapped(c.cfg.SpeedCap)
}

func (c *Controller) attack(p *Player, ball *Ball) {
	target := ball.Position
	if p.Position.Sub(ball.Position).Len() < c.cfg.AttackRange {
		target = c.rules.AttackGoal(p.Side).Center
	}
	p.SteerToward(target.Sub(p.Position))
	p.AccelerateCapped(c.cfg.SpeedCap)
}

// support re-steers only on its own stagger tick.
func (c *Controller) support(tick uint64, p *Player, players []*Player, ball *Ball) {
	if (tick+uint64(c.phase[p.ID]))%uint64(c.interval[p.ID]) != 0 {
		return
	}

	if holder, held := ball.Holder(); held && int(holder) < len(players) {
		p.TurnToward(players[holder].Yaw)
	} else {
		p.SteerToward(ball.Position.Sub(p.Position))
	}
	p.AccelerateCapped(c.cfg.SpeedCap)
}
