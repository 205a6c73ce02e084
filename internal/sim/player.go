package sim

import (
	"github.com/go-gl/mathgl/mgl64"
)

// PlayerID indexes the world's player slice. It is the only handle the ball
// keeps on its holder.
type PlayerID int

// NoPlayer marks an absent holder.
const NoPlayer PlayerID = -1

// fallenPitch is the nose-down pose of a falling player.
const fallenPitch = -90

// Player is a flying participant.
//
// While Controllable the velocity follows yaw and speed on the ground plane.
// Otherwise the player is falling and only gravity acts until it lands on
// the bottom of the band.
type Player struct {
	Body

	ID             PlayerID
	Side           Side
	Team           Team
	Controllable   bool
	Collided       bool // contact in the last resolver pass
	UserControlled bool
	HandUp         bool // catch pose

	rules *Rules
}

// NewPlayer creates a player at its starting pose.
func NewPlayer(id PlayerID, side Side, team Team, home mgl64.Vec3, yaw float64, rules *Rules) *Player {
	return &Player{
		Body:         newBody(home, NormalizeDeg(yaw), rules.Physics.PlayerRadius),
		ID:           id,
		Side:         side,
		Team:         team,
		Controllable: true,
		rules:        rules,
	}
}

// Kind implements Entity.
func (p *Player) Kind() Kind { return KindPlayer }

// Kinematics implements Entity.
func (p *Player) Kinematics() *Body { return &p.Body }

// Move advances the player by delta milliseconds.
func (p *Player) Move(delta float64) Containment {
	return advance(p, p.rules.Field, delta)
}

// CheckCollision reports approach-filtered contact with other.
func (p *Player) CheckCollision(other Entity) bool {
	return p.rules.Collides(p, other)
}

func (p *Player) refreshVelocity() {
	if p.Controllable {
		p.Velocity = Forward(p.Yaw).Mul(p.Speed)
		return
	}
	p.Velocity[1] += p.rules.Physics.Gravity
}

func (p *Player) onOutOfHeight(candidate mgl64.Vec3) {
	f := p.rules.Field
	next := mgl64.Vec3{candidate.X(), f.ClampHeight(candidate.Y()), candidate.Z()}
	if !f.InOval(next) {
		next[0], next[2] = p.Position.X(), p.Position.Z()
	}
	p.Position = next
	p.Velocity[1] = 0

	if candidate.Y() < f.Bottom {
		p.Controllable = true
		p.Pitch = 0
	}
}

func (p *Player) onOutOfBoundary(candidate mgl64.Vec3, _ float64) {
	f := p.rules.Field
	switch {
	case f.InCorner(candidate, p.rules.Physics.CornerFraction):
		if yaw, ok := YawOf(p.Position.Mul(-1), minDirection); ok {
			p.Yaw = yaw
		}
	case f.crossesShortAxis(candidate):
		p.Yaw = NormalizeDeg(-p.Yaw)
	default:
		p.Yaw = NormalizeDeg(180 - p.Yaw)
	}
	p.Fall()
}

// Accelerate raises speed toward MaxSpeed.
func (p *Player) Accelerate() {
	p.AccelerateCapped(1)
}

// AccelerateCapped raises speed toward fraction*MaxSpeed, fraction in [0,1].
func (p *Player) AccelerateCapped(fraction float64) {
	if !p.Controllable {
		return
	}
	limit := p.rules.Physics.MaxSpeed * clamp(fraction, 0, 1)
	if p.Speed < limit {
		p.Speed = min(p.Speed+p.rules.Physics.Acceleration, limit)
	}
}

// Decelerate lowers speed toward MinSpeed.
func (p *Player) Decelerate() {
	if !p.Controllable {
		return
	}
	if p.Speed > p.rules.Physics.MinSpeed {
		p.Speed = max(p.Speed-p.rules.Physics.Acceleration, p.rules.Physics.MinSpeed)
	}
}

// TurnToward moves yaw toward target by at most MaxTurnPerTick along the
// shorter arc and returns the applied change.
func (p *Player) TurnToward(target float64) float64 {
	limit := p.rules.Physics.MaxTurnPerTick
	step := clamp(NormalizeDeg(target-p.Yaw), -limit, limit)
	p.Yaw = NormalizeDeg(p.Yaw + step)
	return step
}

// SteerToward turns toward the heading of dir. It does nothing for a
// degenerate direction and reports whether a turn was attempted.
func (p *Player) SteerToward(dir mgl64.Vec3) bool {
	yaw, ok := YawOf(dir, minDirection)
	if !ok {
		return false
	}
	p.TurnToward(yaw)
	return true
}

// Turn applies human turning: sign is +1 for left, -1 for right.
func (p *Player) Turn(sign, delta float64) {
	limit := p.rules.Physics.MaxTurnPerTick
	p.TurnToward(p.Yaw + clamp(sign*p.rules.Physics.TurnRate*delta, -limit, limit))
}

// Climb changes altitude directly, staying inside the band.
func (p *Player) Climb(sign, delta float64) {
	if !p.Controllable {
		return
	}
	y := p.Position.Y() + sign*p.rules.Physics.ClimbStep*delta
	p.Position[1] = p.rules.Field.ClampHeight(y)
}

// Fall knocks the player down until it lands.
func (p *Player) Fall() {
	p.Velocity = mgl64.Vec3{}
	p.Speed = 0
	p.Controllable = false
	p.Pitch = fallenPitch
}

// AlignToVelocity derives speed and facing from the current horizontal
// velocity. Speed always follows the velocity; below MinFacingSpeed the
// facing is kept and false is returned.
func (p *Player) AlignToVelocity() bool {
	h := horizontal(p.Velocity)
	p.Speed = h.Len()
	yaw, ok := YawOf(h, p.rules.Physics.MinFacingSpeed)
	if !ok {
		return false
	}
	p.Yaw = yaw
	return true
}

// Forward returns the current heading.
func (p *Player) Forward() mgl64.Vec3 {
	return Forward(p.Yaw)
}

// Reset restores the starting pose and mode. UserControlled is left to the world.
func (p *Player) Reset() {
	p.reset()
	p.Controllable = true
	p.Collided = false
	p.HandUp = false
}
