package sim

import (
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

// Roster resolves holder handles. The world implements it.
type Roster interface {
	Player(id PlayerID) (*Player, bool)
}

// Ball is the possessable ball. It is either free and integrated like any
// other body, or held and rigidly placed at its holder's socket.
type Ball struct {
	Body

	held   bool
	holder PlayerID

	rules  *Rules
	roster Roster
}

// NewBall creates a free ball at home.
func NewBall(home mgl64.Vec3, rules *Rules, roster Roster) *Ball {
	return &Ball{
		Body:   newBody(home, 0, rules.Physics.BallRadius),
		holder: NoPlayer,
		rules:  rules,
		roster: roster,
	}
}

// Kind implements Entity.
func (b *Ball) Kind() Kind { return KindBall }

// Kinematics implements Entity.
func (b *Ball) Kinematics() *Body { return &b.Body }

// Held reports possession.
func (b *Ball) Held() bool { return b.held }

// Holder returns the holder handle and whether one exists.
func (b *Ball) Holder() (PlayerID, bool) {
	return b.holder, b.held
}

// HolderID returns the holder handle. Calling it on a free ball is a
// programming error: it panics in simdebug builds and returns NoPlayer otherwise.
func (b *Ball) HolderID() PlayerID {
	assertf(b.held, "HolderID called on a free ball")
	if !b.held {
		return NoPlayer
	}
	return b.holder
}

// SetHolder attaches the ball to id.
func (b *Ball) SetHolder(id PlayerID) {
	b.held = true
	b.holder = id
}

// ClearHolder frees the ball.
func (b *Ball) ClearHolder() {
	b.held = false
	b.holder = NoPlayer
}

// Release frees the ball with an initial velocity.
func (b *Ball) Release(velocity mgl64.Vec3) {
	b.ClearHolder()
	b.Velocity = velocity
}

// CheckCollision reports approach-filtered contact with other.
func (b *Ball) CheckCollision(other Entity) bool {
	return b.rules.Collides(b, other)
}

// CheckScope reports whether the ball lies within radius of target.
func (b *Ball) CheckScope(target mgl64.Vec3, radius float64) bool {
	return b.Position.Sub(target).Len() <= radius
}

// Move places a held ball at its holder's socket, otherwise integrates it.
func (b *Ball) Move(delta float64) Containment {
	if holder, ok := b.holderPlayer(); ok {
		b.LastPosition = b.Position
		b.Velocity = holder.Velocity

		socket := b.SocketPosition(holder)
		if !b.rules.Field.InBand(socket) {
			b.onOutOfHeight(socket)
			return OutOfHeight
		}
		b.Position = socket
		return Inside
	}
	return advance(b, b.rules.Field, delta)
}

// SocketPosition is the carry position for holder: the configured offset
// rotated by pitch about x, then yaw about y, added to the holder position.
func (b *Ball) SocketPosition(holder *Player) mgl64.Vec3 {
	rot := mgl64.Rotate3DY(mgl64.DegToRad(holder.Yaw)).Mul3(mgl64.Rotate3DX(mgl64.DegToRad(holder.Pitch)))
	return holder.Position.Add(rot.Mul3x1(mgl64.Vec3(b.rules.Physics.SocketOffset)))
}

// holderPlayer resolves the holder, freeing the ball if the handle dangles.
func (b *Ball) holderPlayer() (*Player, bool) {
	if !b.held {
		return nil, false
	}
	p, ok := b.roster.Player(b.holder)
	if !ok {
		log.Debug("ball holder no longer exists, freeing ball", "holder", b.holder)
		b.ClearHolder()
		return nil, false
	}
	return p, true
}

func (b *Ball) refreshVelocity() {
	if holder, ok := b.holderPlayer(); ok {
		b.Velocity = holder.Velocity
		return
	}
	b.Velocity[1] += b.rules.Physics.Gravity
}

func (b *Ball) onOutOfHeight(candidate mgl64.Vec3) {
	if b.held {
		// Graze: only the vertical component is corrected.
		candidate[1] = b.rules.Field.ClampHeight(candidate.Y())
		b.Position = candidate
		return
	}
	b.Velocity[1] *= -b.rules.Physics.BallRestitution
}

func (b *Ball) onOutOfBoundary(candidate mgl64.Vec3, _ float64) {
	if b.held {
		b.Position = candidate
		return
	}

	beta := b.rules.Physics.BallRestitution
	n := b.rules.Field.Normal(candidate)
	if vn := b.Velocity.Dot(n); vn > 0 {
		b.Velocity = b.Velocity.Sub(n.Mul((1 + beta) * vn))
		return
	}
	b.Velocity[0] *= -beta
	b.Velocity[2] *= -beta
}

// Reset returns the ball to its home position, free and at rest.
func (b *Ball) Reset() {
	b.reset()
	b.ClearHolder()
}
