package sim

import (
	"quidditch/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies the closed set of simulated entity types.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindBall
)

// Containment is the outcome of one integration step.
type Containment uint8

const (
	Inside Containment = iota
	OutOfHeight
	OutOfBoundary
)

// Body is the kinematic state shared by every movable entity.
type Body struct {
	Position     mgl64.Vec3
	LastPosition mgl64.Vec3
	Velocity     mgl64.Vec3
	Yaw          float64 // degrees, (-180, 180]
	Pitch        float64 // degrees
	Speed        float64 // scalar forward speed
	Radius       float64

	homePosition mgl64.Vec3
	homeYaw      float64
}

func newBody(home mgl64.Vec3, yaw, radius float64) Body {
	b := Body{Radius: radius, homePosition: home, homeYaw: yaw}
	b.reset()
	return b
}

// reset restores the default pose and clears motion.
func (b *Body) reset() {
	b.Position = b.homePosition
	b.LastPosition = b.homePosition
	b.Velocity = mgl64.Vec3{}
	b.Speed = 0
	b.Yaw = b.homeYaw
	b.Pitch = 0
}

// Home returns the default position restored by reset.
func (b *Body) Home() mgl64.Vec3 {
	return b.homePosition
}

// Entity is anything the resolver can test for contact.
type Entity interface {
	Kind() Kind
	Kinematics() *Body
}

// mover supplies the physics that differ per entity type.
type mover interface {
	Entity
	refreshVelocity()
	onOutOfHeight(candidate mgl64.Vec3)
	onOutOfBoundary(candidate mgl64.Vec3, delta float64)
}

// advance integrates one step and enforces containment. A candidate that
// leaves the band or the footprint is handed to the entity's hook and is
// never committed here.
func advance(m mover, f Field, delta float64) Containment {
	b := m.Kinematics()
	b.LastPosition = b.Position
	m.refreshVelocity()

	candidate := b.Position.Add(b.Velocity.Mul(delta))
	if !f.InBand(candidate) {
		m.onOutOfHeight(candidate)
		return OutOfHeight
	}
	if !f.InOval(candidate) {
		m.onOutOfBoundary(candidate, delta)
		return OutOfBoundary
	}

	b.Position = candidate
	return Inside
}

// Goal is a scoring hoop.
type Goal struct {
	Center    mgl64.Vec3
	Radius    float64
	Direction float64
}

// Open reports whether p is on the playing side of the goal line.
func (g Goal) Open(p mgl64.Vec3) bool {
	return (p.Z()-g.Center.Z())*g.Direction > 0
}

// Rules bundles the immutable geometry and constants every entity shares.
type Rules struct {
	Field   Field
	Physics config.PhysicsConfig
	North   Goal
	South   Goal
}

// NewRules builds the shared rule set.
func NewRules(field config.FieldConfig, physics config.PhysicsConfig) *Rules {
	return &Rules{
		Field:   NewField(field),
		Physics: physics,
		North:   newGoal(field.NorthGoal),
		South:   newGoal(field.SouthGoal),
	}
}

func newGoal(cfg config.GoalConfig) Goal {
	return Goal{Center: mgl64.Vec3(cfg.Center), Radius: cfg.Radius, Direction: cfg.Direction}
}

// AttackGoal returns the goal the given side scores into.
func (r *Rules) AttackGoal(s Side) Goal {
	if s == Home {
		return r.North
	}
	return r.South
}

// Collides is the symmetric approach-filtered contact test.
// Two players use twice the contact radius, every other pair the sum of radii.
func (r *Rules) Collides(a, b Entity) bool {
	return r.collidesWithin(a, b, r.contactRange(a, b))
}

func (r *Rules) contactRange(a, b Entity) float64 {
	if a.Kind() == KindPlayer && b.Kind() == KindPlayer {
		return 2 * r.Physics.PlayerContactRadius
	}
	return a.Kinematics().Radius + b.Kinematics().Radius
}

func (r *Rules) collidesWithin(a, b Entity, reach float64) bool {
	ab, bb := a.Kinematics(), b.Kinematics()
	dPos := ab.Position.Sub(bb.Position)
	dVel := ab.Velocity.Sub(bb.Velocity)

	// Resting or separating contacts never count.
	if dPos.Dot(dVel) >= r.Physics.ApproachThreshold {
		return false
	}
	return dPos.Len() < reach+r.Physics.CollisionEpsilon
}
