package sim

// Resolver applies contact responses once per step.
type Resolver struct {
	rules *Rules
	hit   []bool
}

// NewResolver creates a resolver sharing rules.
func NewResolver(rules *Rules) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve scans every player against the free ball and every unordered
// player pair. Collided flags are read from the previous pass and written
// once at the end, so each pair sees the same history regardless of order.
func (r *Resolver) Resolve(players []*Player, ball *Ball, emit func(Event)) {
	if cap(r.hit) < len(players) {
		r.hit = make([]bool, len(players))
	}
	hit := r.hit[:len(players)]
	for i := range hit {
		hit[i] = false
	}

	for i, a := range players {
		if !ball.Held() && r.rules.Collides(ball, a) {
			ball.SetHolder(a.ID)
			a.HandUp = false
			emit(Event{Kind: EventPickup, Player: a.ID, Other: NoPlayer})
		}

		for j := i + 1; j < len(players); j++ {
			b := players[j]
			if !r.rules.Collides(a, b) {
				continue
			}
			hit[i], hit[j] = true, true
			r.exchange(a, b)
			emit(Event{Kind: EventTackle, Player: a.ID, Other: b.ID})
			r.contest(a, b, ball, emit)
		}
	}

	for i, p := range players {
		p.Collided = hit[i]
	}
}

// exchange moves both velocities toward each other along the relative
// velocity, scaled by the collision restitution.
func (r *Resolver) exchange(a, b *Player) {
	dv := b.Velocity.Sub(a.Velocity)
	l := dv.Len()
	if l < minDirection {
		return
	}
	n := dv.Mul(1 / l)
	impulse := n.Mul(dv.Dot(n) * r.rules.Physics.CollisionRestitution)
	a.Velocity = a.Velocity.Add(impulse)
	b.Velocity = b.Velocity.Sub(impulse)
}

// contest applies the possession rules for a colliding pair.
func (r *Resolver) contest(a, b *Player, ball *Ball, emit func(Event)) {
	holder, held := ball.Holder()
	if !held {
		a.Fall()
		b.Fall()
		return
	}

	var from, to *Player
	switch holder {
	case a.ID:
		from, to = a, b
	case b.ID:
		from, to = b, a
	default:
		a.Fall()
		b.Fall()
		return
	}

	// Sustained contact must not hand the ball back and forth.
	if !a.Collided && !b.Collided {
		ball.SetHolder(to.ID)
		emit(Event{Kind: EventSteal, Player: to.ID, Other: from.ID})
	}
	a.AlignToVelocity()
	b.AlignToVelocity()
}
