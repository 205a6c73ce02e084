package match

import (
	"time"

	"quidditch/internal/sim"
)

// intentBuffer holds the latest human input between ticks. Held controls
// expire after ttl so a vanished client stops steering; Throw and Switch
// are delivered exactly once.
type intentBuffer struct {
	ttl     time.Duration
	pending sim.Intents
	heldAt  time.Time
}

func (b *intentBuffer) submit(in sim.Intents, now time.Time) {
	b.pending = b.pending.Merge(in)
	b.heldAt = now
}

// requestSwitch sets the Switch edge and leaves the held controls and their
// TTL untouched.
func (b *intentBuffer) requestSwitch() {
	b.pending.Switch = true
}

// take returns the frame for this tick and consumes the edge triggers.
func (b *intentBuffer) take(now time.Time) sim.Intents {
	out := b.pending
	if b.ttl > 0 && now.Sub(b.heldAt) > b.ttl {
		out = sim.Intents{Throw: out.Throw, Switch: out.Switch}
		b.pending = sim.Intents{}
	} else {
		b.pending = b.pending.Held()
	}
	return out
}

func (b *intentBuffer) clear() {
	b.pending = sim.Intents{}
	b.heldAt = time.Time{}
}
