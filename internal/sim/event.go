package sim

// EventKind classifies something that happened during a step.
type EventKind uint8

const (
	EventPickup      EventKind = iota // free ball collected
	EventSteal                        // possession moved between colliding players
	EventTackle                       // player contact
	EventPass                         // computer holder released to a teammate
	EventThrow                        // human holder released the ball
	EventOutOfBounds                  // player hit the boundary and fell
	EventLanded                       // falling player reached the bottom
	EventControl                      // human control moved to another player
)

// String returns human-readable event kind
func (k EventKind) String() string {
	switch k {
	case EventPickup:
		return "pickup"
	case EventSteal:
		return "steal"
	case EventTackle:
		return "tackle"
	case EventPass:
		return "pass"
	case EventThrow:
		return "throw"
	case EventOutOfBounds:
		return "out_of_bounds"
	case EventLanded:
		return "landed"
	case EventControl:
		return "control"
	default:
		return "unknown"
	}
}

// Event is one step outcome. Other is NoPlayer when unused.
type Event struct {
	Kind   EventKind
	Tick   uint64
	Player PlayerID
	Other  PlayerID
}
