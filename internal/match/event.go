package match

import (
	"encoding/json"
	"time"

	"quidditch/internal/sim"

	"github.com/oklog/ulid/v2"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Periodic tick boundary with seed
	EventTypePickup
	EventTypeSteal
	EventTypeTackle
	EventTypePass
	EventTypeThrow
	EventTypeOutOfBounds
	EventTypeLanded
	EventTypeControl
	EventTypeGoal
	EventTypeMatchOver
	EventTypeRematch
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// TickEventEvery is how often a tick boundary is logged.
const TickEventEvery = 60

// Event is the core event structure for the event log
type Event struct {
	ID        string          `json:"id"`        // ULID, sortable by creation time
	Version   uint8           `json:"version"`   // Schema version
	Type      EventType       `json:"type"`      // Event type
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	TickNum   uint64          `json:"tickNum"`   // Match tick this occurred in
	MatchID   string          `json:"matchId"`
	PlayerID  sim.PlayerID    `json:"playerId"` // Source player (for rate limiting), NoPlayer if none
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypePickup:
		return "pickup"
	case EventTypeSteal:
		return "steal"
	case EventTypeTackle:
		return "tackle"
	case EventTypePass:
		return "pass"
	case EventTypeThrow:
		return "throw"
	case EventTypeOutOfBounds:
		return "out_of_bounds"
	case EventTypeLanded:
		return "landed"
	case EventTypeControl:
		return "control"
	case EventTypeGoal:
		return "goal"
	case EventTypeMatchOver:
		return "match_over"
	case EventTypeRematch:
		return "rematch"
	default:
		return "unknown"
	}
}

// MarshalText writes the type by name in JSON.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a type name; unknown names map to EventTypeUnknown.
func (t *EventType) UnmarshalText(text []byte) error {
	name := string(text)
	for c := EventTypeTick; c <= EventTypeRematch; c++ {
		if c.String() == name {
			*t = c
			return nil
		}
	}
	*t = EventTypeUnknown
	return nil
}

// fromSim maps a simulation event kind onto the log taxonomy.
func fromSim(k sim.EventKind) EventType {
	switch k {
	case sim.EventPickup:
		return EventTypePickup
	case sim.EventSteal:
		return EventTypeSteal
	case sim.EventTackle:
		return EventTypeTackle
	case sim.EventPass:
		return EventTypePass
	case sim.EventThrow:
		return EventTypeThrow
	case sim.EventOutOfBounds:
		return EventTypeOutOfBounds
	case sim.EventLanded:
		return EventTypeLanded
	case sim.EventControl:
		return EventTypeControl
	default:
		return EventTypeUnknown
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	Seed    int64   `json:"seed"`
	Players int     `json:"players"`
	DeltaMs float64 `json:"deltaMs"`
}

// ContactPayload names the players involved in a simulation event
type ContactPayload struct {
	Player sim.PlayerID `json:"player"`
	Other  sim.PlayerID `json:"other"`
}

// GoalPayload contains goal details
type GoalPayload struct {
	Side      string       `json:"side"`
	Scorer    sim.PlayerID `json:"scorer"`
	HomeScore int          `json:"homeScore"`
	AwayScore int          `json:"awayScore"`
	Receiver  sim.PlayerID `json:"receiver"`
}

// MatchOverPayload contains the final result
type MatchOverPayload struct {
	Winner    string `json:"winner"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, playerID sim.PlayerID, payload interface{}) Event {
	now := time.Now()
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: now.UnixNano(),
		TickNum:   tickNum,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
