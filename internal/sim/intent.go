package sim

import "errors"

// ErrInvalidIntent is returned for contradictory intent frames.
var ErrInvalidIntent = errors.New("sim: contradictory intent")

// Intents is one frame of human input. Throw and Switch are edge-triggered,
// the rest are held.
type Intents struct {
	TurnLeft    bool `json:"turnLeft"`
	TurnRight   bool `json:"turnRight"`
	Up          bool `json:"up"`
	Down        bool `json:"down"`
	Accelerate  bool `json:"accelerate"`
	Decelerate  bool `json:"decelerate"`
	ResetFacing bool `json:"resetFacing"`
	Throw       bool `json:"throw"`
	Switch      bool `json:"switch"`
}

// Validate rejects frames that press opposing controls together.
func (in Intents) Validate() error {
	if (in.TurnLeft && in.TurnRight) || (in.Up && in.Down) || (in.Accelerate && in.Decelerate) {
		return ErrInvalidIntent
	}
	return nil
}

// Held returns only the held controls.
func (in Intents) Held() Intents {
	in.Throw = false
	in.Switch = false
	return in
}

// Merge keeps the newest held controls and accumulates edge triggers.
func (in Intents) Merge(next Intents) Intents {
	out := next
	out.Throw = in.Throw || next.Throw
	out.Switch = in.Switch || next.Switch
	return out
}
