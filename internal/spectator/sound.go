package spectator

import (
	"sync"
	"time"

	"quidditch/internal/match"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Chimes plays short tones for match events. Audio is optional: when the
// speaker cannot be opened every call is a no-op.
type Chimes struct {
	mu    sync.Mutex
	ready bool
}

// NewChimes returns silent chimes until Init succeeds.
func NewChimes() *Chimes {
	return &Chimes{}
}

// Init opens the speaker.
func (c *Chimes) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	c.ready = true
	return nil
}

// Play queues the cue for t, if it has one.
func (c *Chimes) Play(t match.EventType) {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()
	if !ready {
		return
	}
	if s := cue(t); s != nil {
		speaker.Play(s)
	}
}

// Close stops playback.
func (c *Chimes) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		speaker.Clear()
		speaker.Close()
		c.ready = false
	}
}

// cue builds the tone sequence for an event type. Nil means silence.
func cue(t match.EventType) beep.Streamer {
	switch t {
	case match.EventTypeGoal:
		return beep.Seq(tone(660, 90*time.Millisecond), tone(880, 90*time.Millisecond), tone(1320, 160*time.Millisecond))
	case match.EventTypeMatchOver:
		return beep.Seq(tone(880, 120*time.Millisecond), tone(660, 120*time.Millisecond), tone(440, 300*time.Millisecond))
	case match.EventTypeTackle:
		return tone(196, 70*time.Millisecond)
	case match.EventTypeSteal:
		return beep.Seq(tone(392, 50*time.Millisecond), tone(523, 50*time.Millisecond))
	}
	return nil
}

func tone(freq float64, d time.Duration) beep.Streamer {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return beep.Silence(sampleRate.N(d))
	}
	return &effects.Volume{
		Streamer: beep.Take(sampleRate.N(d), sine),
		Base:     2,
		Volume:   -2,
	}
}
