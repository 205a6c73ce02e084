package sim

import (
	"math"
	"math/rand"
	"testing"

	"quidditch/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// fixedRand always returns the same draws
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(n int) int   { return r.n % n }

func testRules() *Rules {
	return NewRules(config.DefaultField(), config.DefaultPhysics())
}

func newTestWorld(t *testing.T, teamSize int, rng Rand) *World {
	t.Helper()
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return NewWorld(WorldOptions{
		Field:    config.DefaultField(),
		Physics:  config.DefaultPhysics(),
		Agent:    config.DefaultAgent(),
		TeamSize: teamSize,
		Home:     Gryffindor,
		Away:     Slytherin,
		Rand:     rng,
	})
}

// place parks a player at pos with the given velocity
func place(p *Player, pos, vel mgl64.Vec3) {
	p.Position = pos
	p.LastPosition = pos
	p.Velocity = vel
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func approxVec(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-9)
}
