package sim

import (
	"math/rand"
	"testing"

	"quidditch/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// squad builds players with ids matching their index
func squad(rules *Rules, sides ...Side) []*Player {
	players := make([]*Player, len(sides))
	for i, s := range sides {
		players[i] = NewPlayer(PlayerID(i), s, Gryffindor, mgl64.Vec3{}, 0, rules)
	}
	return players
}

func newTestController(rules *Rules, rng Rand, n int) *Controller {
	return NewController(config.DefaultAgent(), rules, rng, n)
}

// TestStaggerIsSeeded tests that support intervals are reproducible and bounded
func TestStaggerIsSeeded(t *testing.T) {
	rules := testRules()
	cfg := config.DefaultAgent()

	a := NewController(cfg, rules, rand.New(rand.NewSource(7)), 12)
	b := NewController(cfg, rules, rand.New(rand.NewSource(7)), 12)

	for i := 0; i < 12; i++ {
		id := PlayerID(i)
		if a.Interval(id) != b.Interval(id) || a.phase[i] != b.phase[i] {
			t.Errorf("Player %d: same seed gave different staggers", i)
		}
		if iv := a.Interval(id); iv < cfg.StaggerMin || iv > cfg.StaggerMax {
			t.Errorf("Player %d: interval %d outside [%d, %d]", i, iv, cfg.StaggerMin, cfg.StaggerMax)
		}
		if a.phase[i] < 0 || a.phase[i] >= a.Interval(id) {
			t.Errorf("Player %d: phase %d outside interval %d", i, a.phase[i], a.Interval(id))
		}
	}
}

// TestAttackerSelection tests the single computer-side attacker
func TestAttackerSelection(t *testing.T) {
	tests := []struct {
		name     string
		holder   PlayerID
		expected PlayerID
	}{
		{"free ball", NoPlayer, 4},
		{"human carries", 0, 4},
		{"home teammate carries", 1, NoPlayer},
		{"computer carries", 5, NoPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, 3, nil)
			// A home teammate nearest the ball must still never attack.
			w.Players()[2].Position = mgl64.Vec3{0, 190, 0}
			if tt.holder != NoPlayer {
				w.Ball().SetHolder(tt.holder)
			}

			if got := w.Agent().attacker(w.Players(), w.Ball()); got != tt.expected {
				t.Errorf("Expected attacker %d, got %d", tt.expected, got)
			}
		})
	}
}

// TestOneAttackerPerTick tests that only one computer player chases at a time
func TestOneAttackerPerTick(t *testing.T) {
	w := newTestWorld(t, 3, nil)

	for i := 0; i < 120; i++ {
		w.Step(16, Intents{})

		attackers := 0
		for _, p := range w.Players() {
			if w.Agent().Role(p.ID) != RoleAttacker {
				continue
			}
			attackers++
			if p.Side != ComputerSide {
				t.Fatalf("Tick %d: home player %d promoted to attacker", w.Tick(), p.ID)
			}
		}
		if attackers > 1 {
			t.Fatalf("Tick %d: expected at most one attacker, got %d", w.Tick(), attackers)
		}
		if i == 0 && attackers != 1 {
			t.Errorf("Expected exactly one attacker at kickoff, got %d", attackers)
		}
	}
}

// TestEvadeApproachingThreat tests steering away from a closing player
func TestEvadeApproachingThreat(t *testing.T) {
	rules := testRules()
	players := squad(rules, Home, Away)
	user, p := players[0], players[1]
	user.UserControlled = true
	place(user, mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, -0.1})
	place(p, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{})
	p.Yaw = 90
	ball := NewBall(mgl64.Vec3{0, 200, 300}, rules, roster(players))

	c := newTestController(rules, fixedRand{f: 0.5}, len(players))
	c.Step(1, players, ball, func(Event) {})

	if got := c.Role(p.ID); got != RoleEvading {
		t.Fatalf("Expected evading, got %v", got)
	}
	// Away from the threat is -z, yaw 0; one bounded step from 90.
	if !approxEqual(p.Yaw, 85) {
		t.Errorf("Expected yaw 85, got %v", p.Yaw)
	}
	if got := c.Role(user.ID); got != RoleIdle {
		t.Errorf("Human player should be idle, got %v", got)
	}
}

// TestSeparatingPlayerIsNoThreat tests the approach filter on look-ahead
func TestSeparatingPlayerIsNoThreat(t *testing.T) {
	rules := testRules()
	players := squad(rules, Home, Away)
	user, p := players[0], players[1]
	user.UserControlled = true
	place(user, mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, 0.1})
	place(p, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{})
	ball := NewBall(mgl64.Vec3{0, 200, 300}, rules, roster(players))

	c := newTestController(rules, fixedRand{}, len(players))
	c.Step(1, players, ball, func(Event) {})

	if got := c.Role(p.ID); got == RoleEvading {
		t.Error("Separating player should not trigger evasion")
	}
}

// TestReturnFromEdge tests steering back toward the centre
func TestReturnFromEdge(t *testing.T) {
	rules := testRules()
	players := squad(rules, Home, Away)
	players[0].UserControlled = true
	place(players[0], mgl64.Vec3{0, 0, -500}, mgl64.Vec3{})
	p := players[1]
	place(p, mgl64.Vec3{0, 0, 1000}, mgl64.Vec3{})
	p.Yaw = 20
	ball := NewBall(mgl64.Vec3{}, rules, roster(players))

	c := newTestController(rules, fixedRand{}, len(players))
	c.Step(1, players, ball, func(Event) {})

	if got := c.Role(p.ID); got != RoleReturning {
		t.Fatalf("Expected returning, got %v", got)
	}
	if !approxEqual(p.Yaw, 15) {
		t.Errorf("Expected yaw 15, got %v", p.Yaw)
	}
}

// TestHolderPassesUnderPressure tests the threat-triggered pass
func TestHolderPassesUnderPressure(t *testing.T) {
	tests := []struct {
		name     string
		draw     float64
		wantRole Role
		wantPass bool
	}{
		{"draw below threshold", 0, RoleHolder, true},
		{"draw above threshold", 0.5, RoleEvading, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := testRules()
			players := squad(rules, Home, Away, Away)
			user, p, mate := players[0], players[1], players[2]
			user.UserControlled = true
			place(user, mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, -0.1})
			place(p, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{})
			place(mate, mgl64.Vec3{300, 0, 0}, mgl64.Vec3{})
			mate.UserControlled = true // keep the mate still
			ball := NewBall(mgl64.Vec3{}, rules, roster(players))
			ball.SetHolder(p.ID)

			var events recorder
			c := newTestController(rules, fixedRand{f: tt.draw}, len(players))
			c.Step(1, players, ball, events.emit)

			if got := c.Role(p.ID); got != tt.wantRole {
				t.Errorf("Expected role %v, got %v", tt.wantRole, got)
			}
			if tt.wantPass {
				if ball.Held() {
					t.Fatal("Expected ball released")
				}
				// The mate lies along +x, yaw -90; one bounded step from 0.
				if !approxEqual(p.Yaw, -config.DefaultPhysics().MaxTurnPerTick) {
					t.Errorf("Expected one bounded turn toward the mate, got yaw %v", p.Yaw)
				}
				want := mgl64.Vec3{config.DefaultAgent().PassSpeed, 0, 0}
				if !approxVec(ball.Velocity, want) {
					t.Errorf("Expected pass velocity %v, got %v", want, ball.Velocity)
				}
				if events.count(EventPass) != 1 || events[0].Other != mate.ID {
					t.Errorf("Expected one pass event to %d, got %v", mate.ID, events)
				}
			} else if !ball.Held() {
				t.Error("Expected ball kept")
			}
		})
	}
}

// TestCarryWaitsForReaction tests the goal beeline gate
func TestCarryWaitsForReaction(t *testing.T) {
	rules := testRules()
	players := squad(rules, Home, Away)
	players[0].UserControlled = true
	place(players[0], mgl64.Vec3{0, 0, -500}, mgl64.Vec3{})
	p := players[1]
	p.Yaw = 90
	ball := NewBall(mgl64.Vec3{}, rules, roster(players))
	ball.SetHolder(p.ID)

	c := newTestController(rules, fixedRand{f: 0.5}, len(players))
	c.Step(1, players, ball, func(Event) {})

	if got := c.Role(p.ID); got != RoleHolder {
		t.Fatalf("Expected holder, got %v", got)
	}
	if p.Yaw != 90 {
		t.Errorf("Expected no turn before reaction delay, got yaw %v", p.Yaw)
	}
	if p.Speed <= 0 {
		t.Error("Holder should still accelerate")
	}

	c.reaction = config.DefaultAgent().ReactionDelayTicks
	c.Step(2, players, ball, func(Event) {})
	if !c.Ready() {
		t.Fatal("Expected reaction delay elapsed")
	}
	// South goal lies along +z, yaw 180.
	if !approxEqual(p.Yaw, 95) {
		t.Errorf("Expected yaw 95 toward goal, got %v", p.Yaw)
	}

	c.ResetReaction()
	if c.Ready() || c.Reaction() != 0 {
		t.Error("ResetReaction should restart the delay")
	}
}

// TestSupportHonoursStagger tests that support players only steer on their tick
func TestSupportHonoursStagger(t *testing.T) {
	rules := testRules()
	players := squad(rules, Home, Away, Away)
	players[0].UserControlled = true
	place(players[0], mgl64.Vec3{0, 0, -500}, mgl64.Vec3{})
	place(players[1], mgl64.Vec3{0, 0, 60}, mgl64.Vec3{})
	support := players[2]
	place(support, mgl64.Vec3{200, 0, 0}, mgl64.Vec3{})
	ball := NewBall(mgl64.Vec3{}, rules, roster(players))

	// fixedRand{n: 0} gives interval StaggerMin and phase 0.
	c := newTestController(rules, fixedRand{}, len(players))
	interval := c.Interval(support.ID)

	for tick := uint64(1); tick < uint64(interval); tick++ {
		c.Step(tick, players, ball, func(Event) {})
		if got := c.Role(support.ID); got != RoleSupport {
			t.Fatalf("Tick %d: expected support, got %v", tick, got)
		}
		if support.Yaw != 0 {
			t.Fatalf("Tick %d: support turned off-stagger to %v", tick, support.Yaw)
		}
	}

	c.Step(uint64(interval), players, ball, func(Event) {})
	// Ball is along -x, yaw 90.
	if !approxEqual(support.Yaw, 5) {
		t.Errorf("Expected yaw 5 on stagger tick, got %v", support.Yaw)
	}
	if got := c.Role(players[1].ID); got != RoleAttacker {
		t.Errorf("Expected nearest player to attack, got %v", got)
	}
}

// TestSupportMirrorsHolder tests matching the holder's heading
func TestSupportMirrorsHolder(t *testing.T) {
	rules := testRules()
	players := squad(rules, Home, Away, Away)
	players[0].UserControlled = true
	place(players[0], mgl64.Vec3{0, 0, -500}, mgl64.Vec3{})
	holder, support := players[1], players[2]
	holder.Yaw = 30
	place(support, mgl64.Vec3{200, 0, 0}, mgl64.Vec3{})
	ball := NewBall(mgl64.Vec3{}, rules, roster(players))
	ball.SetHolder(holder.ID)

	c := newTestController(rules, fixedRand{f: 0.5}, len(players))
	c.Step(uint64(c.Interval(support.ID)), players, ball, func(Event) {})

	if !approxEqual(support.Yaw, 5) {
		t.Errorf("Expected support to turn toward holder yaw, got %v", support.Yaw)
	}
}

// TestRoleString tests role names
func TestRoleString(t *testing.T) {
	tests := []struct {
		role     Role
		expected string
	}{
		{RoleIdle, "idle"},
		{RoleEvading, "evading"},
		{RoleReturning, "returning"},
		{RoleHolder, "holder"},
		{RoleAttacker, "attacker"},
		{RoleSupport, "support"},
	}

	for _, tt := range tests {
		if got := tt.role.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}
