// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for field geometry, physics tuning,
// computer-player behaviour and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// FIELD CONFIGURATION
// =============================================================================

// GoalConfig describes a scoring hoop.
// A shot is valid while the ball is within Radius of Center and on the
// playing side of the goal line, where Direction is the sign of (ball.z - Center.z).
type GoalConfig struct {
	Center    [3]float64
	Radius    float64
	Direction float64
}

// FieldConfig holds the playing field geometry.
// The footprint is the ellipse (x/ShortAxis)^2 + (z/LongAxis)^2 <= 1 and
// the vertical band is [Bottom, Top].
type FieldConfig struct {
	LongAxis  float64
	ShortAxis float64
	Top       float64
	Bottom    float64

	NorthGoal GoalConfig // attacked by the home side
	SouthGoal GoalConfig // attacked by the away side
}

// DefaultField returns the default pitch.
func DefaultField() FieldConfig {
	return FieldConfig{
		LongAxis:  1100,
		ShortAxis: 420,
		Top:       250,
		Bottom:    -50,
		NorthGoal: GoalConfig{
			Center:    [3]float64{0, 85.5, -975},
			Radius:    400,
			Direction: 1,
		},
		SouthGoal: GoalConfig{
			Center:    [3]float64{0, 75.5, 990},
			Radius:    200,
			Direction: -1,
		},
	}
}

// =============================================================================
// PHYSICS CONFIGURATION
// =============================================================================

// PhysicsConfig holds per-tick integration constants.
// Speeds are in units per millisecond, the frame delta is in milliseconds.
type PhysicsConfig struct {
	Gravity              float64 // Added to velocity.y once per tick while airborne
	CollisionEpsilon     float64 // Slack added to every radius comparison
	ApproachThreshold    float64 // dot(dPos, dVel) must be below this to collide
	CollisionRestitution float64 // Player/player velocity exchange factor

	PlayerRadius        float64 // Nominal radius, used against the ball
	PlayerContactRadius float64 // Tighter radius, used player against player
	Acceleration        float64 // Speed change per accelerate/decelerate call
	MinSpeed            float64
	MaxSpeed            float64
	TurnRate            float64 // Degrees per millisecond for human turning
	MaxTurnPerTick      float64 // Hard cap on any single yaw change
	ClimbStep           float64 // Altitude change per millisecond
	CornerFraction      float64 // Both axes beyond this fraction counts as a corner
	MinFacingSpeed      float64 // Below this, facing is not derived from velocity

	BallRadius      float64
	BallRestitution float64
	SocketOffset    [3]float64 // Ball position in the holder's local frame
	ThrowSpeed      float64
}

// DefaultPhysics returns the default physics constants.
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		Gravity:              -0.02,
		CollisionEpsilon:     1e-3,
		ApproachThreshold:    -0.01,
		CollisionRestitution: 0.5,

		PlayerRadius:        42,
		PlayerContactRadius: 32,
		Acceleration:        0.002,
		MinSpeed:            0.01,
		MaxSpeed:            0.2,
		TurnRate:            0.25,
		MaxTurnPerTick:      5,
		ClimbStep:           0.1,
		CornerFraction:      0.9,
		MinFacingSpeed:      1e-3,

		BallRadius:      10,
		BallRestitution: 0.8,
		SocketOffset:    [3]float64{-10, 30, -25},
		ThrowSpeed:      0.8,
	}
}

// =============================================================================
// COMPUTER PLAYER CONFIGURATION
// =============================================================================

// AgentConfig tunes the computer-controlled players.
type AgentConfig struct {
	LookAheadRadius    float64 // Avoidance radius, larger than the contact radius
	BoundaryFraction   float64 // Steer home once either axis passes this fraction
	PassThreshold      float64 // Per-tick pass probability while threatened
	PassSpeed          float64
	ReactionDelayTicks int     // Holder waits this many ticks before aiming at goal
	StaggerMin         int     // Support players re-steer every StaggerMin..StaggerMax ticks
	StaggerMax         int
	SpeedCap           float64 // Fraction of MaxSpeed computer players accelerate to
	AttackRange        float64 // Attacker switches to the goal inside this range of the ball
}

// DefaultAgent returns the default computer player tuning.
func DefaultAgent() AgentConfig {
	return AgentConfig{
		LookAheadRadius:    150,
		BoundaryFraction:   0.9,
		PassThreshold:      0.02,
		PassSpeed:          0.8,
		ReactionDelayTicks: 200,
		StaggerMin:         4,
		StaggerMax:         12,
		SpeedCap:           0.8,
		AttackRange:        80,
	}
}

// AgentFromEnv returns agent configuration with environment variable overrides.
func AgentFromEnv() AgentConfig {
	cfg := DefaultAgent()

	if v := getEnvFloat("AI_PASS_THRESHOLD", -1); v >= 0 {
		cfg.PassThreshold = v
	}
	if v := getEnvInt("AI_REACTION_DELAY", -1); v >= 0 {
		cfg.ReactionDelayTicks = v
	}

	return cfg
}

// =============================================================================
// MATCH CONFIGURATION
// =============================================================================

// MatchConfig holds per-match rules and loop settings.
type MatchConfig struct {
	TickRate     int           // Simulation steps per second
	TeamSize     int           // Players per side
	HomeTeam     string        // House name of the human side
	AwayTeam     string        // House name of the computer side
	Seed         int64         // 0 picks a time-based seed
	GoalPoints   int           // Points per goal
	WinningScore int           // Match ends when a score exceeds this
	IntentTTL    time.Duration // Held intents expire after this long without a refresh
	EventLogPath string        // Empty disables the JSONL event file
}

// DefaultMatch returns the default match rules.
func DefaultMatch() MatchConfig {
	return MatchConfig{
		TickRate:     60,
		TeamSize:     3,
		HomeTeam:     "Gryffindor",
		AwayTeam:     "Slytherin",
		GoalPoints:   10,
		WinningScore: 40,
		IntentTTL:    250 * time.Millisecond,
		EventLogPath: "events.jsonl",
	}
}

// MatchFromEnv returns match configuration with environment variable overrides.
func MatchFromEnv() MatchConfig {
	cfg := DefaultMatch()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if ts := getEnvInt("TEAM_SIZE", 0); ts > 0 {
		cfg.TeamSize = ts
	}
	if v := os.Getenv("HOME_HOUSE"); v != "" {
		cfg.HomeTeam = v
	}
	if v := os.Getenv("AWAY_HOUSE"); v != "" {
		cfg.AwayTeam = v
	}
	if v := os.Getenv("MATCH_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = v
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int
	CORSOrigins       []string
	BroadcastInterval time.Duration // WebSocket state push period
	LogLevel          string        // debug, info, warn or error
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		CORSOrigins: []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		},
		BroadcastInterval: 100 * time.Millisecond, // 10 updates per second
		LogLevel:          "info",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if ms := getEnvInt("BROADCAST_INTERVAL_MS", 0); ms > 0 {
		cfg.BroadcastInterval = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Field   FieldConfig
	Physics PhysicsConfig
	Agent   AgentConfig
	Match   MatchConfig
	Server  ServerConfig
}

// Default returns the complete configuration without environment overrides.
func Default() AppConfig {
	return AppConfig{
		Field:   DefaultField(),
		Physics: DefaultPhysics(),
		Agent:   DefaultAgent(),
		Match:   DefaultMatch(),
		Server:  DefaultServer(),
	}
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Field:   DefaultField(),
		Physics: DefaultPhysics(),
		Agent:   AgentFromEnv(),
		Match:   MatchFromEnv(),
		Server:  ServerFromEnv(),
	}
}

// Validate reports every inconsistent setting at once.
func (c AppConfig) Validate() error {
	var errs []error

	if c.Field.LongAxis <= 0 || c.Field.ShortAxis <= 0 {
		errs = append(errs, fmt.Errorf("field axes must be positive, got long=%v short=%v", c.Field.LongAxis, c.Field.ShortAxis))
	}
	if c.Field.Top <= c.Field.Bottom {
		errs = append(errs, fmt.Errorf("field top %v must be above bottom %v", c.Field.Top, c.Field.Bottom))
	}
	if r := c.Physics.BallRestitution; r < 0 || r >= 1 {
		errs = append(errs, fmt.Errorf("ball restitution must be in [0,1), got %v", r))
	}
	if r := c.Physics.CollisionRestitution; r < 0 || r >= 1 {
		errs = append(errs, fmt.Errorf("collision restitution must be in [0,1), got %v", r))
	}
	if c.Physics.MinSpeed > c.Physics.MaxSpeed {
		errs = append(errs, fmt.Errorf("min speed %v exceeds max speed %v", c.Physics.MinSpeed, c.Physics.MaxSpeed))
	}
	if c.Physics.MaxTurnPerTick <= 0 {
		errs = append(errs, errors.New("max turn per tick must be positive"))
	}
	if c.Agent.StaggerMin < 1 || c.Agent.StaggerMin > c.Agent.StaggerMax {
		errs = append(errs, fmt.Errorf("stagger interval %d..%d is invalid", c.Agent.StaggerMin, c.Agent.StaggerMax))
	}
	if c.Agent.PassThreshold < 0 || c.Agent.PassThreshold > 1 {
		errs = append(errs, fmt.Errorf("pass threshold must be a probability, got %v", c.Agent.PassThreshold))
	}
	if c.Match.TeamSize < 1 || c.Match.TeamSize > 8 {
		errs = append(errs, fmt.Errorf("team size must be 1..8, got %d", c.Match.TeamSize))
	}
	if c.Match.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick rate must be positive, got %d", c.Match.TickRate))
	}

	return errors.Join(errs...)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
