package api

import (
	"io"

	"quidditch/internal/match"
	"quidditch/internal/sim"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SessionInterface defines the match methods used by the API.
// Keep this minimal so tests can stub it without running the loop.
type SessionInterface interface {
	// Snapshot returns the latest immutable published state
	Snapshot() *match.Snapshot
	// SubmitIntent queues human input for the next tick
	SubmitIntent(in sim.Intents) error
	// Switch moves control to the home player nearest the ball
	Switch() error
	// Rematch resets the match and returns the fresh state
	Rematch() *match.Snapshot
	// Scope reports the holder's distance from the goal it attacks
	Scope() (match.Scope, error)
	// Catalog lists the houses
	Catalog() *sim.Catalog
	// EventLogStats reports event log counters for metrics
	EventLogStats() match.LogStats
}

// RadarInterface renders the minimap served at /radar.png.
type RadarInterface interface {
	RenderPNG(w io.Writer, snap *match.Snapshot, width, height int) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Session: stub,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Session is the running match (required)
	Session SessionInterface

	// Radar draws /radar.png. The route is omitted when nil.
	Radar RadarInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed origins.
	// If nil, DefaultAllowedOrigins is used.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	session SessionInterface
	radar   RadarInterface
}

// NewRouter constructs the HTTP router with all middleware and routes.
// It opens no listeners, so it is safe to wrap in httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultAllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		session: cfg.Session,
		radar:   cfg.Radar,
	}

	r.Route("/api", func(r chi.Router) {
		// Match state
		r.Get("/state", h.handleGetState)
		r.Get("/teams", h.handleGetTeams)
		r.Get("/scope", h.handleGetScope)

		// Human input
		r.Post("/intent", h.handleIntent)
		r.Post("/switch", h.handleSwitch)
		r.Post("/rematch", h.handleRematch)
	})

	if h.radar != nil {
		r.Get("/radar.png", h.handleRadar)
	}

	r.Get("/health", h.handleHealth)

	return r
}
