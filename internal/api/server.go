package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"quidditch/internal/config"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
type Server struct {
	session     SessionInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	interval    time.Duration
}

// NewServer creates a server for session. Background workers do not start
// until Start is called, so Router can be used with httptest directly.
func NewServer(session SessionInterface, radar RadarInterface, cfg config.ServerConfig) *Server {
	s := &Server{
		session:     session,
		wsHub:       NewWebSocketHub(session, cfg.CORSOrigins),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
		interval:    cfg.BroadcastInterval,
	}
	if s.interval <= 0 {
		s.interval = config.DefaultServer().BroadcastInterval
	}

	s.router = NewRouter(RouterConfig{
		Session:     session,
		Radar:       radar,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	// The hub instance is per server, so its route is added here.
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Hub returns the WebSocket hub, e.g. to forward match events.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) startWorkers() {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.interval)
}

// Start launches the workers and serves until Shutdown. It returns nil after
// a graceful shutdown.
func (s *Server) Start() error {
	s.startWorkers()

	log.Info("🌐 API server starting", "addr", s.httpServer.Addr)
	log.Info("🗺️ Radar: http://localhost" + s.httpServer.Addr + "/radar.png")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes WebSocket clients and stops the
// background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return err
}
