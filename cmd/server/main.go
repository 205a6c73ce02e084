package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quidditch/internal/api"
	"quidditch/internal/config"
	"quidditch/internal/match"
	"quidditch/internal/radar"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Info("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Info("✅ Loaded environment from ../.env")
	}

	appConfig := config.Load()
	setupLogging(appConfig.Server.LogLevel)

	log.Info("🧹 ================================")
	log.Info("🧹  QUIDDITCH - MATCH SERVER")
	log.Info("🧹 ================================")

	if err := appConfig.Validate(); err != nil {
		log.Fatal("Invalid configuration", "err", err)
	}

	session, err := match.NewSession(appConfig)
	if err != nil {
		log.Fatal("Failed to create match", "err", err)
	}
	log.Info("🎮 Config",
		"tps", appConfig.Match.TickRate,
		"teamSize", appConfig.Match.TeamSize,
		"home", appConfig.Match.HomeTeam,
		"away", appConfig.Match.AwayTeam,
		"seed", session.Seed(),
	)

	// Start event log
	if err := session.StartEventLog(appConfig.Match.EventLogPath); err != nil {
		log.Warn("⚠️ Event log disabled", "err", err)
	} else if appConfig.Match.EventLogPath != "" {
		log.Info("📝 Event log", "path", appConfig.Match.EventLogPath)
	}

	// Start debug server
	if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
		log.Warn("⚠️ Debug server disabled", "err", err)
	}

	renderer := radar.New(appConfig.Field, appConfig.Physics, session.Catalog())
	server := api.NewServer(session, renderer, appConfig.Server)

	session.SetCallbacks(api.RecordTick, func(e match.Event) {
		api.RecordEvent(e)
		server.Hub().BroadcastEvent(e)
	})

	session.Start()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", "err", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Info("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("⚠️ HTTP shutdown", "err", err)
	}
	session.Stop()
	session.StopEventLog()

	stats := session.EventLogStats()
	log.Info("👋 Goodbye!", "events", stats.Total, "dropped", stats.Dropped)
}

func setupLogging(level string) {
	log.SetReportTimestamp(true)
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("⚠️ Unknown LOG_LEVEL, using info", "level", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
