package main

import (
	"context"
	"os"
	"time"

	"quidditch/internal/config"
	"quidditch/internal/match"
	"quidditch/internal/sim"
	"quidditch/internal/spectator"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
)

// inputInterval is how often held keys are sent. It stays well under the
// server's intent TTL.
const inputInterval = 50 * time.Millisecond

func main() {
	if err := godotenv.Load(".env"); err != nil {
		godotenv.Load("../.env")
	}

	// The terminal belongs to tcell, so logs go to a file.
	logPath := getEnvWithDefault("SPECTATOR_LOG", "spectator.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		defer f.Close()
		log.SetOutput(f)
	}

	host := getEnvWithDefault("SPECTATOR_SERVER", "localhost:3000")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := spectator.Dial(ctx, host)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect", "server", host, "err", err)
	}
	defer client.Close()
	log.Info("📡 Connected", "server", host)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal("Failed to create screen", "err", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal("Failed to init screen", "err", err)
	}
	defer screen.Fini()

	chimes := spectator.NewChimes()
	if os.Getenv("SPECTATOR_SOUND") != "false" {
		if err := chimes.Init(); err != nil {
			// Non-fatal, the match can be watched without sound
			log.Warn("🔇 Audio initialization failed", "err", err)
		}
	}
	defer chimes.Close()

	run(screen, client, chimes)
}

func run(screen tcell.Screen, client *spectator.Client, chimes *spectator.Chimes) {
	view := spectator.NewView(config.DefaultField(), sim.DefaultCatalog())
	controls := spectator.NewControls()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(inputInterval)
	defer ticker.Stop()

	var latest *match.Snapshot
	view.Draw(screen, nil)

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch a := spectator.ActionFor(ev); a {
				case spectator.ActionQuit:
					return
				case spectator.ActionRematch:
					if err := client.Rematch(context.Background()); err != nil {
						log.Warn("⚠️ Rematch failed", "err", err)
					}
				default:
					controls.Press(a, time.Now())
				}
			case *tcell.EventResize:
				screen.Sync()
				view.Draw(screen, latest)
			}

		case <-ticker.C:
			in := controls.Frame(time.Now())
			if in == (sim.Intents{}) {
				continue
			}
			if err := client.SendIntent(in); err != nil {
				log.Warn("⚠️ Send failed", "err", err)
			}

		case snap := <-client.States():
			latest = snap
			view.Draw(screen, latest)

		case e := <-client.Events():
			log.Info("🎯 Event", "type", e.Type, "tick", e.TickNum)
			chimes.Play(e.Type)

		case <-client.Done():
			log.Warn("📡 Disconnected", "err", client.Err())
			return
		}
	}
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
