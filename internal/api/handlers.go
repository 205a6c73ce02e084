package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quidditch/internal/match"
	"quidditch/internal/radar"
	"quidditch/internal/sim"

	"github.com/charmbracelet/log"
)

// maxIntentBody bounds POST /api/intent bodies.
const maxIntentBody = 4 << 10

// Default radar size, portrait like the pitch.
const (
	defaultRadarWidth  = 300
	defaultRadarHeight = 600
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.session.Snapshot())
}

func (h *routerHandlers) handleGetTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.session.Catalog().All())
}

func (h *routerHandlers) handleGetScope(w http.ResponseWriter, r *http.Request) {
	scope, err := h.session.Scope()
	if errors.Is(err, match.ErrNoHolder) {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, scope)
}

func (h *routerHandlers) handleIntent(w http.ResponseWriter, r *http.Request) {
	var in sim.Intents
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntentBody)).Decode(&in); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.session.SubmitIntent(in); err != nil {
		writeIntentError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *routerHandlers) handleSwitch(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Switch(); err != nil {
		writeIntentError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *routerHandlers) handleRematch(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Rematch()
	log.Info("🔁 Rematch requested", "ip", GetClientIP(r), "match", snap.MatchID)
	writeJSON(w, snap)
}

func (h *routerHandlers) handleRadar(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "w", defaultRadarWidth)
	if err != nil {
		writeError(w, "w must be an integer", http.StatusBadRequest)
		return
	}
	height, err := queryInt(r, "h", defaultRadarHeight)
	if err != nil {
		writeError(w, "h must be an integer", http.StatusBadRequest)
		return
	}

	// Render fully before writing so a size error can still set the status.
	var buf bytes.Buffer
	if err := h.radar.RenderPNG(&buf, h.session.Snapshot(), width, height); err != nil {
		if errors.Is(err, radar.ErrBadSize) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error("radar render failed", "err", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"match":  snap.MatchID,
		"tick":   snap.Tick,
		"phase":  snap.Phase,
	})
}

func writeIntentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sim.ErrInvalidIntent):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, match.ErrMatchOver):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
