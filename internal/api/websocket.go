package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"quidditch/internal/match"
	"quidditch/internal/sim"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// maxWSMessageSize bounds one client frame
	maxWSMessageSize = 4 << 10

	// writeWait bounds one broadcast write
	writeWait = time.Second
)

// Outbound event names
const (
	EventMatchState = "match:state"
	EventMatchEvent = "match:event"
)

// wsEnvelope is the outbound frame shape.
type wsEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsCommand is an inbound frame. Type is "intent" or "switch".
type wsCommand struct {
	Type   string      `json:"type"`
	Intent sim.Intents `json:"intent"`
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// WebSocketHub pushes match state to spectators and feeds their intents back
// into the session.
type WebSocketHub struct {
	session SessionInterface

	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	upgrader  websocket.Upgrader
	wsLimiter *WebSocketRateLimiter

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a hub that accepts the given origins.
func NewWebSocketHub(session SessionInterface, origins []string) *WebSocketHub {
	h := &WebSocketHub{
		session:    session,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		stopChan:   make(chan struct{}),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if IsAllowedOrigin(origin, origins) {
				return true
			}
			log.Warn("⚠️ WebSocket connection rejected", "origin", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}

	return h
}

// Run serves registrations and broadcasts until Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Info("📱 Client connected", "ip", client.ip, "total", count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.drop(conn)
			count := len(h.clients)
			h.mu.Unlock()

			log.Info("📱 Client disconnected", "remaining", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.drop(conn)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()

			UpdateWSConnections(count)
			IncrementWSMessages()
		}
	}
}

// drop closes conn and releases its IP slot. Caller holds h.mu.
func (h *WebSocketHub) drop(conn *websocket.Conn) {
	if client, ok := h.clients[conn]; ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.drop(conn)
	}
	UpdateWSConnections(0)
}

// Stop ends Run and the broadcast loop and closes every connection.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends an event to all connected clients. It drops the message
// when the queue is full.
func (h *WebSocketHub) Broadcast(event string, data any) {
	jsonBytes, err := json.Marshal(wsEnvelope{Event: event, Data: data})
	if err != nil {
		log.Error("broadcast marshal failed", "event", event, "err", err)
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
	}
}

// BroadcastEvent forwards a match event, skipping periodic tick markers.
func (h *WebSocketHub) BroadcastEvent(e match.Event) {
	if e.Type == match.EventTypeTick {
		return
	}
	h.Broadcast(EventMatchEvent, e)
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest snapshot every interval while clients
// are connected and the state has moved on.
func (h *WebSocketHub) StartBroadcastLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64

		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			UpdateEventLogStats(h.session.EventLogStats())

			if h.ClientCount() == 0 {
				continue
			}
			snap := h.session.Snapshot()
			if snap == nil || snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			h.Broadcast(EventMatchState, snap)
		}
	}()
}

// HandleWebSocket upgrades the request and reads client commands until the
// connection closes.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Warn("⚠️ WebSocket connection rejected: total limit reached", "total", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Warn("⚠️ WebSocket connection rejected: per-IP limit reached", "ip", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("WebSocket upgrade failed", "err", err)
		h.wsLimiter.Release(ip)
		return
	}
	conn.SetReadLimit(maxWSMessageSize)

	select {
	case h.register <- &wsClient{conn: conn, ip: ip}:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.readLoop(conn, ip)
}

func (h *WebSocketHub) readLoop(conn *websocket.Conn, ip string) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stopChan:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		if err := h.apply(cmd); err != nil && !errors.Is(err, match.ErrMatchOver) {
			log.Debug("📨 WebSocket command rejected", "ip", ip, "type", cmd.Type, "err", err)
		}
	}
}

func (h *WebSocketHub) apply(cmd wsCommand) error {
	switch cmd.Type {
	case "intent":
		return h.session.SubmitIntent(cmd.Intent)
	case "switch":
		return h.session.Switch()
	default:
		return errors.New("unknown command " + cmd.Type)
	}
}
