package spectator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"quidditch/internal/match"
	"quidditch/internal/sim"

	"github.com/gorilla/websocket"
)

// Origin sent on the WebSocket handshake. The server only accepts
// configured origins and loopback is allowed by default.
const Origin = "http://localhost"

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type command struct {
	Type   string      `json:"type"`
	Intent sim.Intents `json:"intent"`
}

// Client is a spectator connection to a match server.
type Client struct {
	conn   *websocket.Conn
	base   string // http://host
	httpc  *http.Client
	writeM sync.Mutex

	states chan *match.Snapshot
	events chan match.Event
	done   chan struct{}
	err    error
}

// Dial connects to the server at host (e.g. "localhost:3000").
func Dial(ctx context.Context, host string) (*Client, error) {
	header := http.Header{"Origin": {Origin}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+host+"/ws", header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}

	c := &Client{
		conn:   conn,
		base:   "http://" + host,
		httpc:  &http.Client{Timeout: 5 * time.Second},
		states: make(chan *match.Snapshot, 1),
		events: make(chan match.Event, 32),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// States delivers the newest snapshot. Older unread ones are discarded.
func (c *Client) States() <-chan *match.Snapshot { return c.states }

// Events delivers match events such as goals and tackles.
func (c *Client) Events() <-chan match.Event { return c.events }

// Done is closed when the connection ends. Err then reports why.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the read error that ended the connection.
func (c *Client) Err() error {
	<-c.done
	return c.err
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.err = err
			return
		}

		switch env.Event {
		case "match:state":
			var snap match.Snapshot
			if err := json.Unmarshal(env.Data, &snap); err != nil {
				continue
			}
			c.pushState(&snap)
		case "match:event":
			var e match.Event
			if err := json.Unmarshal(env.Data, &e); err != nil {
				continue
			}
			select {
			case c.events <- e:
			default:
			}
		}
	}
}

func (c *Client) pushState(snap *match.Snapshot) {
	for {
		select {
		case c.states <- snap:
			return
		default:
		}
		select {
		case <-c.states:
		default:
		}
	}
}

// SendIntent sends one input frame.
func (c *Client) SendIntent(in sim.Intents) error {
	c.writeM.Lock()
	defer c.writeM.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	return c.conn.WriteJSON(command{Type: "intent", Intent: in})
}

// Rematch asks the server to restart the match.
func (c *Client) Rematch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/rematch", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("rematch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rematch: unexpected status %s", resp.Status)
	}
	return nil
}

// Close sends a close frame and drops the connection.
func (c *Client) Close() error {
	c.writeM.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeM.Unlock()
	return c.conn.Close()
}
