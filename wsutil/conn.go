// Package wsutil wraps Gorilla websocket connections with the concurrency
// safety and liveness checking the signaling and room hub need.
package wsutil

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Conn makes a Gorilla websocket safe for concurrent writers and adds a
// ping/pong liveness loop; Gorilla connections only support one concurrent
// writer, so every Send goes through this mutex.
type Conn struct {
	sync.Mutex
	*websocket.Conn
	createdAt time.Time
	label     string // used in log lines, e.g. "room:user"

	pingInterval time.Duration
	pongTimeout  time.Duration
}

// MessageOut is the envelope every outbound message is wrapped in.
type MessageOut struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

// MessageIn is the envelope every inbound message is parsed from.
type MessageIn struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
}

// New wraps an already-upgraded websocket connection.
func New(conn *websocket.Conn, label string, pingInterval, pongTimeout time.Duration) *Conn {
	return &Conn{
		Conn:         conn,
		createdAt:    time.Now(),
		label:        label,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
	}
}

func (c *Conn) logError() *zerolog.Event {
	return log.Error().Str("context", "wsutil").Str("conn", c.label)
}

// Read blocks for the next JSON message.
func (c *Conn) Read() (m MessageIn, err error) {
	err = c.ReadJSON(&m)
	if err != nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logError().Err(err).Msg("read_json_failed")
	}
	return
}

// Send writes a bare kind with no payload.
func (c *Conn) Send(kind string) error {
	return c.SendWithPayload(kind, nil)
}

// SendWithPayload writes kind and payload as one JSON message, safe for
// concurrent callers.
func (c *Conn) SendWithPayload(kind string, payload interface{}) error {
	c.Lock()
	defer c.Unlock()

	m := &MessageOut{Kind: kind, Payload: payload}
	if err := c.Conn.WriteJSON(m); err != nil {
		c.logError().Err(err).Interface("out", m).Msg("write_json_failed")
		return err
	}
	return nil
}

// StartLiveness installs a pong handler that resets the read deadline and
// starts a goroutine sending pings at pingInterval. If no pong arrives
// within pongTimeout the read deadline passes and the next Read returns an
// error; the returned channel is closed when a ping can't be written.
// Callers should exit their read loop on either, which triggers the
// deferred Conn.Close().
func (c *Conn) StartLiveness() (done <-chan struct{}) {
	deadCh := make(chan struct{})

	c.Conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
		return nil
	})

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		defer close(deadCh)

		for range ticker.C {
			c.Lock()
			err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.Unlock()
			if err != nil {
				c.logError().Err(err).Msg("ping_failed")
				return
			}
		}
	}()

	return deadCh
}
