package signaling

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Large enough for SDP payloads.
	maxMessageSize = 64 * 1024

	// Outbound queue depth per connection. Lifecycle events plus a full
	// negotiation round fit comfortably.
	sendQueueSize = 256
)

// Conn is one live participant: a websocket wrapped with an identity, the
// room it belongs to, and an ordered outbound queue. The registry only ever
// touches ID, RoomID and deliver, so tests can build a Conn without a socket.
type Conn struct {
	// ID is unique per transport session and never reused within the
	// process lifetime.
	ID string

	// RoomID is set by Registry.Join and cleared on Leave. A connection
	// never spans rooms.
	RoomID string

	registry *Registry
	sock     *websocket.Conn

	send chan *Envelope
	done chan struct{}
	once sync.Once
}

// NewConn wraps an upgraded websocket; tests use NewPipeConn instead.
func NewConn(id string, registry *Registry, sock *websocket.Conn) *Conn {
	return &Conn{
		ID:       id,
		registry: registry,
		sock:     sock,
		send:     make(chan *Envelope, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// NewPipeConn returns a connection with no underlying socket. Everything
// delivered to it is readable from Outbox; used by registry tests.
func NewPipeConn(id string, registry *Registry) *Conn {
	return &Conn{
		ID:       id,
		registry: registry,
		send:     make(chan *Envelope, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// Outbox exposes the ordered stream of envelopes queued for this connection.
func (c *Conn) Outbox() <-chan *Envelope { return c.send }

// deliver queues an envelope for the write pump. Delivery to a connection
// that is shutting down is a no-op: absence is indistinguishable from a
// teardown already in flight, so the sender is never informed.
func (c *Conn) deliver(env *Envelope) {
	select {
	case c.send <- env:
	case <-c.done:
	default:
		// Queue full means the client stopped draining; dropping here
		// beats wedging the sender's read pump.
		slog.Warn("dropping event for slow connection", "conn", c.ID, "event", env.Event)
	}
}

// shutdown stops the write pump. Safe to call more than once.
func (c *Conn) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// ReadPump pumps envelopes from the websocket into the registry.
//
// The application runs ReadPump in a per-connection goroutine; all reads go
// through it, which is also what makes relay delivery FIFO per sender.
func (c *Conn) ReadPump() {
	defer func() {
		c.registry.Leave(c)
		c.shutdown()
		c.sock.Close()
	}()

	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := c.sock.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("read error", "conn", c.ID, "err", err)
			}
			return
		}
		c.registry.Dispatch(c, &env)
	}
}

// WritePump pumps queued envelopes to the websocket and keeps the connection
// alive with pings. One goroutine per connection; it is the only writer.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			c.sock.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
