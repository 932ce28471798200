// Package client is the participant side of the signaling protocol: a
// websocket connection to the server plus a handler that fans incoming
// events out to typed channels.
package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	webrtc "github.com/pion/webrtc/v4"

	"github.com/sanusharma-ui/chat/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the websocket connection to the signaling server.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *signaling.Envelope
	outgoing  chan *signaling.Envelope
	done      chan struct{}
	closed    bool
}

// NewClient creates a signaling client for one room. The room id travels in
// the connection query string; the server rejects a missing id.
func NewClient(serverURL, roomID string) *Client {
	u := serverURL
	if roomID != "" {
		u = fmt.Sprintf("%s?room=%s", serverURL, url.QueryEscape(roomID))
	}
	return &Client{
		serverURL: u,
		incoming:  make(chan *signaling.Envelope, 32),
		outgoing:  make(chan *signaling.Envelope, 32),
		done:      make(chan struct{}, 1),
	}
}

// Connect establishes the websocket connection and starts the pumps.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var env signaling.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		c.incoming <- &env
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues an envelope for the server.
func (c *Client) Send(env *signaling.Envelope) {
	select {
	case c.outgoing <- env:
	case <-c.done:
	}
}

// Incoming returns the channel of server events.
func (c *Client) Incoming() <-chan *signaling.Envelope {
	return c.incoming
}

// Close shuts the connection down. Safe to call once per client.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// The three relayed negotiation events. Client satisfies the coordinator's
// Signaler interface so a Session can be wired straight to it.

func (c *Client) SendOffer(to string, sdp webrtc.SessionDescription) error {
	return c.sendSignal(signaling.EventOffer, to, sdp)
}

func (c *Client) SendAnswer(to string, sdp webrtc.SessionDescription) error {
	return c.sendSignal(signaling.EventAnswer, to, sdp)
}

func (c *Client) SendCandidate(to string, cand webrtc.ICECandidateInit) error {
	return c.sendSignal(signaling.EventCandidate, to, cand)
}

func marshalPayload(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}

func (c *Client) sendSignal(event, to string, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	c.Send(&signaling.Envelope{Event: event, To: to, Payload: raw})
	return nil
}

// Chat passthrough.

func (c *Client) SendChat(text string) {
	raw, _ := marshalPayload(text)
	c.Send(&signaling.Envelope{Event: signaling.EventMessage, Payload: raw})
}

func (c *Client) SendSeen(messageID string) {
	raw, _ := marshalPayload(messageID)
	c.Send(&signaling.Envelope{Event: signaling.EventSeen, Payload: raw})
}
