package signaling

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Chat passthrough. These events carry no pairing semantics: the registry
// only checks room membership and fans the payload out, exactly like the
// relay but without a named target.

// chatMessage stamps a plain-text message and fans it out to both members,
// the sender included, so both sides render from the same authoritative copy.
func (r *Registry) chatMessage(c *Conn, env *Envelope) {
	var text string
	if err := json.Unmarshal(env.Payload, &text); err != nil {
		r.log.Debug("chat message with non-string payload dropped", "conn", c.ID)
		return
	}

	msg := ChatMessage{
		Text:   text,
		Sender: c.ID,
		Time:   time.Now().Format("15:04:05"),
		ID:     uuid.NewString(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.RoomID]
	if !ok {
		return
	}
	for _, m := range room.members {
		m.deliver(&Envelope{Event: EventMessage, From: c.ID, Payload: mustJSON(msg)})
	}
}

// chatSeen relays a read receipt to the other member only.
func (r *Registry) chatSeen(c *Conn, env *Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.RoomID]
	if !ok {
		return
	}
	if other := room.other(c); other != nil {
		other.deliver(&Envelope{Event: EventMessageSeen, From: c.ID, Payload: env.Payload})
	}
}

// chatTyping mirrors the typing indicator to the other member only.
func (r *Registry) chatTyping(c *Conn, env *Envelope) {
	var isTyping bool
	if err := json.Unmarshal(env.Payload, &isTyping); err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.RoomID]
	if !ok {
		return
	}
	if other := room.other(c); other != nil {
		other.deliver(&Envelope{
			Event:   EventTyping,
			From:    c.ID,
			Payload: mustJSON(TypingPayload{User: c.ID, IsTyping: isTyping}),
		})
	}
}

// Publish fans a chat-style event out to every member of a room. It is the
// contract external collaborators rely on: the upload service announces a
// stored file through the same fan-out as a text message, and the core does
// not distinguish the two.
func (r *Registry) Publish(roomID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	raw := mustJSON(payload)
	for _, m := range room.members {
		m.deliver(&Envelope{Event: event, Payload: raw})
	}
}
