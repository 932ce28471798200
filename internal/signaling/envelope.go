package signaling

import "encoding/json"

// Event names carried on the websocket, shared by server and client.
const (
	// Server to client.
	EventWelcome     = "welcome"     // payload: own connection id
	EventWaiting     = "waiting"     // no payload
	EventPaired      = "paired"      // no payload
	EventPartnerID   = "partnerId"   // payload: the other member's connection id
	EventPartnerLeft = "partnerLeft" // no payload
	EventError       = "error"       // payload: human-readable message, fatal for the session
	EventMessageSeen = "messageSeen" // payload: message id
	EventFileMessage = "fileMessage" // payload: chat-style message published by the upload service

	// Relayed verbatim between the two paired members.
	EventOffer     = "offer"
	EventAnswer    = "answer"
	EventCandidate = "candidate"

	// Chat passthrough.
	EventMessage = "message" // c2s: raw text, s2c: stamped ChatMessage
	EventSeen    = "seen"    // c2s only
	EventTyping  = "typing"  // payload: TypingPayload
)

// Envelope is the single message shape on the wire. The payload is opaque to
// the server: relayed events are routed by To/From and never interpreted.
type Envelope struct {
	Event   string          `json:"event"`
	To      string          `json:"to,omitempty"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatMessage is the server-stamped chat fan-out payload.
type ChatMessage struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	Time   string `json:"time"`
	ID     string `json:"id"`
}

// TypingPayload mirrors the typing indicator to the other member.
type TypingPayload struct {
	User     string `json:"user"`
	IsTyping bool   `json:"isTyping"`
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable types, which we never pass.
		panic(err)
	}
	return b
}

// ErrorEnvelope builds the fatal error event sent to a single connection.
func ErrorEnvelope(msg string) *Envelope {
	return &Envelope{Event: EventError, Payload: mustJSON(msg)}
}
