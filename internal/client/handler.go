package client

import (
	"encoding/json"
	"log/slog"

	webrtc "github.com/pion/webrtc/v4"

	"github.com/sanusharma-ui/chat/internal/signaling"
)

// RemoteDescription is an offer or answer received from the peer.
type RemoteDescription struct {
	From string
	SDP  webrtc.SessionDescription
}

// RemoteCandidate is an ICE candidate received from the peer.
type RemoteCandidate struct {
	From      string
	Candidate webrtc.ICECandidateInit
}

// Handler routes incoming signaling events to typed channels. One Start
// loop per client; the channel fan-out preserves the server's ordering
// within each stream. Done closes when the incoming stream ends, which is
// how consumers learn the server connection is gone.
type Handler struct {
	client *Client

	Welcome     chan string
	Waiting     chan struct{}
	Paired      chan struct{}
	PartnerID   chan string
	PartnerLeft chan struct{}
	Offers      chan *RemoteDescription
	Answers     chan *RemoteDescription
	Candidates  chan *RemoteCandidate
	Errors      chan string
	Messages    chan *signaling.ChatMessage
	Seen        chan string
	Typing      chan *signaling.TypingPayload
	Done        chan struct{}
}

// NewHandler creates a handler for the client's incoming stream.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:      client,
		Welcome:     make(chan string, 1),
		Waiting:     make(chan struct{}, 1),
		Paired:      make(chan struct{}, 1),
		PartnerID:   make(chan string, 1),
		PartnerLeft: make(chan struct{}, 1),
		Offers:      make(chan *RemoteDescription, 8),
		Answers:     make(chan *RemoteDescription, 8),
		Candidates:  make(chan *RemoteCandidate, 32),
		Errors:      make(chan string, 1),
		Messages:    make(chan *signaling.ChatMessage, 32),
		Seen:        make(chan string, 32),
		Typing:      make(chan *signaling.TypingPayload, 8),
		Done:        make(chan struct{}),
	}
}

// Start consumes the incoming stream until the connection closes, then
// closes Done. The typed channels stay open; Done is the only end-of-stream
// signal.
func (h *Handler) Start() {
	defer close(h.Done)

	for env := range h.client.Incoming() {
		switch env.Event {

		case signaling.EventWelcome:
			h.Welcome <- decodeString(env.Payload)

		case signaling.EventWaiting:
			h.Waiting <- struct{}{}

		case signaling.EventPaired:
			h.Paired <- struct{}{}

		case signaling.EventPartnerID:
			h.PartnerID <- decodeString(env.Payload)

		case signaling.EventPartnerLeft:
			h.PartnerLeft <- struct{}{}

		case signaling.EventOffer, signaling.EventAnswer:
			h.handleDescription(env)

		case signaling.EventCandidate:
			h.handleCandidate(env)

		case signaling.EventError:
			h.Errors <- decodeString(env.Payload)

		case signaling.EventMessage, signaling.EventFileMessage:
			h.handleChat(env)

		case signaling.EventMessageSeen:
			h.Seen <- decodeString(env.Payload)

		case signaling.EventTyping:
			h.handleTyping(env)

		default:
			slog.Debug("unknown server event ignored", "event", env.Event)
		}
	}
}

func (h *Handler) handleDescription(env *signaling.Envelope) {
	var sdp webrtc.SessionDescription
	if err := json.Unmarshal(env.Payload, &sdp); err != nil {
		slog.Debug("undecodable description dropped", "event", env.Event, "err", err)
		return
	}
	desc := &RemoteDescription{From: env.From, SDP: sdp}
	if env.Event == signaling.EventOffer {
		h.Offers <- desc
	} else {
		h.Answers <- desc
	}
}

func (h *Handler) handleCandidate(env *signaling.Envelope) {
	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal(env.Payload, &cand); err != nil {
		slog.Debug("undecodable candidate dropped", "err", err)
		return
	}
	h.Candidates <- &RemoteCandidate{From: env.From, Candidate: cand}
}

func (h *Handler) handleChat(env *signaling.Envelope) {
	var msg signaling.ChatMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		slog.Debug("undecodable chat message dropped", "err", err)
		return
	}
	h.Messages <- &msg
}

func (h *Handler) handleTyping(env *signaling.Envelope) {
	var tp signaling.TypingPayload
	if err := json.Unmarshal(env.Payload, &tp); err != nil {
		return
	}
	h.Typing <- &tp
}

func decodeString(raw json.RawMessage) string {
	var s string
	json.Unmarshal(raw, &s)
	return s
}
