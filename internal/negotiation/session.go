// Package negotiation drives the offer/answer/candidate exchange for one
// pairing. Each side owns exactly one Session; the two sides agree purely
// through the deterministic role function plus the relayed messages, never
// through shared state.
package negotiation

import (
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"
)

// Phase is the coarse lifecycle of a Session. It cycles back to negotiating
// whenever renegotiation is needed (tracks added or removed).
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNegotiating
	PhaseStable
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNegotiating:
		return "negotiating"
	default:
		return "stable"
	}
}

// MediaSession is the slice of the underlying peer connection the
// coordinator needs. Keeping it an interface makes the glare policy a
// function of session state alone, testable without a media stack.
type MediaSession interface {
	SignalingState() webrtc.SignalingState
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	Rollback() error
	AddICECandidate(webrtc.ICECandidateInit) error
	Close() error
}

// Signaler delivers negotiation payloads to the peer, tagged with the
// recipient's connection id for the relay.
type Signaler interface {
	SendOffer(to string, sdp webrtc.SessionDescription) error
	SendAnswer(to string, sdp webrtc.SessionDescription) error
	SendCandidate(to string, cand webrtc.ICECandidateInit) error
}

// Session is the per-pairing negotiation state machine. Callers must feed it
// from a single in-order event stream (the signaling handler's dispatch
// loop); the mutex makes each event atomic with respect to session state.
type Session struct {
	mu sync.Mutex

	localID string
	peerID  string
	role    Role

	media MediaSession
	out   Signaler
	log   *slog.Logger

	phase Phase

	// makingOffer covers only the synchronous offer-creation window, not
	// the full round trip; it is the local half of collision detection.
	makingOffer bool

	// remoteDescSet gates candidate application. Candidates arriving
	// first are parked in pending and replayed in arrival order.
	remoteDescSet bool
	pending       []webrtc.ICECandidateInit

	closed bool
}

// NewSession computes the role for this pairing and returns a session in the
// idle phase. Role assignment is stable for the lifetime of the pairing; a
// re-pair after reconnect builds a fresh session.
func NewSession(localID, peerID string, media MediaSession, out Signaler, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	role := RoleFor(localID, peerID)
	log.Debug("negotiation session created", "local", localID, "peer", peerID, "role", role.String())
	return &Session{
		localID: localID,
		peerID:  peerID,
		role:    role,
		media:   media,
		out:     out,
		log:     log,
		phase:   PhaseIdle,
	}
}

func (s *Session) Role() Role { return s.role }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Negotiate generates and sends a local offer. It is the handler for the
// "local description went dirty" trigger; while an offer creation is already
// in flight the call is a no-op, the pending change rides along with it.
func (s *Session) Negotiate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.makingOffer {
		return nil
	}

	s.makingOffer = true
	s.phase = PhaseNegotiating
	// The flag clears when the local-description step completes, success
	// or failure; it only exists for collision detection.
	defer func() { s.makingOffer = false }()

	offer, err := s.media.CreateOffer()
	if err != nil {
		return newError("create offer", err)
	}
	if err := s.media.SetLocalDescription(offer); err != nil {
		return newError("set local description", err)
	}

	s.log.Debug("offer sent", "to", s.peerID)
	if err := s.out.SendOffer(s.peerID, offer); err != nil {
		return newError("send offer", err)
	}
	return nil
}

// HandleOffer resolves glare and answers the remote offer.
//
// A collision exists when a local offer is mid-creation or the signaling
// state is not stable. Exactly one side, the polite one, yields in a
// collision; the impolite side discards the incoming offer entirely and
// waits for its own offer to be answered. This converges in at most one
// extra round trip instead of both sides overwriting each other.
func (s *Session) HandleOffer(sdp webrtc.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	collision := s.makingOffer || s.media.SignalingState() != webrtc.SignalingStateStable
	if collision && s.role == RoleImpolite {
		s.log.Debug("glare: discarding remote offer", "peer", s.peerID)
		return nil
	}
	if collision {
		if err := s.media.Rollback(); err != nil {
			return newError("rollback local offer", err)
		}
	}

	s.phase = PhaseNegotiating
	if err := s.media.SetRemoteDescription(sdp); err != nil {
		return newError("set remote description", err)
	}
	s.flushCandidatesLocked()

	answer, err := s.media.CreateAnswer()
	if err != nil {
		return newError("create answer", err)
	}
	if err := s.media.SetLocalDescription(answer); err != nil {
		return newError("set local description", err)
	}
	if err := s.out.SendAnswer(s.peerID, answer); err != nil {
		return newError("send answer", err)
	}

	s.phase = PhaseStable
	s.log.Debug("answer sent", "to", s.peerID)
	return nil
}

// HandleAnswer applies the remote answer if a local offer is outstanding.
// An answer with no matching offer is stale, e.g. from a superseded
// negotiation round, and is dropped rather than treated as an error.
func (s *Session) HandleAnswer(sdp webrtc.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.media.SignalingState() != webrtc.SignalingStateHaveLocalOffer {
		s.log.Debug("stale answer dropped", "peer", s.peerID, "state", s.media.SignalingState().String())
		return nil
	}

	if err := s.media.SetRemoteDescription(sdp); err != nil {
		return newError("set remote description", err)
	}
	s.flushCandidatesLocked()
	s.phase = PhaseStable
	return nil
}

// HandleCandidate applies a remote ICE candidate, buffering it when the
// remote description is not set yet (candidates legitimately overtake the
// offer on the wire). A candidate that fails to apply is logged and dropped;
// one bad candidate must never abort the session.
func (s *Session) HandleCandidate(cand webrtc.ICECandidateInit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if !s.remoteDescSet {
		s.pending = append(s.pending, cand)
		return nil
	}
	if err := s.media.AddICECandidate(cand); err != nil {
		s.log.Debug("candidate dropped", "peer", s.peerID, "err", err)
	}
	return nil
}

// HandleLocalCandidate forwards a locally gathered candidate to the peer.
// Wired to the peer connection's OnICECandidate callback; the terminating
// nil candidate is not sent.
func (s *Session) HandleLocalCandidate(cand *webrtc.ICECandidate) {
	if cand == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err := s.out.SendCandidate(s.peerID, cand.ToJSON()); err != nil {
		s.log.Debug("candidate send failed", "peer", s.peerID, "err", err)
	}
}

// Close invalidates the session and the media session under it. Idempotent;
// every path that abandons a pairing ends here, including a partially built
// session whose media setup failed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil
	s.phase = PhaseIdle
	return s.media.Close()
}

// flushCandidatesLocked replays parked candidates in arrival order once the
// remote description lands. Failures are dropped, same as live candidates.
func (s *Session) flushCandidatesLocked() {
	s.remoteDescSet = true
	for _, cand := range s.pending {
		if err := s.media.AddICECandidate(cand); err != nil {
			s.log.Debug("buffered candidate dropped", "peer", s.peerID, "err", err)
		}
	}
	s.pending = nil
}
