package media

import (
	pion "github.com/pion/webrtc/v4"
)

// PionSession adapts a pion peer connection to the coordinator's
// MediaSession interface.
type PionSession struct {
	pc *pion.PeerConnection
}

func NewPionSession(pc *pion.PeerConnection) *PionSession {
	return &PionSession{pc: pc}
}

func (s *PionSession) SignalingState() pion.SignalingState {
	return s.pc.SignalingState()
}

func (s *PionSession) CreateOffer() (pion.SessionDescription, error) {
	return s.pc.CreateOffer(nil)
}

func (s *PionSession) CreateAnswer() (pion.SessionDescription, error) {
	return s.pc.CreateAnswer(nil)
}

func (s *PionSession) SetLocalDescription(sdp pion.SessionDescription) error {
	return s.pc.SetLocalDescription(sdp)
}

func (s *PionSession) SetRemoteDescription(sdp pion.SessionDescription) error {
	return s.pc.SetRemoteDescription(sdp)
}

// Rollback discards the local in-flight offer so a colliding remote offer
// can be applied cleanly.
func (s *PionSession) Rollback() error {
	return s.pc.SetLocalDescription(pion.SessionDescription{Type: pion.SDPTypeRollback})
}

func (s *PionSession) AddICECandidate(cand pion.ICECandidateInit) error {
	return s.pc.AddICECandidate(cand)
}

func (s *PionSession) Close() error {
	return s.pc.Close()
}
