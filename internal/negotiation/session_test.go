package negotiation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pion/webrtc/v4"
)

// fakeMedia mimics the signaling-state transitions of a real peer
// connection without any network or media stack.
type fakeMedia struct {
	name  string
	state webrtc.SignalingState

	remoteApplied []webrtc.SessionDescription
	candidates    []webrtc.ICECandidateInit
	rollbacks     int
	offerSeq      int
	closedCount   int

	createOfferErr error
	candidateErr   error
}

func newFakeMedia(name string) *fakeMedia {
	return &fakeMedia{name: name, state: webrtc.SignalingStateStable}
}

func (f *fakeMedia) SignalingState() webrtc.SignalingState { return f.state }

func (f *fakeMedia) CreateOffer() (webrtc.SessionDescription, error) {
	if f.createOfferErr != nil {
		return webrtc.SessionDescription{}, f.createOfferErr
	}
	f.offerSeq++
	return webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  fmt.Sprintf("offer-%s-%d", f.name, f.offerSeq),
	}, nil
}

func (f *fakeMedia) CreateAnswer() (webrtc.SessionDescription, error) {
	return webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  fmt.Sprintf("answer-%s", f.name),
	}, nil
}

func (f *fakeMedia) SetLocalDescription(sdp webrtc.SessionDescription) error {
	switch sdp.Type {
	case webrtc.SDPTypeOffer:
		f.state = webrtc.SignalingStateHaveLocalOffer
	case webrtc.SDPTypeAnswer:
		f.state = webrtc.SignalingStateStable
	}
	return nil
}

func (f *fakeMedia) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	f.remoteApplied = append(f.remoteApplied, sdp)
	switch sdp.Type {
	case webrtc.SDPTypeOffer:
		f.state = webrtc.SignalingStateHaveRemoteOffer
	case webrtc.SDPTypeAnswer:
		f.state = webrtc.SignalingStateStable
	}
	return nil
}

func (f *fakeMedia) Rollback() error {
	f.rollbacks++
	f.state = webrtc.SignalingStateStable
	return nil
}

func (f *fakeMedia) AddICECandidate(c webrtc.ICECandidateInit) error {
	if f.candidateErr != nil {
		return f.candidateErr
	}
	f.candidates = append(f.candidates, c)
	return nil
}

func (f *fakeMedia) Close() error {
	f.closedCount++
	return nil
}

// queuedSignal records outbound traffic so tests control delivery order.
type queuedSignal struct {
	kind string
	sdp  webrtc.SessionDescription
	cand webrtc.ICECandidateInit
}

type queueSignaler struct {
	sent []queuedSignal
}

func (q *queueSignaler) SendOffer(to string, sdp webrtc.SessionDescription) error {
	q.sent = append(q.sent, queuedSignal{kind: "offer", sdp: sdp})
	return nil
}

func (q *queueSignaler) SendAnswer(to string, sdp webrtc.SessionDescription) error {
	q.sent = append(q.sent, queuedSignal{kind: "answer", sdp: sdp})
	return nil
}

func (q *queueSignaler) SendCandidate(to string, cand webrtc.ICECandidateInit) error {
	q.sent = append(q.sent, queuedSignal{kind: "candidate", cand: cand})
	return nil
}

func (q *queueSignaler) drain() []queuedSignal {
	out := q.sent
	q.sent = nil
	return out
}

// testPair builds the two sides of one pairing with synthetic ids.
func testPair(t *testing.T, idA, idB string) (a, b *Session, mediaA, mediaB *fakeMedia, sigA, sigB *queueSignaler) {
	t.Helper()
	mediaA, mediaB = newFakeMedia(idA), newFakeMedia(idB)
	sigA, sigB = &queueSignaler{}, &queueSignaler{}
	a = NewSession(idA, idB, mediaA, sigA, nil)
	b = NewSession(idB, idA, mediaB, sigB, nil)
	return
}

// deliver feeds every queued signal from one side into the other session.
func deliver(t *testing.T, from *queueSignaler, to *Session) {
	t.Helper()
	for _, s := range from.drain() {
		var err error
		switch s.kind {
		case "offer":
			err = to.HandleOffer(s.sdp)
		case "answer":
			err = to.HandleAnswer(s.sdp)
		case "candidate":
			err = to.HandleCandidate(s.cand)
		}
		if err != nil {
			t.Fatalf("deliver %s: %v", s.kind, err)
		}
	}
}

func TestRoleForIsTotalAndAntisymmetric(t *testing.T) {
	ids := []string{"a", "b", "conn-1", "conn-2", "zzz", "0001", "ffff-1234"}
	for _, x := range ids {
		for _, y := range ids {
			if x == y {
				continue
			}
			rx, ry := RoleFor(x, y), RoleFor(y, x)
			if rx == ry {
				t.Errorf("RoleFor(%q,%q) and RoleFor(%q,%q) both %v", x, y, y, x, rx)
			}
			if got := RoleFor(x, y); got != rx {
				t.Errorf("RoleFor(%q,%q) not deterministic", x, y)
			}
		}
	}
}

func TestCleanOfferAnswerRound(t *testing.T) {
	a, b, mediaA, mediaB, sigA, sigB := testPair(t, "aaa", "bbb")

	if err := a.Negotiate(); err != nil {
		t.Fatalf("negotiate: %v", err)
	}
	if a.Phase() != PhaseNegotiating {
		t.Errorf("offerer phase = %v, want negotiating", a.Phase())
	}

	deliver(t, sigA, b)
	if mediaB.state != webrtc.SignalingStateStable {
		t.Errorf("answerer state = %v, want stable", mediaB.state)
	}
	if b.Phase() != PhaseStable {
		t.Errorf("answerer phase = %v, want stable", b.Phase())
	}

	deliver(t, sigB, a)
	if mediaA.state != webrtc.SignalingStateStable {
		t.Errorf("offerer state = %v, want stable", mediaA.state)
	}
	if a.Phase() != PhaseStable {
		t.Errorf("offerer phase = %v, want stable", a.Phase())
	}
}

func TestGlareConvergesWithinOneExtraRoundTrip(t *testing.T) {
	// "bbb" > "aaa": B is polite, A is impolite.
	a, b, mediaA, mediaB, sigA, sigB := testPair(t, "aaa", "bbb")
	if a.Role() != RoleImpolite || b.Role() != RolePolite {
		t.Fatalf("roles = %v/%v, want impolite/polite", a.Role(), b.Role())
	}

	// Both sides offer simultaneously.
	if err := a.Negotiate(); err != nil {
		t.Fatalf("a.Negotiate: %v", err)
	}
	if err := b.Negotiate(); err != nil {
		t.Fatalf("b.Negotiate: %v", err)
	}

	// Cross-deliver the colliding offers.
	deliver(t, sigB, a) // impolite receives offer mid-collision
	deliver(t, sigA, b) // polite receives offer mid-collision

	// The impolite side discarded the remote offer outright.
	if len(mediaA.remoteApplied) != 0 {
		t.Fatalf("impolite side applied %d remote descriptions during glare, want 0", len(mediaA.remoteApplied))
	}
	if mediaA.rollbacks != 0 {
		t.Errorf("impolite side rolled back %d times, want 0", mediaA.rollbacks)
	}

	// The polite side rolled back its own offer and answered.
	if mediaB.rollbacks != 1 {
		t.Errorf("polite side rollbacks = %d, want 1", mediaB.rollbacks)
	}
	if mediaB.state != webrtc.SignalingStateStable {
		t.Errorf("polite side state = %v, want stable", mediaB.state)
	}

	// The answer reaches the impolite side and both converge.
	deliver(t, sigB, a)
	if mediaA.state != webrtc.SignalingStateStable {
		t.Errorf("impolite side state = %v, want stable", mediaA.state)
	}
	if a.Phase() != PhaseStable || b.Phase() != PhaseStable {
		t.Errorf("phases = %v/%v, want stable/stable", a.Phase(), b.Phase())
	}
}

func TestStaleAnswerIsDropped(t *testing.T) {
	a, _, mediaA, _, _, _ := testPair(t, "aaa", "bbb")

	// No offer outstanding: any answer is stale.
	err := a.HandleAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "stale"})
	if err != nil {
		t.Fatalf("stale answer: %v", err)
	}
	if len(mediaA.remoteApplied) != 0 {
		t.Errorf("stale answer was applied")
	}
}

func TestCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	a, b, _, mediaB, sigA, _ := testPair(t, "aaa", "bbb")

	// Candidates overtake the offer on the wire.
	early := []webrtc.ICECandidateInit{{Candidate: "cand-1"}, {Candidate: "cand-2"}}
	for _, c := range early {
		if err := b.HandleCandidate(c); err != nil {
			t.Fatalf("buffer candidate: %v", err)
		}
	}
	if len(mediaB.candidates) != 0 {
		t.Fatalf("candidates applied before remote description")
	}

	if err := a.Negotiate(); err != nil {
		t.Fatalf("negotiate: %v", err)
	}
	deliver(t, sigA, b)

	if len(mediaB.candidates) != len(early) {
		t.Fatalf("replayed %d candidates, want %d", len(mediaB.candidates), len(early))
	}
	for i, c := range early {
		if mediaB.candidates[i].Candidate != c.Candidate {
			t.Errorf("candidate %d replayed out of order: %q", i, mediaB.candidates[i].Candidate)
		}
	}

	// Late candidates now apply directly.
	if err := b.HandleCandidate(webrtc.ICECandidateInit{Candidate: "cand-3"}); err != nil {
		t.Fatalf("live candidate: %v", err)
	}
	if len(mediaB.candidates) != 3 {
		t.Errorf("live candidate not applied")
	}
}

func TestBadCandidateNeverAbortsSession(t *testing.T) {
	a, b, _, mediaB, sigA, sigB := testPair(t, "aaa", "bbb")

	if err := a.Negotiate(); err != nil {
		t.Fatalf("negotiate: %v", err)
	}
	deliver(t, sigA, b)

	mediaB.candidateErr = errors.New("malformed candidate")
	if err := b.HandleCandidate(webrtc.ICECandidateInit{Candidate: "broken"}); err != nil {
		t.Fatalf("bad candidate surfaced an error: %v", err)
	}

	// The session keeps working afterwards.
	mediaB.candidateErr = nil
	deliver(t, sigB, a)
	if a.Phase() != PhaseStable {
		t.Errorf("session did not survive a bad candidate")
	}
}

func TestRenegotiationReentersNegotiating(t *testing.T) {
	a, b, mediaA, _, sigA, sigB := testPair(t, "aaa", "bbb")

	for round := 1; round <= 2; round++ {
		if err := a.Negotiate(); err != nil {
			t.Fatalf("round %d negotiate: %v", round, err)
		}
		deliver(t, sigA, b)
		deliver(t, sigB, a)
		if a.Phase() != PhaseStable {
			t.Fatalf("round %d did not stabilize", round)
		}
	}
	if mediaA.offerSeq != 2 {
		t.Errorf("offers created = %d, want 2", mediaA.offerSeq)
	}
}

func TestOfferFailureClearsInFlightFlag(t *testing.T) {
	a, _, mediaA, _, sigA, _ := testPair(t, "aaa", "bbb")

	mediaA.createOfferErr = errors.New("no codecs")
	if err := a.Negotiate(); err == nil {
		t.Fatal("expected create-offer failure")
	}

	// The in-flight flag must clear on failure too, or negotiation would
	// be wedged forever.
	mediaA.createOfferErr = nil
	if err := a.Negotiate(); err != nil {
		t.Fatalf("negotiate after failure: %v", err)
	}
	if len(sigA.sent) != 1 || sigA.sent[0].kind != "offer" {
		t.Errorf("offer not sent after recovery")
	}
}

func TestCloseInvalidatesSession(t *testing.T) {
	a, _, mediaA, _, _, _ := testPair(t, "aaa", "bbb")

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if mediaA.closedCount != 1 {
		t.Errorf("media closed %d times, want 1", mediaA.closedCount)
	}

	if err := a.Negotiate(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Negotiate after close = %v, want ErrSessionClosed", err)
	}
	if err := a.HandleOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("HandleOffer after close = %v, want ErrSessionClosed", err)
	}
}
