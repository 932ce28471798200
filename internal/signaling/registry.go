package signaling

import (
	"errors"
	"log/slog"
	"sync"
)

// RoomCapacity is fixed: this system pairs exactly two participants.
const RoomCapacity = 2

// ErrMissingTarget is the one malformed-envelope fault the relay rejects.
// It surfaces as a fatal error event to the offending connection only.
var ErrMissingTarget = errors.New("relay envelope missing 'to'")

// JoinState is the outcome of Registry.Join.
type JoinState int

const (
	// JoinWaiting: first member, room now waits for a partner.
	JoinWaiting JoinState = iota
	// JoinPaired: second member, the room is paired.
	JoinPaired
	// JoinRejected: room already had two members; nothing was mutated and
	// the caller must close the connection.
	JoinRejected
)

// Registry is the single authority over room membership. All join/leave
// mutations are serialized under one mutex, which is what prevents two
// concurrent joins from both deciding they are the second member.
//
// It holds no ambient state: construct one at process start and inject it
// into the transport layer.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	// reserved tracks room ids issued by the link endpoints. An id is
	// released as soon as its room empties, so it can be handed out again.
	reserved map[string]struct{}

	log *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		rooms:    make(map[string]*Room),
		reserved: make(map[string]struct{}),
		log:      log,
	}
}

// Join adds c to the room with the given id, creating the room if needed.
// On the first join the connection receives welcome + waiting. On the second
// join both members receive partnerId (each other's id) and then paired;
// partnerId is always queued before paired so that a lookup done on paired is
// guaranteed to resolve.
func (r *Registry) Join(roomID string, c *Conn) JoinState {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		r.rooms[roomID] = room
	}

	if room.full() {
		r.log.Info("join rejected, room full", "room", roomID, "conn", c.ID)
		return JoinRejected
	}

	room.members = append(room.members, c)
	c.RoomID = roomID
	c.deliver(&Envelope{Event: EventWelcome, Payload: mustJSON(c.ID)})

	if room.size() == 1 {
		r.log.Info("waiting for partner", "room", roomID, "conn", c.ID)
		c.deliver(&Envelope{Event: EventWaiting})
		return JoinWaiting
	}

	// Second member committed: a new pairing episode begins.
	room.paired = true
	first, second := room.members[0], room.members[1]
	first.deliver(&Envelope{Event: EventPartnerID, Payload: mustJSON(second.ID)})
	second.deliver(&Envelope{Event: EventPartnerID, Payload: mustJSON(first.ID)})
	first.deliver(&Envelope{Event: EventPaired})
	second.deliver(&Envelope{Event: EventPaired})
	r.log.Info("room paired", "room", roomID, "conns", []string{first.ID, second.ID})
	return JoinPaired
}

// Leave removes c from its room. Idempotent: leaving twice, or leaving a
// room that was already reclaimed, is a no-op. A remaining member is notified
// with partnerLeft only if the departing side was a paired member; a
// participant that leaves a still-waiting room owes nobody a notification.
func (r *Registry) Leave(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.RoomID == "" {
		return
	}
	room, ok := r.rooms[c.RoomID]
	if !ok {
		return
	}
	if !room.remove(c) {
		return
	}
	c.RoomID = ""

	wasPaired := room.paired
	if room.size() == 0 {
		delete(r.rooms, room.ID)
		delete(r.reserved, room.ID)
		r.log.Info("room reclaimed", "room", room.ID)
		return
	}

	// One member remains; the episode it was part of is over.
	room.paired = false
	if wasPaired {
		room.members[0].deliver(&Envelope{Event: EventPartnerLeft})
	}
	r.log.Info("member left", "room", room.ID, "conn", c.ID, "paired", wasPaired)
}

// Forward relays env to the member of the sender's room named by env.To.
// The payload is never interpreted. An unknown room or an absent target is a
// silent drop: the peer may simply be gone already, and the sender's own
// coordinator tolerates staleness. Only a missing target id is an error.
func (r *Registry) Forward(from *Conn, env *Envelope) error {
	if env.To == "" {
		return ErrMissingTarget
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[from.RoomID]
	if !ok {
		r.log.Debug("forward into unknown room dropped", "conn", from.ID, "event", env.Event)
		return nil
	}
	target := room.memberByID(env.To)
	if target == nil || target == from {
		r.log.Debug("forward target unreachable", "room", room.ID, "to", env.To, "event", env.Event)
		return nil
	}

	target.deliver(&Envelope{Event: env.Event, From: from.ID, Payload: env.Payload})
	return nil
}

// Reserve claims a room id for the link-issuance endpoints. The claim is
// released when the room empties.
func (r *Registry) Reserve(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.reserved[roomID]; taken {
		return false
	}
	if _, live := r.rooms[roomID]; live {
		return false
	}
	r.reserved[roomID] = struct{}{}
	return true
}

// RoomSize reports the current member count of a room; zero for unknown ids.
func (r *Registry) RoomSize(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return room.size()
}

// Dispatch routes one inbound envelope from c. Relayed events go through
// Forward; chat events go through the room fan-out; anything else is ignored.
// A malformed relay envelope is fatal for the offending connection only.
func (r *Registry) Dispatch(c *Conn, env *Envelope) {
	switch env.Event {
	case EventOffer, EventAnswer, EventCandidate:
		if err := r.Forward(c, env); err != nil {
			c.deliver(ErrorEnvelope(err.Error()))
			c.shutdown()
		}
	case EventMessage:
		r.chatMessage(c, env)
	case EventSeen:
		r.chatSeen(c, env)
	case EventTyping:
		r.chatTyping(c, env)
	default:
		r.log.Debug("unknown event ignored", "conn", c.ID, "event", env.Event)
	}
}
