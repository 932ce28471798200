package negotiation

// Role decides which side yields when both peers offer at once. It is
// computed independently on each side from the same two connection ids, so
// the pair always agrees without exchanging a single message.
type Role int

const (
	// RolePolite yields during a collision: it rolls back its own offer
	// and accepts the remote one.
	RolePolite Role = iota
	// RoleImpolite ignores a colliding remote offer and sticks with its
	// own in-flight offer.
	RoleImpolite
)

func (r Role) String() string {
	if r == RolePolite {
		return "polite"
	}
	return "impolite"
}

// RoleFor assigns the local role for a pairing. Any total order over the id
// type works as long as both sides apply the same one; connection ids are
// unique, so ties cannot happen.
func RoleFor(localID, peerID string) Role {
	if localID > peerID {
		return RolePolite
	}
	return RoleImpolite
}
