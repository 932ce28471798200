package signaling

// Room is a rendezvous namespace limited to exactly two participants.
// Members keep join order; pairing itself is order-independent.
type Room struct {
	ID string

	members []*Conn

	// paired is true while the current pairing episode is live, i.e. the
	// room reached two members and has not yet dropped back to empty or
	// been re-paired. It decides whether a departure owes partnerLeft.
	paired bool
}

func newRoom(id string) *Room {
	return &Room{ID: id, members: make([]*Conn, 0, 2)}
}

func (r *Room) size() int { return len(r.members) }

func (r *Room) full() bool { return len(r.members) == RoomCapacity }

// other returns the member that is not c, if any.
func (r *Room) other(c *Conn) *Conn {
	for _, m := range r.members {
		if m != c {
			return m
		}
	}
	return nil
}

// memberByID resolves a relay target within this room only.
func (r *Room) memberByID(id string) *Conn {
	for _, m := range r.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// remove takes c out of the member list, reporting whether it was present.
func (r *Room) remove(c *Conn) bool {
	for i, m := range r.members {
		if m == c {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}
