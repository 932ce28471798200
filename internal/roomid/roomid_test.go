package roomid

import "testing"

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc", true},
		{"movie-night", true},
		{"room_42", true},
		{"A1-b2_C3", true},
		{"ab", false},
		{"", false},
		{"this-room-id-is-way-too-long", false},
		{"room id", false},
		{"room/1", false},
		{"café", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.id); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestNewIsValidAndUnique(t *testing.T) {
	a, b := New(), New()
	if a == b {
		t.Fatalf("New() returned the same id twice: %s", a)
	}
	// Generated ids are UUIDs, longer than the custom-id limit on purpose:
	// they only travel inside links, never typed by hand.
	if len(a) != 36 {
		t.Errorf("New() = %q, want uuid form", a)
	}
}
