// Package roomid issues and validates room identifiers. Possession of a
// valid id is the only credential the system has, so validation is a pure
// function the transport layer can call without touching registry state.
package roomid

import (
	"regexp"

	"github.com/google/uuid"
)

// Custom ids are short, URL-safe and human-shareable.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// Valid reports whether id is acceptable as a caller-chosen room id.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// New returns a random, unguessable room id.
func New() string {
	return uuid.NewString()
}
