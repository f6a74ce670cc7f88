// Package session holds the client's authoritative authentication state and
// the one-shot startup check that establishes it.
package session

import (
	"github.com/gameofbones/gameofbones/internal/cli/client"
)

// LoadingPlaceholder is shown while the session is being established.
const LoadingPlaceholder = "⏳ Loading session..."

// State is an immutable snapshot of the session.
// IsAuthenticated is always derived: User != nil && Token != "".
type State struct {
	User            *client.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// HasRole reports whether the session's user holds role.
func (s State) HasRole(role client.Role) bool {
	return s.IsAuthenticated && s.User.Role == role
}
