package router

import (
	"github.com/gameofbones/gameofbones/internal/cli/client"
	"github.com/gameofbones/gameofbones/internal/cli/session"
)

// GuardState is the outcome of evaluating a route against the session.
type GuardState int

const (
	Allowed GuardState = iota
	Checking
	Denied
	Forbidden
)

func (g GuardState) String() string {
	switch g {
	case Allowed:
		return "ALLOWED"
	case Checking:
		return "CHECKING"
	case Denied:
		return "DENIED"
	case Forbidden:
		return "FORBIDDEN"
	default:
		return "UNKNOWN"
	}
}

// Redirect is a navigation the guard requests instead of rendering.
// ReturnTo carries the originally requested location through a login.
type Redirect struct {
	To       Location
	ReturnTo *Location
	Replace  bool
}

// Decision is what a guard says about one navigation.
type Decision struct {
	State    GuardState
	Redirect *Redirect
}

// Evaluate runs the guard state machine for a route of the given access level.
// GuestOnly routes are left to the navigator, which knows the pending return target.
func Evaluate(access Access, st session.State, loc Location) Decision {
	if access == Public || access == GuestOnly {
		return Decision{State: Allowed}
	}

	if st.IsLoading {
		return Decision{State: Checking}
	}

	if !st.IsAuthenticated {
		returnTo := loc
		return Decision{
			State: Denied,
			Redirect: &Redirect{
				To:       Location{Path: LoginPath},
				ReturnTo: &returnTo,
				Replace:  true,
			},
		}
	}

	if access == Admin && !st.HasRole(client.RoleAdmin) {
		return Decision{
			State: Forbidden,
			Redirect: &Redirect{
				To:      Location{Path: HomePath},
				Replace: true,
			},
		}
	}

	return Decision{State: Allowed}
}
