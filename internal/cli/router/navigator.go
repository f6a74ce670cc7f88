package router

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gameofbones/gameofbones/internal/cli/session"
)

const maxRedirects = 4

var (
	ErrNotFound      = errors.New("page not found")
	ErrRedirectLoop  = errors.New("too many redirects")
	ErrNoPreviousURL = errors.New("no previous page")
)

// SessionSource is the read side of the session store.
type SessionSource interface {
	Snapshot() session.State
	Subscribe(fn func(session.State)) func()
}

// View is the page the navigator settled on. Guard is Allowed or Checking.
type View struct {
	Route     Route
	Params    Params
	Location  Location
	Requested Location
	Guard     GuardState
}

// Redirected reports whether a guard moved the navigation elsewhere.
func (v View) Redirected() bool {
	return !v.Location.Equal(v.Requested)
}

func (v View) same(o View) bool {
	return v.Route.Name == o.Route.Name && v.Location.Equal(o.Location) && v.Guard == o.Guard
}

// Navigator owns the current location and history. It evaluates guards on
// every navigation and again whenever the session changes.
type Navigator struct {
	table    *Table
	sess     SessionSource
	listener func(View)

	mu         sync.Mutex
	history    History
	pending    *Location
	current    View
	hasCurrent bool

	unsubscribe func()
}

// NewNavigator subscribes to sess. listener, if set, receives every view the
// navigator settles on, including those caused by session changes.
func NewNavigator(table *Table, sess SessionSource, listener func(View)) *Navigator {
	n := &Navigator{
		table:    table,
		sess:     sess,
		listener: listener,
	}
	n.unsubscribe = sess.Subscribe(n.onSessionChange)
	return n
}

// Close stops reacting to session changes.
func (n *Navigator) Close() {
	if n.unsubscribe != nil {
		n.unsubscribe()
	}
}

// Navigate parses raw and navigates to it.
func (n *Navigator) Navigate(raw string) (View, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return View{}, err
	}
	return n.Go(loc)
}

// Go pushes loc and resolves guards.
func (n *Navigator) Go(loc Location) (View, error) {
	n.mu.Lock()
	st := n.sess.Snapshot()
	n.dropPendingUnlessGuestPage(loc)
	view, err := n.resolve(loc, false, st)
	n.mu.Unlock()

	if err != nil {
		return View{}, err
	}
	n.notify(view)
	return view, nil
}

// Replace swaps the current entry for loc and resolves guards.
func (n *Navigator) Replace(loc Location) (View, error) {
	n.mu.Lock()
	st := n.sess.Snapshot()
	n.dropPendingUnlessGuestPage(loc)
	view, err := n.resolve(loc, true, st)
	n.mu.Unlock()

	if err != nil {
		return View{}, err
	}
	n.notify(view)
	return view, nil
}

// Back moves one entry back in history and re-evaluates it.
func (n *Navigator) Back() (View, error) {
	n.mu.Lock()
	st := n.sess.Snapshot()
	loc, ok := n.history.Back()
	if !ok {
		n.mu.Unlock()
		return View{}, ErrNoPreviousURL
	}
	n.dropPendingUnlessGuestPage(loc)
	view, err := n.resolve(loc, true, st)
	n.mu.Unlock()

	if err != nil {
		return View{}, err
	}
	n.notify(view)
	return view, nil
}

// Current returns the view the navigator is on.
func (n *Navigator) Current() (View, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.hasCurrent
}

// PendingReturn is the location a successful login will go to, if any.
func (n *Navigator) PendingReturn() *Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return nil
	}
	loc := *n.pending
	return &loc
}

// History returns the visited locations up to the current one.
func (n *Navigator) History() []Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history.Entries()
}

// onSessionChange re-resolves against the latest snapshot rather than the
// published one, so a late notification cannot undo a newer navigation.
func (n *Navigator) onSessionChange(session.State) {
	n.mu.Lock()
	if !n.hasCurrent {
		n.mu.Unlock()
		return
	}
	st := n.sess.Snapshot()
	prev := n.current
	view, err := n.resolve(prev.Location, true, st)
	n.mu.Unlock()

	if err != nil || view.same(prev) {
		return
	}
	n.notify(view)
}

// A return target only survives while the user stays on login/register.
func (n *Navigator) dropPendingUnlessGuestPage(loc Location) {
	route, _, ok := n.table.Match(loc.Path)
	if !ok || route.Access != GuestOnly {
		n.pending = nil
	}
}

// resolve must be called with n.mu held.
func (n *Navigator) resolve(loc Location, replace bool, st session.State) (View, error) {
	requested := loc

	for i := 0; i <= maxRedirects; i++ {
		route, params, ok := n.table.Match(loc.Path)
		if !ok {
			return View{}, fmt.Errorf("%w: %s", ErrNotFound, loc)
		}

		if replace {
			n.history.Replace(loc)
		} else {
			n.history.Push(loc)
		}

		if route.Access == GuestOnly && st.IsAuthenticated {
			target := Location{Path: HomePath}
			if n.pending != nil {
				target = *n.pending
				n.pending = nil
			}
			loc, replace = target, true
			continue
		}

		decision := Evaluate(route.Access, st, loc)
		if decision.Redirect != nil {
			if decision.State == Denied {
				n.pending = decision.Redirect.ReturnTo
			}
			loc, replace = decision.Redirect.To, decision.Redirect.Replace
			continue
		}

		view := View{
			Route:     route,
			Params:    params,
			Location:  loc,
			Requested: requested,
			Guard:     decision.State,
		}
		n.current = view
		n.hasCurrent = true
		return view, nil
	}

	return View{}, fmt.Errorf("%w: %s", ErrRedirectLoop, requested)
}

func (n *Navigator) notify(view View) {
	if n.listener != nil {
		n.listener(view)
	}
}
