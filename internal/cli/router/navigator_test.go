package router

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameofbones/gameofbones/internal/cli/client"
	"github.com/gameofbones/gameofbones/internal/cli/session"
)

// fakeSession is a SessionSource whose state the test sets directly
type fakeSession struct {
	mu    sync.Mutex
	state session.State
	subs  []func(session.State)
}

func (f *fakeSession) Snapshot() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Subscribe(fn func(session.State)) func() {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	idx := len(f.subs) - 1
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.subs[idx] = nil
		f.mu.Unlock()
	}
}

func (f *fakeSession) set(st session.State) {
	f.mu.Lock()
	f.state = st
	subs := append([]func(session.State){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(st)
		}
	}
}

// flippingSession changes state the first time it is read, notifying
// subscribers from another goroutine as the session store does.
type flippingSession struct {
	fakeSession
	next session.State
	once sync.Once
	done sync.WaitGroup
}

func (f *flippingSession) Snapshot() session.State {
	st := f.fakeSession.Snapshot()
	f.once.Do(func() {
		f.done.Add(1)
		go func() {
			defer f.done.Done()
			f.set(f.next)
		}()
	})
	return st
}

type recorder struct {
	mu    sync.Mutex
	views []View
}

func (r *recorder) listen(v View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *recorder) last(t *testing.T) View {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.views)
	return r.views[len(r.views)-1]
}

func paths(locs []Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.String()
	}
	return out
}

func newTestNavigator(st session.State) (*Navigator, *fakeSession, *recorder) {
	sess := &fakeSession{state: st}
	rec := &recorder{}
	return NewNavigator(DefaultTable(), sess, rec.listen), sess, rec
}

func TestNavigator_AnonymousProtectedRedirectsToLogin(t *testing.T) {
	nav, _, _ := newTestNavigator(session.State{})
	defer nav.Close()

	_, err := nav.Navigate("/")
	require.NoError(t, err)

	view, err := nav.Navigate("/posts/new")
	require.NoError(t, err)

	assert.Equal(t, PageLogin, view.Route.Name)
	assert.True(t, view.Redirected())
	assert.Equal(t, "/posts/new", view.Requested.String())

	pending := nav.PendingReturn()
	require.NotNil(t, pending)
	assert.Equal(t, "/posts/new", pending.String())

	// The guarded entry was replaced, not kept
	assert.Equal(t, []string{"/", "/login"}, paths(nav.History()))
}

func TestNavigator_LoginReturnsToPendingTarget(t *testing.T) {
	nav, sess, rec := newTestNavigator(session.State{})
	defer nav.Close()

	_, err := nav.Navigate("/")
	require.NoError(t, err)
	_, err = nav.Navigate("/posts/new")
	require.NoError(t, err)

	sess.set(session.State{IsLoading: true})
	sess.set(authedState(client.RoleUser))

	view := rec.last(t)
	assert.Equal(t, PageNewPost, view.Route.Name)
	assert.Equal(t, Allowed, view.Guard)
	assert.Nil(t, nav.PendingReturn())
	assert.Equal(t, []string{"/", "/posts/new"}, paths(nav.History()))

	back, err := nav.Back()
	require.NoError(t, err)
	assert.Equal(t, PageHome, back.Route.Name)
}

func TestNavigator_NonAdminSentHomeWithoutReturnTo(t *testing.T) {
	nav, _, _ := newTestNavigator(authedState(client.RoleUser))
	defer nav.Close()

	view, err := nav.Navigate("/admin/users")
	require.NoError(t, err)

	assert.Equal(t, PageHome, view.Route.Name)
	assert.True(t, view.Redirected())
	assert.Nil(t, nav.PendingReturn())
	assert.Equal(t, []string{"/"}, paths(nav.History()))
}

func TestNavigator_AdminAllowed(t *testing.T) {
	nav, _, _ := newTestNavigator(authedState(client.RoleAdmin))
	defer nav.Close()

	view, err := nav.Navigate("/admin/users")
	require.NoError(t, err)

	assert.Equal(t, PageAdminUsers, view.Route.Name)
	assert.Equal(t, Allowed, view.Guard)
	assert.False(t, view.Redirected())
}

func TestNavigator_CheckingThenSettles(t *testing.T) {
	nav, sess, rec := newTestNavigator(session.State{IsLoading: true})
	defer nav.Close()

	view, err := nav.Navigate("/admin/users")
	require.NoError(t, err)
	assert.Equal(t, Checking, view.Guard)
	assert.Equal(t, PageAdminUsers, view.Route.Name)

	sess.set(authedState(client.RoleUser))

	settled := rec.last(t)
	assert.Equal(t, PageHome, settled.Route.Name)
	assert.Equal(t, Allowed, settled.Guard)
}

func TestNavigator_LogoutOnProtectedPageRedirects(t *testing.T) {
	nav, sess, rec := newTestNavigator(authedState(client.RoleUser))
	defer nav.Close()

	_, err := nav.Navigate("/profile")
	require.NoError(t, err)

	sess.set(session.State{})

	view := rec.last(t)
	assert.Equal(t, PageLogin, view.Route.Name)
	pending := nav.PendingReturn()
	require.NotNil(t, pending)
	assert.Equal(t, "/profile", pending.Path)
}

func TestNavigator_GuestPageWhileAuthenticatedGoesHome(t *testing.T) {
	nav, _, _ := newTestNavigator(authedState(client.RoleUser))
	defer nav.Close()

	view, err := nav.Navigate("/register")
	require.NoError(t, err)
	assert.Equal(t, PageHome, view.Route.Name)
}

func TestNavigator_PendingDroppedWhenLeavingLogin(t *testing.T) {
	nav, _, _ := newTestNavigator(session.State{})
	defer nav.Close()

	_, err := nav.Navigate("/profile")
	require.NoError(t, err)
	require.NotNil(t, nav.PendingReturn())

	// register keeps it, home drops it
	_, err = nav.Navigate("/register")
	require.NoError(t, err)
	assert.NotNil(t, nav.PendingReturn())

	_, err = nav.Navigate("/")
	require.NoError(t, err)
	assert.Nil(t, nav.PendingReturn())
}

func TestNavigator_SessionChangeWithoutEffectIsQuiet(t *testing.T) {
	nav, sess, rec := newTestNavigator(session.State{})
	defer nav.Close()

	_, err := nav.Navigate("/")
	require.NoError(t, err)
	before := len(rec.views)

	sess.set(session.State{Error: "Invalid credentials"})
	assert.Len(t, rec.views, before)
}

func TestNavigator_Errors(t *testing.T) {
	nav, _, _ := newTestNavigator(session.State{})
	defer nav.Close()

	_, err := nav.Navigate("/nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok := nav.Current()
	assert.False(t, ok)

	_, err = nav.Back()
	assert.ErrorIs(t, err, ErrNoPreviousURL)
}

func TestNavigator_CloseStopsReacting(t *testing.T) {
	nav, sess, rec := newTestNavigator(authedState(client.RoleUser))

	_, err := nav.Navigate("/profile")
	require.NoError(t, err)
	nav.Close()
	before := len(rec.views)

	sess.set(session.State{})
	assert.Len(t, rec.views, before)
}

func TestNavigator_ReplaceSkipsFormInHistory(t *testing.T) {
	nav, _, _ := newTestNavigator(authedState(client.RoleUser))
	defer nav.Close()

	_, err := nav.Navigate("/")
	require.NoError(t, err)
	_, err = nav.Navigate("/posts/new")
	require.NoError(t, err)

	view, err := nav.Replace(MustLocation("/posts/12"))
	require.NoError(t, err)
	assert.Equal(t, PagePost, view.Route.Name)
	assert.Equal(t, "12", view.Params["id"])
	assert.Equal(t, []string{"/", "/posts/12"}, paths(nav.History()))
}

func TestNavigator_SessionChangeDuringNavigationWins(t *testing.T) {
	user := &client.User{ID: 1, Username: "arya", Role: client.RoleUser}
	sess := &flippingSession{
		fakeSession: fakeSession{state: session.State{}},
		next:        session.State{User: user, Token: "tok", IsAuthenticated: true},
	}
	rec := &recorder{}
	nav := NewNavigator(DefaultTable(), sess, rec.listen)

	view, err := nav.Navigate("/profile")
	require.NoError(t, err)
	assert.Equal(t, LoginPath, view.Location.Path)

	sess.done.Wait()

	cur, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "/profile", cur.Location.Path)
	assert.Equal(t, Allowed, cur.Guard)
	assert.Equal(t, "/profile", rec.last(t).Location.Path)
}
