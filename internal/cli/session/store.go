package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gameofbones/gameofbones/internal/cli/auth"
	"github.com/gameofbones/gameofbones/internal/cli/client"
)

const (
	loginFallback    = "Login failed. Please try again."
	registerFallback = "Registration failed. Please try again."

	logoutTimeout = 5 * time.Second
)

// AuthAPI is the subset of the REST client the store calls.
type AuthAPI interface {
	Login(ctx context.Context, creds client.Credentials) (*client.AuthResponse, error)
	Register(ctx context.Context, reg client.Registration) (*client.AuthResponse, error)
	Me(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context, token string) error
}

// AuthError is returned by Login and Register. Message is what the store put
// into State.Error.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(op string, err error, fallback string) *AuthError {
	msg := fallback
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}

// Store is the single source of truth for authentication state. It is the
// only writer of durable storage.
//
// Operations are not serialized against each other: two concurrent logins
// both reach the backend and the last one to complete wins. The mutex only
// protects the state struct.
type Store struct {
	api     AuthAPI
	storage auth.Storage
	logger  zerolog.Logger
	verify  bool

	mu    sync.RWMutex
	state State

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int

	logouts sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithVerification makes CheckAuth confirm the stored session with GET /auth/me.
func WithVerification(enabled bool) Option {
	return func(s *Store) {
		s.verify = enabled
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store in the loading state; call CheckAuth (normally via
// Bootstrap) to settle it.
func NewStore(api AuthAPI, storage auth.Storage, opts ...Option) *Store {
	s := &Store{
		api:     api,
		storage: storage,
		logger:  zerolog.Nop(),
		state:   State{IsLoading: true},
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// update applies fn as one atomic write, re-derives IsAuthenticated and
// notifies subscribers outside the lock.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.state.IsAuthenticated = s.state.User != nil && s.state.Token != ""
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot.clone())
	}
}

// CheckAuth establishes the session from durable storage. It never fails:
// anything unexpected degrades to the unauthenticated state.
func (s *Store) CheckAuth(ctx context.Context) {
	s.update(func(st *State) { st.IsLoading = true })

	token, user, err := s.readPersisted()
	if err != nil {
		if !errors.Is(err, auth.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Stored session is unreadable, clearing it")
			s.clearPersisted()
		}
		s.resetUnauthenticated()
		return
	}

	if s.verify {
		fresh, err := s.api.Me(ctx)
		if err != nil {
			s.logger.Info().Err(err).Msg("Stored session rejected, clearing it")
			s.clearPersisted()
			s.resetUnauthenticated()
			return
		}
		user = fresh
		if err := s.writeUser(user); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to refresh stored user snapshot")
		}
	}

	s.update(func(st *State) {
		st.User = user
		st.Token = token
		st.IsLoading = false
	})
}

// Login authenticates with the backend. On failure the error message lands in
// State.Error and the same failure is returned; User and Token are untouched.
func (s *Store) Login(ctx context.Context, creds client.Credentials) error {
	return s.authenticate(ctx, "login", loginFallback, func() (*client.AuthResponse, error) {
		return s.api.Login(ctx, creds)
	})
}

// Register creates an account; success authenticates immediately.
func (s *Store) Register(ctx context.Context, reg client.Registration) error {
	return s.authenticate(ctx, "register", registerFallback, func() (*client.AuthResponse, error) {
		return s.api.Register(ctx, reg)
	})
}

func (s *Store) authenticate(ctx context.Context, op, fallback string, call func() (*client.AuthResponse, error)) error {
	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	resp, err := call()
	if err == nil {
		err = s.persist(resp.Token, &resp.User)
	}
	if err != nil {
		authErr := newAuthError(op, err, fallback)
		s.logger.Debug().Err(err).Str("op", op).Msg("Authentication failed")
		s.update(func(st *State) {
			st.IsLoading = false
			st.Error = authErr.Message
		})
		return authErr
	}

	user := resp.User
	s.update(func(st *State) {
		st.User = &user
		st.Token = resp.Token
		st.IsLoading = false
	})
	s.logger.Info().Str("op", op).Int64("user_id", user.ID).Msg("Authenticated")
	return nil
}

// Logout clears durable storage and resets the state synchronously. Server-side
// invalidation runs in the background and its outcome is ignored.
func (s *Store) Logout(ctx context.Context) {
	token := s.Snapshot().Token

	s.clearPersisted()
	s.update(func(st *State) { *st = State{} })

	if token == "" || s.api == nil {
		return
	}

	s.logouts.Add(1)
	go func() {
		defer s.logouts.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
		defer cancel()
		if err := s.api.Logout(ctx, token); err != nil {
			s.logger.Debug().Err(err).Msg("Server-side logout failed")
		}
	}()
}

// Wait blocks until background logout calls have finished. The CLI calls it
// before exiting so the best-effort request gets a chance to go out.
func (s *Store) Wait() {
	s.logouts.Wait()
}

// ClearError clears the last error and nothing else.
func (s *Store) ClearError() {
	s.update(func(st *State) { st.Error = "" })
}

func (s *Store) resetUnauthenticated() {
	s.update(func(st *State) {
		st.User = nil
		st.Token = ""
		st.IsLoading = false
	})
}

// readPersisted returns auth.ErrNotFound only when both slots are empty. A
// pair with one slot missing is reported as unreadable so it gets cleared.
func (s *Store) readPersisted() (string, *client.User, error) {
	token, tokenErr := s.storage.Get(auth.TokenKey)
	raw, userErr := s.storage.Get(auth.UserKey)
	tokenMissing := errors.Is(tokenErr, auth.ErrNotFound) || (tokenErr == nil && token == "")
	userMissing := errors.Is(userErr, auth.ErrNotFound)

	switch {
	case tokenMissing && userMissing:
		return "", nil, auth.ErrNotFound
	case tokenErr != nil && !tokenMissing:
		return "", nil, tokenErr
	case userErr != nil && !userMissing:
		return "", nil, userErr
	case tokenMissing:
		return "", nil, fmt.Errorf("stored user has no token")
	case userMissing:
		return "", nil, fmt.Errorf("stored token has no user")
	}

	var user client.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", nil, fmt.Errorf("failed to parse stored user: %w", err)
	}
	if user.ID == 0 {
		return "", nil, fmt.Errorf("stored user has no id")
	}
	return token, &user, nil
}

func (s *Store) writeUser(user *client.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.storage.Set(auth.UserKey, string(data))
}

// persist writes both slots. If either write fails the previous slot values
// are put back so storage never holds a half-written session.
func (s *Store) persist(token string, user *client.User) error {
	prevToken, tokenErr := s.storage.Get(auth.TokenKey)
	prevUser, userErr := s.storage.Get(auth.UserKey)

	err := s.writeUser(user)
	if err == nil {
		err = s.storage.Set(auth.TokenKey, token)
	}
	if err == nil {
		return nil
	}

	restore := func(key, value string, readErr error) {
		if readErr != nil {
			_ = s.storage.Delete(key)
			return
		}
		_ = s.storage.Set(key, value)
	}
	restore(auth.UserKey, prevUser, userErr)
	restore(auth.TokenKey, prevToken, tokenErr)

	return fmt.Errorf("failed to save session: %w", err)
}

func (s *Store) clearPersisted() {
	if err := auth.Clear(s.storage); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear stored session")
	}
}
