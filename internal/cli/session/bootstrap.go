package session

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Phase is the lifecycle of the startup check. It only moves forward.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInFlight
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInFlight:
		return "in_flight"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Checker is what the bootstrap runs once.
type Checker interface {
	CheckAuth(ctx context.Context)
}

// Bootstrap runs CheckAuth exactly once per process and gates initial
// rendering on it. Later auth changes never re-block rendering.
type Bootstrap struct {
	checker Checker

	mu    sync.Mutex
	phase Phase
	done  chan struct{}
}

// NewBootstrap creates a bootstrap for checker.
func NewBootstrap(checker Checker) *Bootstrap {
	return &Bootstrap{
		checker: checker,
		done:    make(chan struct{}),
	}
}

// Phase returns the current lifecycle phase.
func (b *Bootstrap) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Run starts the check on first call and blocks until it settles. Later calls
// never re-trigger it; they wait for the first one or for ctx.
func (b *Bootstrap) Run(ctx context.Context) {
	b.mu.Lock()
	if b.phase != PhaseNotStarted {
		b.mu.Unlock()
		select {
		case <-b.done:
		case <-ctx.Done():
		}
		return
	}
	b.phase = PhaseInFlight
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.phase = PhaseComplete
		close(b.done)
		b.mu.Unlock()
	}()

	b.checker.CheckAuth(ctx)
}

// InitialCheckComplete becomes true once and stays true.
func (b *Bootstrap) InitialCheckComplete() bool {
	return b.Phase() == PhaseComplete
}

// Done is closed when the initial check completes.
func (b *Bootstrap) Done() <-chan struct{} {
	return b.done
}

// Gate writes the loading placeholder until the initial check is complete,
// and calls render from then on.
func (b *Bootstrap) Gate(w io.Writer, render func() error) error {
	if !b.InitialCheckComplete() {
		_, err := fmt.Fprintln(w, LoadingPlaceholder)
		return err
	}
	return render()
}
