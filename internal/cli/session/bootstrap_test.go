package session

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameofbones/gameofbones/internal/cli/client"
)

// countingChecker blocks until released and counts calls
type countingChecker struct {
	calls   atomic.Int32
	release chan struct{}
}

func (c *countingChecker) CheckAuth(ctx context.Context) {
	c.calls.Add(1)
	<-c.release
}

func TestBootstrap_RunsCheckOnce(t *testing.T) {
	checker := &countingChecker{release: make(chan struct{})}
	b := NewBootstrap(checker)
	assert.Equal(t, PhaseNotStarted, b.Phase())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return b.Phase() == PhaseInFlight }, time.Second, time.Millisecond)
	assert.False(t, b.InitialCheckComplete())

	close(checker.release)
	wg.Wait()

	assert.Equal(t, int32(1), checker.calls.Load())
	assert.Equal(t, PhaseComplete, b.Phase())
	assert.True(t, b.InitialCheckComplete())

	// A later Run (a "remount") does not re-trigger the check
	b.Run(context.Background())
	assert.Equal(t, int32(1), checker.calls.Load())

	select {
	case <-b.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
}

func TestBootstrap_WaiterHonorsContext(t *testing.T) {
	checker := &countingChecker{release: make(chan struct{})}
	defer close(checker.release)
	b := NewBootstrap(checker)

	go b.Run(context.Background())
	require.Eventually(t, func() bool { return b.Phase() == PhaseInFlight }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	b.Run(ctx)
	assert.False(t, b.InitialCheckComplete())
}

func TestBootstrap_GateIgnoresLaterLoading(t *testing.T) {
	store := NewStore(&mockAPI{loginErr: &client.APIError{Status: 401, Message: "no"}}, newMemStorage())
	b := NewBootstrap(store)

	var out bytes.Buffer
	rendered := 0
	render := func() error {
		rendered++
		return nil
	}

	require.NoError(t, b.Gate(&out, render))
	assert.Contains(t, out.String(), LoadingPlaceholder)
	assert.Equal(t, 0, rendered)

	b.Run(context.Background())
	require.NoError(t, b.Gate(&out, render))
	assert.Equal(t, 1, rendered)

	// A login in flight sets IsLoading again but the gate stays open
	var during int
	unsubscribe := store.Subscribe(func(st State) {
		if st.IsLoading {
			_ = b.Gate(&out, func() error { during++; return nil })
		}
	})
	defer unsubscribe()
	_ = store.Login(context.Background(), client.Credentials{})
	assert.Equal(t, 1, during)
}
