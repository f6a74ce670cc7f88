// Package optimistic applies local changes before the backend confirms them
// and rolls them back when it does not.
package optimistic

import (
	"context"
	"sync"
)

// Do runs apply, then request. If request fails, inverse undoes apply and the
// request's error is returned.
func Do(ctx context.Context, apply, inverse func(), request func(context.Context) error) error {
	apply()
	if err := request(ctx); err != nil {
		inverse()
		return err
	}
	return nil
}

// Cell holds a value that is updated optimistically.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  []func(T)
}

// NewCell creates a cell holding v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// OnChange registers fn to run after every change to the value.
func (c *Cell[T]) OnChange(fn func(T)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *Cell[T]) set(v T) {
	c.mu.Lock()
	c.value = v
	subs := append([]func(T){}, c.subs...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Update shows mutate's result immediately, then calls request with it. On
// success the value the backend returned replaces the guess; on failure the
// value from before the update is restored.
func (c *Cell[T]) Update(ctx context.Context, mutate func(T) T, request func(context.Context, T) (T, error)) error {
	prev := c.Get()
	next := mutate(prev)

	var confirmed T
	err := Do(ctx,
		func() { c.set(next) },
		func() { c.set(prev) },
		func(ctx context.Context) error {
			var err error
			confirmed, err = request(ctx, next)
			return err
		},
	)
	if err != nil {
		return err
	}
	c.set(confirmed)
	return nil
}
