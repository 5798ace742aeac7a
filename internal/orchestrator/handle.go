package orchestrator

import (
	"context"
	"sync"
)

// Completion is a one-shot handle for the eventual result of an asynchronous
// operation. It settles exactly once; later Resolve/Reject calls are ignored.
type Completion[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func NewCompletion[T any]() *Completion[T] {
	return &Completion[T]{done: make(chan struct{})}
}

// Resolve settles the handle with a value. Returns false if already settled.
func (c *Completion[T]) Resolve(v T) bool {
	settled := false
	c.once.Do(func() {
		c.val = v
		close(c.done)
		settled = true
	})
	return settled
}

// Reject settles the handle with an error. Returns false if already settled.
func (c *Completion[T]) Reject(err error) bool {
	settled := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		settled = true
	})
	return settled
}

// Done is closed once the handle settles.
func (c *Completion[T]) Done() <-chan struct{} { return c.done }

func (c *Completion[T]) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the handle settles or ctx is cancelled.
func (c *Completion[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
