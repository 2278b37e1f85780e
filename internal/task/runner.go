// Package task runs one background operation at a time on behalf of the UI.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrBusy is returned by Submit while a previous task is still running.
var ErrBusy = errors.New("a task is already running")

// Result is the single value delivered for a submitted task.
type Result[T any] struct {
	Value T
	Err   error
}

// Runner executes at most one task at a time. Submissions made while a task is
// outstanding are rejected, never queued.
type Runner[T any] struct {
	busy atomic.Bool
}

// Busy reports whether a task is outstanding.
func (r *Runner[T]) Busy() bool {
	return r.busy.Load()
}

// Submit starts fn on its own goroutine. The returned channel receives exactly
// one Result and is then closed. A panic in fn is delivered as an error.
func (r *Runner[T]) Submit(ctx context.Context, fn func(context.Context) (T, error)) (<-chan Result[T], error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	out := make(chan Result[T], 1)
	go func() {
		var res Result[T]
		defer func() {
			if p := recover(); p != nil {
				res = Result[T]{Err: fmt.Errorf("task panicked: %v", p)}
			}
			r.busy.Store(false)
			out <- res
			close(out)
		}()
		res.Value, res.Err = fn(ctx)
	}()
	return out, nil
}
