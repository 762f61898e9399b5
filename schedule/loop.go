// Package schedule serializes engine work onto one goroutine and debounces
// recompute requests per document.
package schedule

import (
	"context"
	"errors"
)

// ErrStopped is returned when work is handed to a loop that is not running.
var ErrStopped = errors.New("event loop stopped")

// Poster accepts work for later execution on an event loop. Post reports
// false when the work was dropped.
type Poster interface {
	Post(fn func()) bool
}

// Loop runs posted functions one at a time, in order, on the goroutine that
// called Run.
type Loop struct {
	work chan func()
	done chan struct{}
}

func NewLoop() *Loop {
	return &Loop{
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
}

// Run executes posted work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.work:
			fn()
		}
	}
}

// Post queues fn. It blocks while the queue is full and returns false once
// the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.work <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// fn may have been the last thing the loop ran.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Inline is a Poster that runs work immediately on the caller's goroutine.
// Tests and one-shot commands use it in place of a Loop.
type Inline struct{}

func (Inline) Post(fn func()) bool {
	fn()
	return true
}
