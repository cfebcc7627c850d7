package poller

import (
	"context"
	"fmt"
)

// Task is a handle on a running poll loop. The loop stops when it reaches a
// terminal condition, when its parent context is cancelled, or when Stop is
// called.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// startTask runs fn in its own goroutine under a cancellable context.
func startTask(parent context.Context, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("poll loop panicked: %v", r)
			}
		}()
		t.err = fn(ctx)
	}()

	return t
}

// Stop cancels the loop and waits for it to exit. Safe to call more than once.
func (t *Task) Stop() {
	t.cancel()
	<-t.done
}

// Done is closed once the loop has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the loop exits and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Err returns the loop's error once it has exited, nil while it is running.
// A loop stopped by cancellation reports context.Canceled.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
