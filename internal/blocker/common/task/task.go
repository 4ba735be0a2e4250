// Package task owns long-lived background goroutines.
//
// Every goroutine started through Go is bound to a Handle. A task runs until
// its function returns, its Handle is stopped, or the parent context is
// cancelled; nothing else terminates it. Stop is idempotent and waits for the
// function to return, so callers never leak a task they started.
package task

import (
	"context"
	"errors"
	"sync"

	"github.com/haukened/tamashii/internal/blocker/common/log"
)

// Func is the body of a task. It must return promptly once ctx is done.
type Func func(ctx context.Context) error

// Handle controls a running task.
type Handle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Go starts fn in its own goroutine and returns its Handle.
func Go(parent context.Context, name string, logger log.Logger, fn Func) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{name: name, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()
		err := fn(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		if err != nil {
			logger.Error(map[string]any{"task": name, "error": err}, "task_exited_with_error")
			return
		}
		logger.Debug(map[string]any{"task": name}, "task_stopped")
	}()

	logger.Debug(map[string]any{"task": name}, "task_started")
	return h
}

// Name returns the task name given to Go.
func (h *Handle) Name() string { return h.name }

// Done is closed once the task function has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Stop cancels the task and blocks until it has returned.
// It is safe to call on a nil Handle and more than once.
func (h *Handle) Stop() error {
	if h == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return h.Err()
}

// Err reports the error the task returned, excluding cancellation.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
