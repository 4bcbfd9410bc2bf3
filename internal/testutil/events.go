package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
)

// EventRecorder is a bus handler that records every event it receives.
// It is safe for concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
	notify chan struct{}
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{notify: make(chan struct{}, 1)}
}

// Handle has the eventbus.Handler signature.
func (r *EventRecorder) Handle(_ context.Context, e event.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// WaitFor blocks until n events have been recorded or timeout elapses.
func (r *EventRecorder) WaitFor(n int, timeout time.Duration) []event.Event {
	deadline := time.After(timeout)
	for {
		if evs := r.Events(); len(evs) >= n {
			return evs
		}
		select {
		case <-r.notify:
		case <-deadline:
			return r.Events()
		}
	}
}
