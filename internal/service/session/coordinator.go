// Package session coordinates live editing sessions. Every prompt with at
// least one open session has a room: a goroutine that applies the sessions'
// mutations one at a time and broadcasts each committed change to the other
// sessions in the room, in commit order.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
	"github.com/alanyang/prompt-mesh/internal/metrics"
	portchannel "github.com/alanyang/prompt-mesh/internal/port/channel"
	portprompt "github.com/alanyang/prompt-mesh/internal/port/prompt"
)

const defaultQueueSize = 64

// Coordinator owns the registry of rooms. Rooms are created on first join
// and torn down on last leave; reference counts under mu make both atomic
// with respect to concurrent joins.
type Coordinator struct {
	prompts   portprompt.Editor
	instance  string
	queueSize int

	mu    sync.Mutex
	rooms map[string]*roomRef
}

type roomRef struct {
	r    *room
	refs int
}

type Option func(*Coordinator)

// WithQueueSize bounds each session's outbound queue and each room's inbox.
func WithQueueSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// NewCoordinator returns a Coordinator for this process. instance must match
// the instance the prompt service stamps on its events.
func NewCoordinator(prompts portprompt.Editor, instance string, opts ...Option) *Coordinator {
	c := &Coordinator{
		prompts:   prompts,
		instance:  instance,
		queueSize: defaultQueueSize,
		rooms:     make(map[string]*roomRef),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Serve runs one editing session on conn for promptID and blocks until the
// session ends, either because the client went away or ctx was cancelled.
// If the prompt does not exist Serve returns an error wrapping
// prompt.ErrNotFound without joining. Serve does not close conn on that path.
func (c *Coordinator) Serve(ctx context.Context, promptID string, conn portchannel.Conn) error {
	if _, err := c.prompts.Get(ctx, promptID); err != nil {
		return fmt.Errorf("join session: %w", err)
	}

	s := newSession(conn, c.queueSize)
	metrics.SessionOpened()
	defer metrics.SessionClosed()
	slog.InfoContext(ctx, "editing session opened", "prompt_id", promptID, "session", s.id)

	go s.writeLoop()

	r := c.acquire(promptID)
	r.post(joinMsg{s: s})

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.readLoop(r)

	last := c.release(promptID, r)
	r.post(leaveMsg{s: s, last: last})
	<-s.done

	slog.InfoContext(ctx, "editing session closed", "prompt_id", promptID, "session", s.id)
	return nil
}

// Deliver routes a prompt event to the room for its prompt, if any. Events
// this process published on behalf of one of its own sessions were already
// broadcast by that session's room and are skipped.
func (c *Coordinator) Deliver(_ context.Context, e event.Event) {
	if e.Instance == c.instance && e.Session != "" {
		return
	}

	c.mu.Lock()
	ref, ok := c.rooms[e.PromptID]
	c.mu.Unlock()
	if !ok {
		return
	}
	ref.r.post(eventMsg{e: e})
}

// Rooms reports how many rooms are open.
func (c *Coordinator) Rooms() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

func (c *Coordinator) acquire(promptID string) *room {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, ok := c.rooms[promptID]
	if !ok {
		ref = &roomRef{r: newRoom(promptID, c)}
		c.rooms[promptID] = ref
		go ref.r.run()
	}
	ref.refs++
	return ref.r
}

// release reports whether the caller held the last reference to r. The room
// leaves the registry immediately, so a concurrent join starts a new one.
func (c *Coordinator) release(promptID string, r *room) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, ok := c.rooms[promptID]
	if !ok || ref.r != r {
		return false
	}
	ref.refs--
	if ref.refs > 0 {
		return false
	}
	delete(c.rooms, promptID)
	return true
}
