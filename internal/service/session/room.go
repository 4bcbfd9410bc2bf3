package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	"github.com/alanyang/prompt-mesh/internal/metrics"
)

// Inbox messages. Everything a room does is triggered by one of these.
type (
	joinMsg struct {
		s *session
	}
	leaveMsg struct {
		s    *session
		last bool
	}
	clientMsg struct {
		s   *session
		msg ClientMessage
	}
	invalidMsg struct {
		s   *session
		err error
	}
	eventMsg struct {
		e event.Event
	}
)

// room is the actor for one prompt id. A single goroutine drains inbox, so
// the order in which frames are processed is the order in which their effects
// are broadcast.
type room struct {
	id    string
	c     *Coordinator
	inbox chan any
	done  chan struct{}

	// Owned by the run goroutine.
	sessions map[*session]struct{}
	seq      uint64
}

func newRoom(id string, c *Coordinator) *room {
	return &room{
		id:       id,
		c:        c,
		inbox:    make(chan any, c.queueSize),
		done:     make(chan struct{}),
		sessions: make(map[*session]struct{}),
	}
}

// post hands m to the room. It returns false if the room has already exited.
func (r *room) post(m any) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.done:
		return false
	}
}

func (r *room) run() {
	defer close(r.done)
	metrics.RoomOpened()
	defer metrics.RoomClosed()
	slog.Debug("room opened", "prompt_id", r.id)

	ctx := context.Background()
	for m := range r.inbox {
		switch m := m.(type) {
		case joinMsg:
			r.join(ctx, m.s)
		case leaveMsg:
			r.drop(m.s)
			if m.last {
				r.closeAll()
				slog.Debug("room closed", "prompt_id", r.id)
				return
			}
		case clientMsg:
			if _, ok := r.sessions[m.s]; ok {
				r.handle(ctx, m.s, m.msg)
			}
		case invalidMsg:
			if _, ok := r.sessions[m.s]; ok {
				metrics.RecordSessionMessage("invalid", false)
				r.send(m.s, ErrorMessage{Action: ActionError, Message: m.err.Error()})
			}
		case eventMsg:
			r.apply(ctx, m.e)
		}
	}
}

func (r *room) join(ctx context.Context, s *session) {
	p, err := r.c.prompts.Get(ctx, r.id)
	if err != nil {
		slog.WarnContext(ctx, "join on unavailable prompt", "prompt_id", r.id, "session", s.id, "error", err)
		if errors.Is(err, domainprompt.ErrNotFound) {
			r.send(s, Deleted{Action: ActionDeleted, ID: r.id, Seq: r.seq})
		} else {
			r.send(s, ErrorMessage{Action: ActionError, Message: err.Error()})
		}
		r.drop(s)
		return
	}
	r.sessions[s] = struct{}{}
	r.send(s, newInitial(p, s.id, r.seq))
	slog.Debug("session joined", "prompt_id", r.id, "session", s.id, "sessions", len(r.sessions))
}

func (r *room) handle(ctx context.Context, s *session, msg ClientMessage) {
	ctx = event.WithSession(ctx, s.id)

	switch msg.Action {
	case ActionUpdate:
		if msg.Content == nil {
			r.reject(s, msg.Action, &ProtocolError{Reason: "update requires content"})
			return
		}
		p, err := r.c.prompts.UpdateContent(ctx, r.id, *msg.Content)
		if err != nil {
			r.fail(ctx, s, msg.Action, err)
			return
		}
		r.seq++
		metrics.RecordSessionMessage(msg.Action, true)
		r.send(s, UpdateStatus{Action: ActionUpdateStatus, Success: true, Timestamp: p.UpdatedAt, Seq: r.seq})
		r.broadcast(s.id, UpdateBroadcast{Action: ActionUpdate, Content: p.Content, Timestamp: p.UpdatedAt, Seq: r.seq})

	case ActionUpdateMetadata:
		p, err := r.c.prompts.UpdateMetadata(ctx, r.id, msg.Description, msg.Tags)
		if err != nil {
			r.fail(ctx, s, msg.Action, err)
			return
		}
		r.seq++
		metrics.RecordSessionMessage(msg.Action, true)
		r.send(s, UpdateStatus{Action: ActionUpdateStatus, Success: true, Timestamp: p.UpdatedAt, Seq: r.seq})
		r.broadcast(s.id, MetadataBroadcast{
			Action: ActionUpdateMetadata, Description: p.Description, Tags: p.Tags, Timestamp: p.UpdatedAt, Seq: r.seq,
		})

	case ActionExpand:
		if msg.Content == nil {
			r.reject(s, msg.Action, &ProtocolError{Reason: "expand requires content"})
			return
		}
		res, err := r.c.prompts.ExpandContent(ctx, *msg.Content, "", r.id)
		if err != nil {
			metrics.RecordSessionMessage(msg.Action, false)
			r.send(s, ErrorMessage{Action: ActionError, Message: err.Error()})
			return
		}
		metrics.RecordSessionMessage(msg.Action, true)
		r.send(s, newExpanded(*msg.Content, res))

	default:
		r.reject(s, "unknown", &ProtocolError{Reason: fmt.Sprintf("unknown action %q", msg.Action)})
	}
}

// fail acknowledges a mutation that did not commit. Nothing is broadcast.
func (r *room) fail(ctx context.Context, s *session, action string, err error) {
	slog.WarnContext(ctx, "session mutation failed", "prompt_id", r.id, "session", s.id, "action", action, "error", err)
	metrics.RecordSessionMessage(action, false)
	r.send(s, UpdateStatus{Action: ActionUpdateStatus, Success: false, Timestamp: time.Now().UTC(), Error: err.Error()})
}

func (r *room) reject(s *session, action string, err *ProtocolError) {
	metrics.RecordSessionMessage(action, false)
	r.send(s, ErrorMessage{Action: ActionError, Message: err.Error()})
}

// apply turns a change made outside this room into broadcasts.
func (r *room) apply(ctx context.Context, e event.Event) {
	if len(r.sessions) == 0 {
		return
	}
	switch e.Type {
	case event.TypePromptUpdated:
		p, err := r.c.prompts.Get(ctx, r.id)
		if err != nil {
			slog.WarnContext(ctx, "refetch after external update failed", "prompt_id", r.id, "error", err)
			return
		}
		r.seq++
		r.broadcast(e.Session, UpdateBroadcast{Action: ActionUpdate, Content: p.Content, Timestamp: p.UpdatedAt, Seq: r.seq})

	case event.TypePromptMetadataUpdated:
		p, err := r.c.prompts.Get(ctx, r.id)
		if err != nil {
			slog.WarnContext(ctx, "refetch after external metadata update failed", "prompt_id", r.id, "error", err)
			return
		}
		r.seq++
		r.broadcast(e.Session, MetadataBroadcast{
			Action: ActionUpdateMetadata, Description: p.Description, Tags: p.Tags, Timestamp: p.UpdatedAt, Seq: r.seq,
		})

	case event.TypePromptDeleted:
		r.seq++
		r.broadcast("", Deleted{Action: ActionDeleted, ID: r.id, Seq: r.seq})
		for s := range r.sessions {
			r.drop(s)
		}
	}
}

// broadcast sends msg to every session except the one with id except.
func (r *room) broadcast(except string, msg any) {
	for s := range r.sessions {
		if s.id == except {
			continue
		}
		r.send(s, msg)
	}
}

// send never blocks the room. A session whose queue is full is dropped.
func (r *room) send(s *session, msg any) {
	if s.closed {
		return
	}
	select {
	case s.out <- msg:
	default:
		slog.Warn("dropping slow session", "prompt_id", r.id, "session", s.id)
		metrics.RecordBroadcastDropped()
		r.drop(s)
		// The writer may be stuck in a write; closing unblocks it and the reader.
		s.conn.Close()
	}
}

// drop removes s and closes its queue; its writer then closes the channel.
func (r *room) drop(s *session) {
	delete(r.sessions, s)
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

func (r *room) closeAll() {
	for s := range r.sessions {
		r.drop(s)
	}
}
