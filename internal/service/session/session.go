package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	portchannel "github.com/alanyang/prompt-mesh/internal/port/channel"
)

// session is one client connection. The reader goroutine feeds the room inbox;
// the writer goroutine drains out. Only the room goroutine sends on or closes
// out, and only it reads or writes closed.
type session struct {
	id   string
	conn portchannel.Conn
	out  chan any
	done chan struct{}

	closed bool
}

func newSession(conn portchannel.Conn, queueSize int) *session {
	return &session{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan any, queueSize),
		done: make(chan struct{}),
	}
}

// writeLoop sends queued frames in order. When out is closed, or a write
// fails, it closes the connection so the reader unblocks too.
func (s *session) writeLoop() {
	defer close(s.done)
	for msg := range s.out {
		if err := s.conn.WriteJSON(msg); err != nil {
			slog.Debug("session write failed", "session", s.id, "error", err)
			s.conn.Close()
			for range s.out {
			}
			return
		}
	}
	s.conn.Close()
}

// readLoop forwards client frames to the room until the channel fails.
// Malformed frames are forwarded as protocol errors and reading continues.
func (s *session) readLoop(r *room) {
	for {
		var raw json.RawMessage
		if err := s.conn.ReadJSON(&raw); err != nil {
			if isProtocolError(err) {
				r.post(invalidMsg{s: s, err: &ProtocolError{Reason: "malformed frame: " + err.Error()}})
				continue
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			r.post(invalidMsg{s: s, err: &ProtocolError{Reason: "malformed frame: " + err.Error()}})
			continue
		}
		r.post(clientMsg{s: s, msg: msg})
	}
}

func isProtocolError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
