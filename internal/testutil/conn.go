package testutil

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// ErrConnClosed is returned by FakeConn after Close or CloseClient.
var ErrConnClosed = errors.New("fake conn closed")

// FakeConn is an in-memory channel.Conn. The test plays the client: Send
// queues a frame for ReadJSON, Next pops a frame written by WriteJSON.
type FakeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func NewFakeConn() *FakeConn {
	return &FakeConn{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (c *FakeConn) ReadJSON(v any) error {
	select {
	case data := <-c.in:
		return json.Unmarshal(data, v)
	case <-c.closed:
		return io.EOF
	}
}

func (c *FakeConn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.closed:
		return ErrConnClosed
	}
}

func (c *FakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// CloseClient simulates the client hanging up.
func (c *FakeConn) CloseClient() { _ = c.Close() }

// Closed reports whether the server side closed the connection.
func (c *FakeConn) Closed() <-chan struct{} { return c.closed }

// Send marshals v and queues it for the server.
func (c *FakeConn) Send(t testing.TB, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal client frame: %v", err)
	}
	c.SendRaw(data)
}

// SendRaw queues an arbitrary frame, which need not be valid JSON.
func (c *FakeConn) SendRaw(data []byte) {
	c.in <- data
}

// Next returns the next frame the server wrote, decoded into a map. It fails
// the test if nothing arrives within a second.
func (c *FakeConn) Next(t testing.TB) map[string]any {
	t.Helper()
	select {
	case data := <-c.out:
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode server frame %s: %v", data, err)
		}
		return m
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for server frame")
		return nil
	}
}

// NextAction skips frames until one whose "action" equals action arrives.
func (c *FakeConn) NextAction(t testing.TB, action string) map[string]any {
	t.Helper()
	for {
		m := c.Next(t)
		if m["action"] == action {
			return m
		}
	}
}

// ExpectNone fails the test if the server writes a frame within d.
func (c *FakeConn) ExpectNone(t testing.TB, d time.Duration) {
	t.Helper()
	select {
	case data := <-c.out:
		t.Fatalf("unexpected server frame: %s", data)
	case <-time.After(d):
	}
}
