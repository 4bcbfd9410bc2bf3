package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/session"
)

// CloseNotFound is sent when a client opens a session on a prompt that does not exist.
const CloseNotFound = 4004

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ── Editing sessions ────────────────────────────────────────────────────────

// Sessions serves /prompts/:namespace/:name as live editing sessions.
// Sessions end when the client leaves or ctx (the server's lifetime) ends.
type Sessions struct {
	ctx   context.Context
	coord *session.Coordinator
}

func NewSessions(ctx context.Context, coord *session.Coordinator) *Sessions {
	return &Sessions{ctx: ctx, coord: coord}
}

func (s *Sessions) Register(rg *gin.RouterGroup) {
	rg.GET("/:namespace", s.handleSession)
	rg.GET("/:namespace/:name", s.handleSession)
}

func (s *Sessions) handleSession(c *gin.Context) {
	id := PromptID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxFrameSize)

	err = s.coord.Serve(s.ctx, id, &wsConn{conn: conn})
	if errors.Is(err, domainprompt.ErrNotFound) {
		msg := websocket.FormatCloseMessage(CloseNotFound, "prompt not found")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)) //nolint:errcheck
		conn.Close()
		return
	}
	if err != nil {
		slog.Error("editing session failed", "prompt_id", id, "error", err)
		conn.Close()
	}
}

// PromptID rebuilds a prompt id from the route. A single segment is a legacy bare id.
func PromptID(c *gin.Context) string {
	ns, name := c.Param("namespace"), c.Param("name")
	if name == "" {
		return ns
	}
	return ns + "/" + name
}

// wsConn bounds every write so a stalled client cannot pin its writer goroutine forever.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) ReadJSON(v any) error {
	return w.conn.ReadJSON(v)
}

func (w *wsConn) WriteJSON(v any) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// ── Event feed ──────────────────────────────────────────────────────────────

const defaultFeedQueueSize = 64

// Hub pushes every prompt event to dashboards connected to the feed. Each
// client has its own writer goroutine and bounded queue; Broadcast never
// waits on a client, and a client whose queue is full is dropped.
type Hub struct {
	queueSize int

	mu      sync.Mutex
	clients map[*feedClient]struct{}
	closed  bool
}

type HubOption func(*Hub)

// WithFeedQueueSize bounds how many events may wait for one feed client.
func WithFeedQueueSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		queueSize: defaultFeedQueueSize,
		clients:   make(map[*feedClient]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type feedClient struct {
	conn *websocket.Conn
	out  chan []byte
}

func (h *Hub) Register(rg *gin.RouterGroup) {
	rg.GET("", h.handleWS)
}

func (h *Hub) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &feedClient{conn: conn, out: make(chan []byte, h.queueSize)}
	if !h.add(client) {
		conn.Close()
		return
	}
	go h.writeLoop(client)
	defer h.remove(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop sends queued events in order until the client is removed.
func (h *Hub) writeLoop(c *feedClient) {
	failed := false
	for data := range c.out {
		if failed {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("websocket write failed", "error", err)
			failed = true
			h.remove(c)
		}
	}
}

func (h *Hub) add(c *feedClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked must be called with mu held. Closing the conn unblocks a writer
// stuck on a client that stopped reading.
func (h *Hub) dropLocked(c *feedClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.out)
	c.conn.Close()
}

// Broadcast has the eventbus.Handler signature.
func (h *Hub) Broadcast(_ context.Context, e event.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("websocket broadcast marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.out <- data:
		default:
			slog.Warn("dropping slow feed client", "remote", c.conn.RemoteAddr().String())
			h.dropLocked(c)
		}
	}
}

// Clients reports how many feed clients are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every feed client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}
