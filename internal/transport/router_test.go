package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prompt-mesh/internal/adapter/filestore"
	"github.com/alanyang/prompt-mesh/internal/adapter/memory"
	"github.com/alanyang/prompt-mesh/internal/adapter/osfs"
	"github.com/alanyang/prompt-mesh/internal/domain/event"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/expansion"
	promptsvc "github.com/alanyang/prompt-mesh/internal/service/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/session"
	"github.com/alanyang/prompt-mesh/internal/transport"
	mcptransport "github.com/alanyang/prompt-mesh/internal/transport/mcp"
	"github.com/alanyang/prompt-mesh/internal/transport/ws"
)

const instance = "router-test"

type app struct {
	srv    *httptest.Server
	router *transport.Router
	svc    *promptsvc.Service
	dir    string
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	repo := filestore.New(osfs.New(domainprompt.Extension), domainprompt.NewNamespaces())
	bus := memory.NewEventBus()
	svc := promptsvc.NewService(repo, expansion.NewEngine(repo), bus, memory.NewLocker(), instance)
	coord := session.NewCoordinator(svc, instance)
	sub, err := bus.Subscribe(ctx, event.ChannelPrompt, coord.Deliver)
	require.NoError(t, err)

	router, err := transport.NewRouter(ctx, svc, coord, mcptransport.New(svc, "test"), bus)
	require.NoError(t, err)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		sub.Unsubscribe()
		srv.Close()
	})
	return &app{srv: srv, router: router, svc: svc, dir: filepath.Join(t.TempDir(), "general")}
}

func (a *app) create(t *testing.T, name, content string) domainprompt.Prompt {
	t.Helper()
	p, err := a.svc.Create(context.Background(), promptsvc.CreateInput{Directory: a.dir, Name: name, Content: content})
	require.NoError(t, err)
	return p
}

func (a *app) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m map[string]any
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

// ── Editing sessions over WebSocket ──────────────────────────────────────────

func TestSessionOverWebSocket(t *testing.T) {
	a := newApp(t)
	p := a.create(t, "doc", "v0")

	alice := a.dial(t, "/api/ws/prompts/general/doc")
	initial := readFrame(t, alice)
	assert.Equal(t, "initial", initial["action"])
	assert.Equal(t, p.ID, initial["id"])
	assert.Equal(t, "v0", initial["content"])

	bob := a.dial(t, "/api/ws/prompts/general/doc")
	assert.Equal(t, "initial", readFrame(t, bob)["action"])

	require.NoError(t, alice.WriteJSON(map[string]any{"action": "update", "content": "v1"}))
	ack := readFrame(t, alice)
	assert.Equal(t, "update_status", ack["action"])
	assert.Equal(t, true, ack["success"])

	update := readFrame(t, bob)
	assert.Equal(t, "update", update["action"])
	assert.Equal(t, "v1", update["content"])
	assert.Equal(t, ack["seq"], update["seq"])

	require.NoError(t, bob.WriteJSON(map[string]any{"action": "expand", "content": "[[doc]]"}))
	expanded := readFrame(t, bob)
	assert.Equal(t, "expanded", expanded["action"])
	assert.Equal(t, "[ERROR: Circular reference to 'general/doc']", expanded["expanded"])

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "error", readFrame(t, alice)["action"])
}

func TestSessionOverWebSocket_MissingPromptCloses4004(t *testing.T) {
	a := newApp(t)
	conn := a.dial(t, "/api/ws/prompts/general/ghost")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, ws.CloseNotFound, closeErr.Code)
}

func TestSessionOverWebSocket_DeletedPromptEndsSession(t *testing.T) {
	a := newApp(t)
	p := a.create(t, "doc", "v0")
	conn := a.dial(t, "/api/ws/prompts/general/doc")
	readFrame(t, conn)

	require.NoError(t, a.svc.Delete(context.Background(), p.ID))
	deleted := readFrame(t, conn)
	assert.Equal(t, "deleted", deleted["action"])

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

// ── REST, event feed and operational endpoints ───────────────────────────────

func TestRESTUpdateReachesEventFeed(t *testing.T) {
	a := newApp(t)
	a.create(t, "doc", "v0")

	feed := a.dial(t, "/api/ws")
	require.Eventually(t, func() bool { return a.router.Hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPut,
		a.srv.URL+"/api/prompts/general/doc", strings.NewReader(`{"content":"from rest"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msg := readFrame(t, feed)
	assert.Equal(t, string(event.TypePromptUpdated), msg["type"])
	assert.Equal(t, "general/doc", msg["prompt_id"])
}

func TestHealthzAndMetrics(t *testing.T) {
	a := newApp(t)
	a.create(t, "doc", "v0")

	resp, err := http.Get(a.srv.URL + "/api/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["prompts"])

	resp, err = http.Get(a.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "promptmesh_prompt_mutations_total")
}
