package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
	"github.com/alanyang/prompt-mesh/internal/transport/ws"
)

func init() { gin.SetMode(gin.TestMode) }

func newFeed(t *testing.T, opts ...ws.HubOption) (*ws.Hub, string) {
	t.Helper()
	hub := ws.NewHub(opts...)
	r := gin.New()
	hub.Register(r.Group("/feed"))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
}

func dialFeed(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// ── Event feed ──────────────────────────────────────────────────────────────

func TestHub_DeliversEvents(t *testing.T) {
	hub, url := newFeed(t)
	conn := dialFeed(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(context.Background(), event.New(event.TypePromptUpdated, "general/p"))

	var got event.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, event.TypePromptUpdated, got.Type)
	assert.Equal(t, "general/p", got.PromptID)
}

func TestHub_StalledClientDoesNotBlockBroadcast(t *testing.T) {
	hub, url := newFeed(t, ws.WithFeedQueueSize(4))
	_ = dialFeed(t, url) // never reads
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	big := event.New(event.TypePromptUpdated, strings.Repeat("x", 64<<10))
	start := time.Now()
	for i := 0; i < 10000 && hub.Clients() > 0; i++ {
		hub.Broadcast(context.Background(), big)
	}
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 0, hub.Clients())

	// Clients that keep up are unaffected.
	live := dialFeed(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast(context.Background(), event.New(event.TypePromptDeleted, "general/p"))

	var got event.Event
	require.NoError(t, live.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, live.ReadJSON(&got))
	assert.Equal(t, event.TypePromptDeleted, got.Type)
}

func TestHub_CloseRefusesNewClients(t *testing.T) {
	hub, url := newFeed(t)
	conn := dialFeed(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	late := dialFeed(t, url)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Clients())
}
