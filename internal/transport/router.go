package transport

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	porteventbus "github.com/alanyang/prompt-mesh/internal/port/eventbus"
	promptsvc "github.com/alanyang/prompt-mesh/internal/service/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/session"

	mcptransport "github.com/alanyang/prompt-mesh/internal/transport/mcp"
	prompthandler "github.com/alanyang/prompt-mesh/internal/transport/prompt"
	wshandler "github.com/alanyang/prompt-mesh/internal/transport/ws"
)

// Router is the HTTP surface plus the event feed hub it owns.
type Router struct {
	*gin.Engine
	Hub *wshandler.Hub
}

// NewRouter mounts every endpoint. ctx bounds the lifetime of WebSocket
// sessions, which outlive the HTTP request that opened them.
func NewRouter(
	ctx context.Context,
	promptSvc *promptsvc.Service,
	coord *session.Coordinator,
	mcpServer *mcptransport.Server,
	eventBus porteventbus.EventBus,
) (*Router, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())

	api := r.Group("/api")

	prompthandler.Register(api.Group("/prompts"), promptSvc)
	prompthandler.RegisterExpand(api, promptSvc)

	api.GET("/healthz", func(c *gin.Context) {
		ps, err := promptSvc.List(c.Request.Context(), domainprompt.ListFilters{})
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "prompts": len(ps), "rooms": coord.Rooms()})
	})

	wshandler.NewSessions(ctx, coord).Register(api.Group("/ws/prompts"))

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	// Dashboards get every prompt event, including those of peer processes.
	sub, err := eventBus.Subscribe(ctx, event.ChannelPrompt, hub.Broadcast)
	if err != nil {
		return nil, err
	}
	context.AfterFunc(ctx, func() {
		sub.Unsubscribe()
		hub.Close()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Any("/mcp", gin.WrapH(mcpServer.Handler()))

	return &Router{Engine: r, Hub: hub}, nil
}
