package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/alanyang/prompt-mesh/internal/adapter/filestore"
	"github.com/alanyang/prompt-mesh/internal/adapter/fswatch"
	"github.com/alanyang/prompt-mesh/internal/adapter/memory"
	"github.com/alanyang/prompt-mesh/internal/adapter/osfs"
	pgdb "github.com/alanyang/prompt-mesh/internal/adapter/postgres"
	pgeventbus "github.com/alanyang/prompt-mesh/internal/adapter/postgres/eventbus"
	pglocker "github.com/alanyang/prompt-mesh/internal/adapter/postgres/locker"
	"github.com/alanyang/prompt-mesh/internal/config"
	"github.com/alanyang/prompt-mesh/internal/domain/event"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	porteventbus "github.com/alanyang/prompt-mesh/internal/port/eventbus"
	portlocker "github.com/alanyang/prompt-mesh/internal/port/locker"
	"github.com/alanyang/prompt-mesh/internal/service/expansion"
	promptsvc "github.com/alanyang/prompt-mesh/internal/service/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/session"
	"github.com/alanyang/prompt-mesh/internal/transport"
	mcptransport "github.com/alanyang/prompt-mesh/internal/transport/mcp"
)

const shutdownTimeout = 10 * time.Second

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Instance    string
	Server      *http.Server
	PromptSvc   *promptsvc.Service
	Coordinator *session.Coordinator
	MCPServer   *mcptransport.Server

	pool    *pgxpool.Pool
	pgBus   *pgeventbus.EventBus
	watcher *fswatch.Watcher
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies. ctx bounds the lifetime of the event subscriptions
// and of every editing session.
func Build(ctx context.Context, cfg *config.Config, version string) (app *App, err error) {
	app = &App{Instance: uuid.NewString()}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// ── Coordination ─────────────────────────────────────────────────────────
	var (
		bus    porteventbus.EventBus
		locker portlocker.Locker
	)
	if cfg.MultiProcess() {
		pool, err := pgdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return app, fmt.Errorf("connecting to database: %w", err)
		}
		app.pool = pool
		app.pgBus = pgeventbus.New(pool)
		bus, locker = app.pgBus, pglocker.New(pool)
		slog.InfoContext(ctx, "coordinating through postgres", "instance", app.Instance)
	} else {
		bus, locker = memory.NewEventBus(), memory.NewLocker()
		slog.InfoContext(ctx, "running single-process", "instance", app.Instance)
	}

	// ── Prompts ──────────────────────────────────────────────────────────────
	repo := filestore.New(osfs.New(domainprompt.Extension), domainprompt.NewNamespaces())
	engine := expansion.NewEngine(repo, expansion.WithMaxDepth(cfg.MaxInclusionDepth))
	app.PromptSvc = promptsvc.NewService(repo, engine, bus, locker, app.Instance)
	app.Coordinator = session.NewCoordinator(app.PromptSvc, app.Instance, session.WithQueueSize(cfg.SessionQueueSize))

	// Peer events refresh the index before rooms hear about them.
	if _, err := bus.Subscribe(ctx, event.ChannelPrompt, func(ctx context.Context, e event.Event) {
		app.PromptSvc.Sync(ctx, e)
		app.Coordinator.Deliver(ctx, e)
	}); err != nil {
		return app, fmt.Errorf("subscribing to prompt events: %w", err)
	}

	dirs := cfg.EnabledDirectories()
	n, err := app.PromptSvc.LoadDirectories(ctx, dirs)
	if err != nil {
		return app, err
	}
	slog.InfoContext(ctx, "prompts loaded", "count", n, "directories", len(dirs))

	if cfg.Watch {
		w, err := fswatch.New(app.PromptSvc, domainprompt.Extension)
		if err != nil {
			return app, err
		}
		app.watcher = w
		for _, d := range dirs {
			if err := w.Add(d.Path); err != nil {
				slog.WarnContext(ctx, "cannot watch prompt directory", "path", d.Path, "error", err)
			}
		}
	}

	// ── Transport ────────────────────────────────────────────────────────────
	app.MCPServer = mcptransport.New(app.PromptSvc, version)
	router, err := transport.NewRouter(ctx, app.PromptSvc, app.Coordinator, app.MCPServer, bus)
	if err != nil {
		return app, fmt.Errorf("building router: %w", err)
	}
	app.Server = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.InfoContext(ctx, "application wired", "port", cfg.Port, "watch", cfg.Watch)
	return app, nil
}

// Run serves HTTP and watches prompt directories until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP + MCP server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(ctx)
		})
	}

	return g.Wait()
}

// Close releases the database connections, if any.
func (a *App) Close() {
	if a.pgBus != nil {
		a.pgBus.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
