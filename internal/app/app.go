// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the percept daemon: create, start, stop.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	fsw "github.com/corey/percept/internal/adapters/fsnotify"
	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/adapters/web"
	"github.com/corey/percept/internal/config"
	"github.com/corey/percept/internal/domain/percept"
	"github.com/corey/percept/internal/ports"
)

// App is the top-level container wiring all components together.
// It implements socket.Backend and web.Backend.
type App struct {
	Config    *config.Config
	Paths     *Paths
	Server    *socket.Server
	WebServer *web.Server
	Watcher   ports.Watcher // nil unless [names].watch is set

	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	engine   atomic.Pointer[percept.Engine]
	loadedAt atomic.Int64 // unix nanos of the last successful build
	reloads  atomic.Int64
	reloadMu sync.Mutex // serializes rebuilds; requests never wait on it
	started  time.Time
}

// New builds the first engine and wires the servers. Does not start services.
// A store or name-table failure here is fatal: there is no previous engine
// to fall back on.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	paths := NewPaths(cfg)

	engine, err := NewEngine(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	a := &App{
		Config: cfg,
		Paths:  paths,
		log:    logger,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.engine.Store(engine)
	a.loadedAt.Store(time.Now().UnixNano())

	a.Server = socket.NewServer(a, paths.Socket, logger)
	if !cfg.Server.DisableHTTP {
		a.WebServer = web.NewServer(a, logger)
	}
	if cfg.Names.Watch && len(paths.Watched()) > 0 {
		w, err := fsw.NewWatcher(fsw.DefaultDebounce)
		if err != nil {
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		a.Watcher = w
	}
	return a, nil
}

// Start opens the HTTP API, the socket and the watcher. Only the socket is
// required; the others log a warning and stay off on failure.
func (a *App) Start() error {
	a.started = time.Now()
	if a.WebServer != nil {
		if err := a.WebServer.Start(a.Paths.HTTPAddr); err != nil {
			a.log.Warn("HTTP API unavailable", zap.Error(err))
			a.WebServer = nil
		}
	}
	if err := a.Server.Start(); err != nil {
		if a.WebServer != nil {
			a.WebServer.Stop()
		}
		return fmt.Errorf("start server: %w", err)
	}
	if a.Watcher != nil {
		if err := a.Watcher.Watch(a.Paths.Watched(), a.onDataChanged); err != nil {
			a.log.Warn("file watcher unavailable", zap.Error(err))
		}
	}
	a.log.Info("daemon started",
		zap.String("socket", a.Server.Addr()),
		zap.String("http", a.httpAddr()))
	return nil
}

// Stop shuts everything down in reverse order. Safe to call more than once.
func (a *App) Stop() error {
	a.cancel()
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	if a.WebServer != nil {
		a.WebServer.Stop()
	}
	return a.Server.Stop()
}

// ShutdownCh is closed when a client asks the daemon to stop.
func (a *App) ShutdownCh() <-chan struct{} {
	return a.Server.ShutdownCh()
}

// Engine returns the engine currently serving requests.
func (a *App) Engine() *percept.Engine {
	return a.engine.Load()
}

// Reload rebuilds the engine from the store and name table and swaps it in.
// On failure the previous engine keeps serving.
func (a *App) Reload(ctx context.Context) (socket.ReloadResult, error) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	start := time.Now()
	prev := a.engine.Load().Dictionary().Fingerprint()

	engine, err := NewEngine(ctx, a.Config, a.log)
	if err != nil {
		return socket.ReloadResult{}, err
	}
	a.engine.Store(engine)
	a.loadedAt.Store(time.Now().UnixNano())
	a.reloads.Add(1)

	fp := engine.Dictionary().Fingerprint()
	a.log.Info("engine reloaded",
		zap.Bool("changed", fp != prev),
		zap.String("fingerprint", fp))
	return socket.ReloadResult{
		Fingerprint: fp,
		Changed:     fp != prev,
		Elapsed:     time.Since(start).Round(time.Millisecond).String(),
	}, nil
}

// Health reports daemon and engine state.
func (a *App) Health() socket.HealthResult {
	return socket.HealthResult{
		Status:      "ok",
		Uptime:      time.Since(a.started).Round(time.Second).String(),
		StoreDriver: a.Config.Store.Driver,
		LoadedAt:    time.Unix(0, a.loadedAt.Load()).UTC().Format(time.RFC3339),
		Reloads:     a.reloads.Load(),
		Engine:      a.Engine().Diagnostics(),
		HTTPAddr:    a.httpAddr(),
	}
}

func (a *App) httpAddr() string {
	if a.WebServer == nil {
		return ""
	}
	return a.WebServer.Addr()
}
