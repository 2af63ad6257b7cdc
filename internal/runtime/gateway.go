// Package runtime provides the Gateway struct and lifecycle management for
// the persisted query router.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tinnou/router/internal/apq"
	"github.com/tinnou/router/internal/config"
	"github.com/tinnou/router/internal/core/ports"
	"github.com/tinnou/router/internal/pipeline"
	"github.com/tinnou/router/internal/server"
	"github.com/tinnou/router/internal/storage"
	"github.com/tinnou/router/internal/upstream"
)

// Gateway is the main entry point for running the router.
// It wires configuration, the query store, the APQ gate and the HTTP server.
type Gateway struct {
	// Dependencies (injected via options)
	config     ports.ConfigProvider
	store      ports.QueryStore
	downstream ports.Handler
	registry   *prometheus.Registry
	logger     *slog.Logger

	// Internal state
	ownsStore bool
	// cfg is the configuration the process is running with; changes that
	// need a restart are never copied into it.
	cfg            *config.Config
	restartPending bool
	gate      *pipeline.Gate
	server    *server.Server
	listener  net.Listener
	serveErr  chan error

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

// New creates a new Gateway with the given options.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	// Validate required dependencies
	if gw.config == nil {
		return nil, fmt.Errorf("config provider required (use WithFileConfig or WithConfig)")
	}

	if gw.registry == nil {
		gw.registry = prometheus.NewRegistry()
		gw.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return gw, nil
}

// Init loads configuration and builds the request path without listening.
// Start calls it; use it directly to mount Handler elsewhere.
func (g *Gateway) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.init(ctx)
}

func (g *Gateway) init(ctx context.Context) (err error) {
	if g.server != nil {
		return nil
	}

	g.ctx, g.cancel = context.WithCancel(ctx)

	// Load initial config
	cfg, err := g.config.Load(g.ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	g.cfg = cfg

	if g.store == nil {
		store, storeErr := storage.New(g.ctx, cfg)
		if storeErr != nil {
			return fmt.Errorf("init store: %w", storeErr)
		}
		g.store = store
		g.ownsStore = true
		defer func() {
			if err != nil {
				store.Close()
				g.store, g.ownsStore = nil, false
			}
		}()
	}

	if cfg.APQ.Manifest != "" {
		if err := g.preload(cfg.APQ.Manifest); err != nil {
			return err
		}
	}

	if g.downstream == nil {
		proxy, err := upstream.New(upstream.Config{
			URL:     cfg.Upstream.URL,
			Timeout: cfg.Upstream.Timeout,
		})
		if err != nil {
			return fmt.Errorf("init upstream: %w", err)
		}
		g.downstream = proxy
	}

	protocol := apq.New(g.store,
		apq.WithMetrics(apq.NewMetrics(g.registry)),
		apq.WithLogger(g.logger),
	)

	g.gate, err = pipeline.NewGate(pipeline.GateConfig{
		Stages:     []pipeline.StageConfig{{Name: protocol.Name(), Stage: protocol}},
		Downstream: g.downstream,
		Enabled:    cfg.APQ.Enabled,
		Logger:     g.logger,
		Annotate:   server.AddLogField,
	})
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	g.server = server.New(server.Config{
		Port:     cfg.Server.Port,
		Timeout:  cfg.Server.Timeout,
		Gatherer: g.registry,
	}, g.logger, g.gate)

	return nil
}

func (g *Gateway) preload(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	stats, err := apq.LoadManifest(g.ctx, f, g.store, g.logger)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", path, err)
	}

	g.logger.Info("persisted query manifest loaded",
		slog.String("path", path),
		slog.Int("loaded", stats.Loaded),
		slog.Int("skipped", stats.Skipped))
	return nil
}

// Start initializes the gateway, binds the listener and serves in the
// background. It returns once the port is bound.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.init(ctx); err != nil {
		return err
	}
	if g.listener != nil {
		return fmt.Errorf("gateway already started")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", g.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	g.listener = ln
	g.serveErr = make(chan error, 1)

	go func() {
		g.serveErr <- g.server.Serve(ln)
	}()

	// Watch for config changes
	if err := g.config.Watch(g.ctx, g.reload); err != nil {
		g.logger.Error("config watch failed", slog.String("error", err.Error()))
	}

	g.logger.Info("gateway started",
		slog.String("addr", ln.Addr().String()),
		slog.String("store", g.cfg.Store.Type),
		slog.Bool("apq_enabled", g.cfg.APQ.Enabled))

	return nil
}

// Wait blocks until the server stops and returns its error, if any.
func (g *Gateway) Wait() error {
	g.mu.RLock()
	ch := g.serveErr
	g.mu.RUnlock()

	if ch == nil {
		return nil
	}
	return <-ch
}

// Handler returns the HTTP handler, or nil before Init or Start.
func (g *Gateway) Handler() http.Handler {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.server == nil {
		return nil
	}
	return g.server.Router
}

// Addr returns the bound listen address, or nil before Start.
func (g *Gateway) Addr() net.Addr {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// APQEnabled reports whether the persisted query stage is running.
func (g *Gateway) APQEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.gate != nil && g.gate.Enabled()
}

// Shutdown gracefully stops the gateway.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	if g.cancel != nil {
		g.cancel()
	}

	var errs []error
	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		}
	}
	if err := g.config.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close config: %w", err))
	}
	if g.ownsStore && g.store != nil {
		if err := g.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	return errors.Join(errs...)
}

// reload applies a changed configuration. Only apq.enabled is applied live;
// any other difference from the running configuration is reported until a
// later file matches it again.
func (g *Gateway) reload(cfg *config.Config) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cfg == nil {
		return
	}

	if g.gate != nil && g.cfg.APQ.Enabled != cfg.APQ.Enabled {
		applied := *g.cfg
		applied.APQ.Enabled = cfg.APQ.Enabled
		g.cfg = &applied
		g.gate.SetEnabled(cfg.APQ.Enabled)
		g.logger.Info("persisted queries toggled", slog.Bool("enabled", cfg.APQ.Enabled))
	}

	pending := g.cfg.Server != cfg.Server ||
		g.cfg.Store != cfg.Store ||
		g.cfg.Upstream != cfg.Upstream ||
		g.cfg.APQ.Manifest != cfg.APQ.Manifest
	switch {
	case pending:
		g.logger.Warn("restart required to apply config changes")
	case g.restartPending:
		g.logger.Info("config matches running settings, restart no longer required")
	}
	g.restartPending = pending
}

// RestartPending reports whether the last loaded configuration differs from
// the running one in settings that only take effect after a restart.
func (g *Gateway) RestartPending() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.restartPending
}
