package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-filer/internal/config"
	"github.com/robbyt/go-filer/runnables/httpserver"
)

// configSource owns the current daemon config. It watches the config file and
// asks the supervisor for a reload whenever a new valid config is loaded.
type configSource struct {
	path       string
	current    atomic.Pointer[config.Config]
	trigger    chan struct{}
	logHandler slog.Handler
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newConfigSource(path string, cfg *config.Config, logHandler slog.Handler) *configSource {
	c := &configSource{
		path:       path,
		trigger:    make(chan struct{}, 1),
		logHandler: logHandler,
		logger:     slog.New(logHandler.WithGroup("config")),
	}
	c.current.Store(cfg)
	return c
}

func (c *configSource) String() string {
	return fmt.Sprintf("ConfigWatcher<%s>", c.path)
}

// Run watches the config file until ctx is canceled or Stop is called.
func (c *configSource) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	if err := config.Watch(ctx, c.path, c.logger, c.update); err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	<-ctx.Done()
	return nil
}

func (c *configSource) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// GetReloadTrigger fires after a new config was stored.
func (c *configSource) GetReloadTrigger() <-chan struct{} {
	return c.trigger
}

func (c *configSource) update(cfg *config.Config) {
	c.current.Store(cfg)
	select {
	case c.trigger <- struct{}{}:
	default:
		// a reload is already pending and will pick this config up
	}
}

// serverConfig is the httpserver.ConfigCallback for the upload server.
func (c *configSource) serverConfig() (*httpserver.Config, error) {
	cfg := c.current.Load()
	routes, err := buildRoutes(cfg, c.logHandler)
	if err != nil {
		return nil, err
	}
	return httpserver.NewConfig(
		cfg.ListenAddr,
		routes,
		httpserver.WithDrainTimeout(cfg.DrainTimeout),
		httpserver.WithReadTimeout(cfg.ReadTimeout),
		httpserver.WithWriteTimeout(cfg.WriteTimeout),
	)
}
