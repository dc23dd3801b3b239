package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-filer/internal/finitestate"
)

// ConfigCallback is the function type signature for the callback used to load initial config, and new config during Reload()
type ConfigCallback func() (*Config, error)

// HttpServer is the interface for the HTTP server
type HttpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Runner manages one HTTP server: it boots it, shuts it down gracefully when the
// context ends, and swaps in a new server when Reload finds a changed config.
type Runner struct {
	name           string
	config         atomic.Pointer[Config]
	configCallback ConfigCallback
	mutex          sync.Mutex
	server         HttpServer
	serverErrors   chan error
	fsm            finitestate.Machine
	ctx            context.Context
	cancel         context.CancelFunc
	logger         *slog.Logger
}

// NewRunner initializes a new HTTP server runner instance.
func NewRunner(opts ...Option) (*Runner, error) {
	logger := slog.Default().WithGroup("httpserver.Runner")
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		serverErrors: make(chan error, 1),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.configCallback == nil {
		return nil, errors.New("config callback is required (use WithConfigCallback)")
	}

	machine, err := finitestate.New(r.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("unable to create fsm: %w", err)
	}
	r.fsm = machine

	if cfg := r.getConfig(); cfg == nil {
		return nil, ErrNoConfig
	}

	return r, nil
}

// String returns a string representation of the Runner
func (r *Runner) String() string {
	args := make([]string, 0)
	if r.name != "" {
		args = append(args, "name: "+r.name)
	}
	if cfg := r.getConfig(); cfg != nil {
		args = append(args, "listening: "+cfg.ListenAddr)
	}
	if len(args) == 0 {
		return "HTTPServer<>"
	}

	return fmt.Sprintf("HTTPServer{%s}", strings.Join(args, ", "))
}

// Run starts the HTTP server and blocks until ctx is canceled, Stop is called, or
// the server fails.
func (r *Runner) Run(ctx context.Context) error {
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	if err := r.fsm.Transition(finitestate.StatusBooting); err != nil {
		return fmt.Errorf("%w: %w", ErrStateTransition, err)
	}

	r.mutex.Lock()
	err := r.boot()
	r.mutex.Unlock()
	if err != nil {
		r.markErrored()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := r.fsm.Transition(finitestate.StatusRunning); err != nil {
		r.markErrored()
		return fmt.Errorf("%w: %w", ErrStateTransition, err)
	}

	select {
	case <-runCtx.Done():
		r.logger.Debug("Local context canceled")
	case <-r.ctx.Done():
		r.logger.Debug("Parent context canceled")
	case err := <-r.serverErrors:
		r.markErrored()
		return fmt.Errorf("%w: %w", ErrHttpServer, err)
	}

	if !r.fsm.TransitionBool(finitestate.StatusStopping) {
		if r.fsm.GetState() != finitestate.StatusStopping {
			r.markErrored()
			return fmt.Errorf("%w: unable to enter %s", ErrStateTransition, finitestate.StatusStopping)
		}
		r.logger.Debug("Already in Stopping state, continuing shutdown")
	}

	r.mutex.Lock()
	err = r.stopServer(context.WithoutCancel(runCtx))
	r.mutex.Unlock()
	if err != nil {
		r.markErrored()
		return err
	}

	if err := r.fsm.Transition(finitestate.StatusStopped); err != nil {
		r.markErrored()
		return fmt.Errorf("%w: %w", ErrStateTransition, err)
	}

	r.logger.Debug("HTTP server shut down gracefully")
	return nil
}

// Stop cancels the runner's context, which makes Run shut the server down.
func (r *Runner) Stop() {
	err := r.fsm.TransitionIfCurrentState(finitestate.StatusRunning, finitestate.StatusStopping)
	if err != nil {
		r.logger.Debug("Note: Not transitioning to Stopping state", "error", err)
	}
	r.cancel()
}

func (r *Runner) boot() error {
	cfg := r.getConfig()
	if cfg == nil {
		return ErrNoConfig
	}

	server := cfg.createServer()
	r.server = server

	r.logger.Info("Starting HTTP server", "listenOn", cfg.ListenAddr, "routes", cfg.Routes.String())
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case r.serverErrors <- err:
			default:
				r.logger.Error("Dropped HTTP server error", "error", err)
			}
		}
		r.logger.Debug("HTTP server stopped", "listenOn", cfg.ListenAddr)
	}()

	return nil
}

func (r *Runner) setConfig(config *Config) {
	r.config.Store(config)
	r.logger.Debug("Config updated", "config", config)
}

// getConfig returns the current configuration, loading it via the callback if necessary
func (r *Runner) getConfig() *Config {
	if config := r.config.Load(); config != nil {
		return config
	}

	r.logger.Debug("Loading new config via callback")
	newConfig, err := r.configCallback()
	if err != nil {
		r.logger.Error("Failed to load config", "error", err)
		return nil
	}

	if newConfig == nil {
		r.logger.Error("Config callback returned nil")
		return nil
	}

	r.setConfig(newConfig)
	return newConfig
}

func (r *Runner) stopServer(ctx context.Context) error {
	if r.server == nil {
		return ErrServerNotRunning
	}

	drainTimeout := defaultDrainTimeout
	if cfg := r.getConfig(); cfg != nil {
		drainTimeout = cfg.DrainTimeout
	} else {
		r.logger.Warn("Config missing, using default drain timeout")
	}

	r.logger.Debug("Waiting for graceful HTTP server shutdown...", "timeout", drainTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, drainTimeout)
	defer shutdownCancel()

	err := r.server.Shutdown(shutdownCtx)
	r.server = nil

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("Shutdown timeout reached, some uploads may have been cut off")
		return fmt.Errorf("%w: %w", ErrGracefulShutdownTimeout, shutdownCtx.Err())
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGracefulShutdown, err)
	}
	return nil
}
