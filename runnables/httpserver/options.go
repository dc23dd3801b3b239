package httpserver

import (
	"context"
	"log/slog"
)

// Option represents a functional option for configuring Runner.
type Option func(*Runner)

// WithLogHandler sets a custom slog handler for the Runner instance.
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	runner, err := httpserver.NewRunner(httpserver.WithConfig(cfg), httpserver.WithLogHandler(handler))
func WithLogHandler(handler slog.Handler) Option {
	return func(r *Runner) {
		if handler != nil {
			r.logger = slog.New(handler.WithGroup("httpserver.Runner"))
		}
	}
}

// WithContext sets the parent context; canceling it stops the server.
func WithContext(ctx context.Context) Option {
	return func(r *Runner) {
		if ctx != nil {
			r.cancel()
			r.ctx, r.cancel = context.WithCancel(ctx)
		}
	}
}

// WithConfigCallback sets the function that loads the config at startup and on
// every Reload. Either this or WithConfig is required.
func WithConfigCallback(callback ConfigCallback) Option {
	return func(r *Runner) {
		r.configCallback = callback
	}
}

// WithConfig uses a fixed config. Reload is then always a no-op.
func WithConfig(cfg *Config) Option {
	return func(r *Runner) {
		r.configCallback = func() (*Config, error) {
			return cfg, nil
		}
	}
}

// WithName sets the name of the Runner instance.
func WithName(name string) Option {
	return func(r *Runner) {
		r.name = name
	}
}
