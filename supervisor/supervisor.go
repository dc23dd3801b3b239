/*
Copyright 2024 Robert Terhaar <robbyt@robbyt.net>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var ErrNoRunnables = errors.New("no runnables provided")

// Supervisor starts a set of runnables and stops them in reverse order.
type Supervisor struct {
	ctx       context.Context
	cancel    context.CancelFunc
	runnables []Runnable

	SignalChan       chan os.Signal
	subscribeSignals []os.Signal
	errorChan        chan error
	reloadListener   chan struct{}

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	logger       *slog.Logger
}

// Option represents a functional option for configuring a Supervisor.
type Option func(*Supervisor)

// WithLogHandler sets a custom slog handler for the Supervisor instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Supervisor) {
		if handler != nil {
			s.logger = slog.New(handler.WithGroup("Supervisor"))
		}
	}
}

// WithSignals replaces the signals the Supervisor subscribes to. With none,
// only SignalChan writes are seen.
func WithSignals(signals ...os.Signal) Option {
	return func(s *Supervisor) {
		s.subscribeSignals = signals
	}
}

// WithContext sets the parent context; canceling it shuts everything down.
func WithContext(ctx context.Context) Option {
	return func(s *Supervisor) {
		if ctx != nil {
			s.cancel()
			s.ctx, s.cancel = context.WithCancel(ctx)
		}
	}
}

// WithRunnables sets the runnables, started in the given order.
func WithRunnables(runnables ...Runnable) Option {
	return func(s *Supervisor) {
		if len(runnables) > 0 {
			s.runnables = runnables
		}
	}
}

// New creates a Supervisor. At least one runnable is required.
func New(opts ...Option) (*Supervisor, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		ctx:              ctx,
		cancel:           cancel,
		SignalChan:       make(chan os.Signal, 1),
		subscribeSignals: []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP},
		reloadListener:   make(chan struct{}),
		logger:           slog.Default().WithGroup("Supervisor"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if len(s.runnables) == 0 {
		cancel()
		return nil, ErrNoRunnables
	}
	s.errorChan = make(chan error, len(s.runnables))
	return s, nil
}

// String returns a string representation of the Supervisor
func (s *Supervisor) String() string {
	return fmt.Sprintf("Supervisor<runnables: %d>", len(s.runnables))
}

// Run starts every runnable and blocks until a stop signal, a canceled
// context, or the first runnable error. That error is returned.
func (s *Supervisor) Run() error {
	s.logger.Debug("Starting...")
	if len(s.subscribeSignals) > 0 {
		signal.Notify(s.SignalChan, s.subscribeSignals...)
	}

	s.wg.Add(1)
	go s.startReloadManager()

	for _, r := range s.runnables {
		s.wg.Add(1)
		go s.startRunnable(r)
	}

	return s.reap()
}

// Shutdown stops the runnables in reverse order and waits for them to return.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Info("Graceful shutdown has been initiated...")
		signal.Stop(s.SignalChan)

		for i := len(s.runnables) - 1; i >= 0; i-- {
			r := s.runnables[i]
			s.logger.Debug("Stopping", "runnable", r)
			r.Stop()
			if st, ok := r.(Stateable); ok {
				s.logger.Debug("Stopped", "runnable", r, "state", st.GetState())
			}
		}

		s.cancel()
		s.wg.Wait()
		s.logger.Info("Shutdown complete")
	})
}

func (s *Supervisor) startRunnable(r Runnable) {
	defer s.wg.Done()

	if err := r.Run(s.ctx); err != nil {
		s.logger.Error("Runnable failed", "runnable", r, "error", err)
		s.errorChan <- fmt.Errorf("%s: %w", r, err)
	}
}

func (s *Supervisor) reap() error {
	for {
		select {
		case err := <-s.errorChan:
			s.Shutdown()
			return err
		case <-s.ctx.Done():
			s.Shutdown()
			return nil
		case sig := <-s.SignalChan:
			s.logger.Debug("Received signal", "signal", sig)
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				s.Shutdown()
				return nil
			case syscall.SIGHUP:
				s.ReloadAll()
			default:
				s.logger.Debug("Unhandled signal received", "signal", sig)
			}
		}
	}
}
