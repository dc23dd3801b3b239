// Package httpserver provides the host side of an upload service: a handler chain
// that middleware attaches to, and a reloadable HTTP server that serves it.
package httpserver

import "errors"

var (
	ErrNoConfig                = errors.New("no config provided")
	ErrNoRoutes                = errors.New("no routes provided")
	ErrGracefulShutdown        = errors.New("graceful shutdown failed")
	ErrGracefulShutdownTimeout = errors.New("graceful shutdown deadline reached")
	ErrHttpServer              = errors.New("http server error")
	ErrOldConfig               = errors.New("config hasn't changed since last update")
	ErrServerNotRunning        = errors.New("http server is not running")
	ErrConfigCallbackNil       = errors.New("config callback returned nil")
	ErrConfigCallback          = errors.New("failed to load configuration from callback")
	ErrStateTransition         = errors.New("state transition failed")
)
