package httpserver

import (
	"fmt"
	"net/http"
	"time"
)

const (
	defaultDrainTimeout = 30 * time.Second
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 1 * time.Minute
)

// ServerCreator builds the HttpServer a Runner manages. Tests replace it to avoid
// binding a real port.
type ServerCreator func(addr string, handler http.Handler, cfg *Config) HttpServer

// Config is the main configuration struct for the HTTP server
type Config struct {
	ListenAddr   string
	Routes       Routes
	DrainTimeout time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	ServerCreator ServerCreator
}

// ConfigOption is a functional option for NewConfig.
type ConfigOption func(*Config)

// WithDrainTimeout sets how long shutdown waits for in-flight requests.
// Negative values are ignored.
func WithDrainTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout >= 0 {
			c.DrainTimeout = timeout
		}
	}
}

// WithReadTimeout sets the server's read timeout. Uploads of large files need a
// generous value, since the whole body is read inside it.
func WithReadTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout >= 0 {
			c.ReadTimeout = timeout
		}
	}
}

// WithWriteTimeout sets the server's write timeout.
func WithWriteTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout >= 0 {
			c.WriteTimeout = timeout
		}
	}
}

// WithIdleTimeout sets the server's keep-alive idle timeout.
func WithIdleTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout >= 0 {
			c.IdleTimeout = timeout
		}
	}
}

// WithServerCreator replaces the default *http.Server factory.
func WithServerCreator(creator ServerCreator) ConfigOption {
	return func(c *Config) {
		if creator != nil {
			c.ServerCreator = creator
		}
	}
}

// NewConfig returns a new Config for addr serving routes.
func NewConfig(addr string, routes Routes, opts ...ConfigOption) (*Config, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}

	c := &Config{
		ListenAddr:    addr,
		Routes:        routes,
		DrainTimeout:  defaultDrainTimeout,
		ReadTimeout:   defaultReadTimeout,
		WriteTimeout:  defaultWriteTimeout,
		IdleTimeout:   defaultIdleTimeout,
		ServerCreator: defaultServerCreator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// String returns a human-readable representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("Config<addr=%s, drainTimeout=%s, routes=%s>", c.ListenAddr, c.DrainTimeout, c.Routes)
}

// getMux creates and returns a new http.ServeMux with all configured routes registered.
func (c *Config) getMux() *http.ServeMux {
	mux := http.NewServeMux()
	for _, route := range c.Routes {
		mux.Handle(route.Path, &route)
	}
	return mux
}

func (c *Config) createServer() HttpServer {
	creator := c.ServerCreator
	if creator == nil {
		creator = defaultServerCreator
	}
	return creator(c.ListenAddr, c.getMux(), c)
}

func defaultServerCreator(addr string, handler http.Handler, cfg *Config) HttpServer {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Equal compares this Config with another and returns true if they are equivalent.
func (c *Config) Equal(other *Config) bool {
	if other == nil {
		return false
	}

	if c.ListenAddr != other.ListenAddr {
		return false
	}

	if c.DrainTimeout != other.DrainTimeout ||
		c.ReadTimeout != other.ReadTimeout ||
		c.WriteTimeout != other.WriteTimeout ||
		c.IdleTimeout != other.IdleTimeout {
		return false
	}

	if !c.Routes.Equal(other.Routes) {
		return false
	}

	return true
}
