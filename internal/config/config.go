// Package config loads the filerd daemon configuration from YAML and watches
// the file for changes.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/robbyt/go-filer/filer"
	"github.com/robbyt/go-filer/form"
	"github.com/robbyt/go-filer/internal/networking"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr   = ":8080"
	defaultDrainTimeout = 30 * time.Second
	defaultReadTimeout  = 5 * time.Minute
	defaultWriteTimeout = 30 * time.Second
)

var (
	ErrNoUploads      = errors.New("at least one upload route is required")
	ErrDuplicateRoute = errors.New("upload route is declared twice")
	ErrInvalidRoute   = errors.New("upload route must start with /")
	ErrLogLevel       = errors.New("unknown log level")
	ErrLogFormat      = errors.New("unknown log format")
)

// Config is the daemon configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string `yaml:"listen"`

	// DrainTimeout is how long shutdown and reload wait for uploads in flight.
	DrainTimeout time.Duration `yaml:"drain_timeout"`

	// ReadTimeout bounds reading a whole request, body included.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	WriteTimeout time.Duration `yaml:"write_timeout"`

	Logging LoggingConfig `yaml:"logging"`

	// Uploads lists the upload routes, each served by its own Filer.
	Uploads []UploadConfig `yaml:"uploads"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // json, text (default: json)
}

// UploadConfig describes one upload route.
type UploadConfig struct {
	Route string `yaml:"route"`

	// Deny rejects every upload on the route with a permission denied envelope.
	Deny bool `yaml:"deny"`

	// Options is passed through the parser's option allow-list; unknown keys
	// are dropped.
	Options map[string]any `yaml:"options"`
}

// FormOptions returns the recognized parser options of the route.
func (u UploadConfig) FormOptions() form.Options {
	return form.OptionsFromMap(u.Options)
}

// Load reads configuration from a YAML file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	for i := range c.Uploads {
		if c.Uploads[i].Route == "" {
			c.Uploads[i].Route = filer.DefaultRoute
		}
	}
}

// Validate checks that the configuration is valid. The listen address is
// normalized in place.
func (c *Config) Validate() error {
	addr, err := networking.ValidateListenAddr(c.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	c.ListenAddr = addr

	if _, err := c.Logging.level(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: %s", ErrLogFormat, c.Logging.Format)
	}

	if len(c.Uploads) == 0 {
		return ErrNoUploads
	}
	seen := make(map[string]struct{}, len(c.Uploads))
	for i, u := range c.Uploads {
		if !strings.HasPrefix(u.Route, "/") {
			return fmt.Errorf("uploads[%d]: %w: %q", i, ErrInvalidRoute, u.Route)
		}
		if _, ok := seen[u.Route]; ok {
			return fmt.Errorf("uploads[%d]: %w: %s", i, ErrDuplicateRoute, u.Route)
		}
		seen[u.Route] = struct{}{}
		if err := form.ValidateMap(u.Options); err != nil {
			return fmt.Errorf("uploads[%d]: %w", i, err)
		}
	}
	return nil
}

// Digest returns a short fingerprint of the upload routes. It changes whenever
// a route, its permission or its options change.
func (c *Config) Digest() string {
	data, err := yaml.Marshal(c.Uploads)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6])
}

func (l LoggingConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrLogLevel, l.Level)
	}
	return level, nil
}

// NewLogHandler builds the slog handler described by the logging section.
func (l LoggingConfig) NewLogHandler(w io.Writer) slog.Handler {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
