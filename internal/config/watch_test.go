package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadRecorder struct {
	mu      sync.Mutex
	configs []*Config
}

func (r *reloadRecorder) record(cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, cfg)
}

func (r *reloadRecorder) last() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.configs) == 0 {
		return nil
	}
	return r.configs[len(r.configs)-1]
}

func (r *reloadRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "filerd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("uploads:\n  - route: /a\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &reloadRecorder{}
	logger := slog.New(slog.DiscardHandler)
	require.NoError(t, watch(ctx, path, 20*time.Millisecond, logger, rec.record))

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600))

	require.NoError(t, os.WriteFile(path, []byte("uploads:\n  - route: /b\n"), 0o600))
	require.Eventually(t, func() bool {
		cfg := rec.last()
		return cfg != nil && cfg.Uploads[0].Route == "/b"
	}, 2*time.Second, 10*time.Millisecond)

	// an invalid config is skipped
	before := rec.count()
	require.NoError(t, os.WriteFile(path, []byte("uploads: []\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, rec.count())
	assert.Equal(t, "/b", rec.last().Uploads[0].Route)
}

func TestWatchMissingDir(t *testing.T) {
	t.Parallel()

	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "filerd.yaml"), nil, func(*Config) {})
	assert.Error(t, err)
}
