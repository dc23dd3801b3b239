package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/robbyt/go-filer/internal/finitestate"
	"github.com/robbyt/go-filer/internal/networking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewRunner(t *testing.T) {
	t.Parallel()

	routes := Routes{testRoute(t, "status", "/status", okHandler)}
	cfg, err := NewConfig(":0", routes)
	require.NoError(t, err)

	t.Run("with config", func(t *testing.T) {
		t.Parallel()
		runner, err := NewRunner(WithConfig(cfg), WithName("uploads"))
		require.NoError(t, err)
		assert.Equal(t, finitestate.StatusNew, runner.GetState())
		assert.Equal(t, "HTTPServer{name: uploads, listening: :0}", runner.String())
		assert.False(t, runner.IsRunning())
	})

	t.Run("callback required", func(t *testing.T) {
		t.Parallel()
		_, err := NewRunner()
		assert.Error(t, err)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()
		_, err := NewRunner(WithConfig(nil))
		assert.ErrorIs(t, err, ErrNoConfig)
	})

	t.Run("callback error", func(t *testing.T) {
		t.Parallel()
		_, err := NewRunner(WithConfigCallback(func() (*Config, error) {
			return nil, errors.New("boom")
		}))
		assert.ErrorIs(t, err, ErrNoConfig)
	})

	t.Run("log handler", func(t *testing.T) {
		t.Parallel()
		runner, err := NewRunner(WithConfig(cfg), WithLogHandler(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)
		assert.NotNil(t, runner.logger)
	})
}

func TestRunnerServesRequests(t *testing.T) {
	t.Parallel()

	addr := networking.GetRandomListenAddr(t)
	cfg, err := NewConfig(addr, Routes{testRoute(t, "status", "/status", okHandler)}, WithDrainTimeout(time.Second))
	require.NoError(t, err)

	runner, err := NewRunner(WithConfig(cfg))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	require.Eventually(t, runner.IsRunning, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, finitestate.StatusStopped, runner.GetState())
}

func TestRunnerStop(t *testing.T) {
	t.Parallel()

	factory := &mockServerFactory{}
	cfg, err := NewConfig(":0", Routes{testRoute(t, "status", "/status", okHandler)}, WithServerCreator(factory.create))
	require.NoError(t, err)

	runner, err := NewRunner(WithConfig(cfg))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(context.Background()) }()
	require.Eventually(t, runner.IsRunning, time.Second, 5*time.Millisecond)

	runner.Stop()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	assert.Equal(t, finitestate.StatusStopped, runner.GetState())
	require.Equal(t, 1, factory.count())
	factory.get(0).AssertCalled(t, "Shutdown", mock.Anything)
}

func TestRunnerServerError(t *testing.T) {
	t.Parallel()

	failing := new(MockHttpServer)
	failing.On("ListenAndServe").Return(errors.New("address in use"))
	creator := func(addr string, handler http.Handler, cfg *Config) HttpServer { return failing }

	cfg, err := NewConfig(":0", Routes{testRoute(t, "status", "/status", okHandler)}, WithServerCreator(creator))
	require.NoError(t, err)

	runner, err := NewRunner(WithConfig(cfg))
	require.NoError(t, err)

	err = runner.Run(context.Background())
	require.ErrorIs(t, err, ErrHttpServer)
	assert.Equal(t, finitestate.StatusError, runner.GetState())
}

func TestRunnerShutdownTimeout(t *testing.T) {
	t.Parallel()

	stuck := new(MockHttpServer)
	stuck.On("ListenAndServe").Return(http.ErrServerClosed)
	stuck.On("Shutdown", mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(context.DeadlineExceeded)
	creator := func(addr string, handler http.Handler, cfg *Config) HttpServer { return stuck }

	cfg, err := NewConfig(":0", Routes{testRoute(t, "status", "/status", okHandler)},
		WithServerCreator(creator), WithDrainTimeout(20*time.Millisecond))
	require.NoError(t, err)

	runner, err := NewRunner(WithConfig(cfg))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()
	require.Eventually(t, runner.IsRunning, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrGracefulShutdownTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, finitestate.StatusError, runner.GetState())
}

func TestRunnerGetStateChan(t *testing.T) {
	t.Parallel()

	factory := &mockServerFactory{}
	cfg, err := NewConfig(":0", Routes{testRoute(t, "status", "/status", okHandler)}, WithServerCreator(factory.create))
	require.NoError(t, err)

	parent, parentCancel := context.WithCancel(context.Background())
	runner, err := NewRunner(WithConfig(cfg), WithContext(parent))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := runner.GetStateChan(ctx)
	// drain the initial state, if one is sent
	select {
	case <-states:
	case <-time.After(50 * time.Millisecond):
	}

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		select {
		case s := <-states:
			return s == finitestate.StatusBooting || s == finitestate.StatusRunning
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, runner.IsRunning, time.Second, 5*time.Millisecond)

	parentCancel()
	require.NoError(t, <-errCh)
}
