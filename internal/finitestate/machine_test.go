package finitestate

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T) Machine {
	t.Helper()
	machine, err := New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	require.NoError(t, err)
	require.NotNil(t, machine)
	return machine
}

func TestNew(t *testing.T) {
	t.Parallel()

	machine := newMachine(t)
	assert.Equal(t, StatusNew, machine.GetState())
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	machine := newMachine(t)
	for _, state := range []string{StatusBooting, StatusRunning, StatusReloading, StatusRunning, StatusStopping, StatusStopped} {
		require.NoError(t, machine.Transition(state), "transition to %s", state)
		assert.Equal(t, state, machine.GetState())
	}
}

func TestInvalidTransition(t *testing.T) {
	t.Parallel()

	machine := newMachine(t)
	assert.Error(t, machine.Transition(StatusStopped))
	assert.False(t, machine.TransitionBool(StatusReloading))
	assert.Equal(t, StatusNew, machine.GetState())
}

func TestTransitionIfCurrentState(t *testing.T) {
	t.Parallel()

	machine := newMachine(t)
	assert.Error(t, machine.TransitionIfCurrentState(StatusRunning, StatusStopping))
	require.NoError(t, machine.TransitionIfCurrentState(StatusNew, StatusBooting))
	assert.Equal(t, StatusBooting, machine.GetState())
}

func TestGetStateChan(t *testing.T) {
	t.Parallel()

	machine := newMachine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := machine.GetStateChan(ctx)
	// drain the initial state, if one is sent
	select {
	case <-ch:
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, machine.Transition(StatusBooting))

	assert.Eventually(t, func() bool {
		select {
		case state := <-ch:
			return state == StatusBooting
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
