package httpserver

import (
	"context"

	"github.com/robbyt/go-filer/internal/finitestate"
)

// forcedErrorStates are written directly, in order, when the machine refuses a
// regular transition into Error.
var forcedErrorStates = []string{finitestate.StatusError, finitestate.StatusUnknown}

// markErrored records that the server can no longer accept uploads.
func (r *Runner) markErrored() {
	if r.fsm.TransitionBool(finitestate.StatusError) {
		return
	}

	for _, state := range forcedErrorStates {
		err := r.fsm.SetState(state)
		if err == nil {
			r.logger.Debug("Forced runner state", "state", state)
			return
		}
		r.logger.Error("Failed to force runner state", "state", state, "error", err)
	}
}

// GetState reports where the runner is in its lifecycle.
func (r *Runner) GetState() string {
	return r.fsm.GetState()
}

// GetStateChan streams lifecycle changes until ctx is done.
func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	return r.fsm.GetStateChan(ctx)
}

// IsRunning reports whether uploads are being served.
func (r *Runner) IsRunning() bool {
	return r.GetState() == finitestate.StatusRunning
}
