package httpserver

import (
	"errors"
	"fmt"

	"github.com/robbyt/go-filer/internal/finitestate"
)

// reloadConfig reloads the configuration using the config callback
func (r *Runner) reloadConfig() error {
	newConfig, err := r.configCallback()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigCallback, err)
	}

	if newConfig == nil {
		return ErrConfigCallbackNil
	}

	oldConfig := r.getConfig()
	if oldConfig != nil && newConfig.Equal(oldConfig) {
		return ErrOldConfig
	}

	r.setConfig(newConfig)
	return nil
}

// Reload fetches the config again and, when it changed, replaces the running
// server with one built from the new config. In-flight uploads on the old server
// are given the drain timeout to finish.
func (r *Runner) Reload() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.logger.Debug("Reloading...")

	if err := r.fsm.Transition(finitestate.StatusReloading); err != nil {
		r.logger.Error("Failed to transition to Reloading", "error", err)
		return
	}

	err := r.reloadConfig()
	switch {
	case err == nil:
		r.logger.Debug("Config reloaded")
	case errors.Is(err, ErrOldConfig):
		r.logger.Debug("Config unchanged, skipping reload")
		if stateErr := r.fsm.Transition(finitestate.StatusRunning); stateErr != nil {
			r.logger.Error("Failed to transition to Running", "error", stateErr)
			r.markErrored()
		}
		return
	default:
		r.logger.Error("Failed to reload configuration", "error", err)
		r.markErrored()
		return
	}

	if err := r.stopServer(r.ctx); err != nil {
		r.logger.Error("Failed to stop server during reload", "error", err)
		r.markErrored()
		return
	}

	if err := r.boot(); err != nil {
		r.logger.Error("Failed to boot server during reload", "error", err)
		r.markErrored()
		return
	}

	if err := r.fsm.Transition(finitestate.StatusRunning); err != nil {
		r.logger.Error("Failed to transition to Running", "error", err)
		r.markErrored()
		return
	}

	r.logger.Info("HTTP server reloaded")
}
