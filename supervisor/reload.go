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

import "sync"

// ReloadAll asks the reload manager to reload every Reloadable runnable. It
// blocks until the request is accepted or the Supervisor is shutting down.
func (s *Supervisor) ReloadAll() {
	select {
	case s.reloadListener <- struct{}{}:
	case <-s.ctx.Done():
	}
}

// startReloadManager serializes reloads, whether they come from SIGHUP or
// from a ReloadSender.
func (s *Supervisor) startReloadManager() {
	defer s.wg.Done()

	var senders sync.WaitGroup
	for _, r := range s.runnables {
		sender, ok := r.(ReloadSender)
		if !ok {
			continue
		}
		senders.Go(func() {
			trigger := sender.GetReloadTrigger()
			for {
				select {
				case <-s.ctx.Done():
					return
				case <-trigger:
					s.logger.Debug("Reload requested", "runnable", r)
					s.ReloadAll()
				}
			}
		})
	}

	for {
		select {
		case <-s.ctx.Done():
			senders.Wait()
			return
		case <-s.reloadListener:
			s.logger.Info("Reload complete", "runnablesReloaded", s.reloadAllRunnables())
		}
	}
}

func (s *Supervisor) reloadAllRunnables() int {
	reloads := 0
	for _, r := range s.runnables {
		reloader, ok := r.(Reloadable)
		if !ok {
			continue
		}
		s.logger.Debug("Reloading", "runnable", r)
		reloader.Reload()
		reloads++
		if st, ok := r.(Stateable); ok {
			s.logger.Debug("Reloaded", "runnable", r, "state", st.GetState())
		}
	}
	return reloads
}
