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

// Package supervisor runs the long-lived parts of a daemon, such as the upload
// server and the config watcher, and maps OS signals onto them: SIGINT and
// SIGTERM stop everything, SIGHUP reloads whatever supports it.
package supervisor

import (
	"context"
	"fmt"
)

// Runnable is a service that runs until its context ends or Stop is called.
type Runnable interface {
	fmt.Stringer

	// Run blocks until the work unit stops.
	Run(ctx context.Context) error

	// Stop asks the work unit to stop.
	Stop()
}

// Reloadable is a service that can re-read its configuration while running.
type Reloadable interface {
	Reload()
}

// Stateable is a service that reports a lifecycle state.
type Stateable interface {
	GetState() string
}

// ReloadSender is a service that asks for a reload, e.g. when a config file changes.
type ReloadSender interface {
	GetReloadTrigger() <-chan struct{}
}
