package filer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"sync"

	"github.com/robbyt/go-filer/form"
)

// Predicate decides whether a matched request may upload.
type Predicate func(r *http.Request) bool

// EndFunc runs once a body was parsed without error. It returns the outcome:
// true, false, a *RespBody or a RespBody. Writes to w are held back until the
// outcome is resolved, then sent ahead of the envelope, or dropped if the
// outcome is invalid.
type EndFunc func(w http.ResponseWriter, s *Session) any

// CompleteFunc is called after every parse, successful or not, with the
// request's context.
type CompleteFunc func(ctx context.Context, err error, fields map[string]string, files map[string]*form.File)

// Events are the caller's listeners. They run after the built-in ones, which
// record fields and files on the Session and log errors.
type Events struct {
	FileBegin func(s *Session, name string, file *form.File)
	Field     func(s *Session, name, value string)
	File      func(s *Session, name string, file *form.File)
	Progress  func(s *Session, received, expected int64)
	Error     func(s *Session, err error)
	Aborted   func(s *Session)

	// End replaces the default success envelope.
	End EndFunc
}

// merge returns e with every listener set in other applied on top.
func (e Events) merge(other Events) Events {
	if other.FileBegin != nil {
		e.FileBegin = other.FileBegin
	}
	if other.Field != nil {
		e.Field = other.Field
	}
	if other.File != nil {
		e.File = other.File
	}
	if other.Progress != nil {
		e.Progress = other.Progress
	}
	if other.Error != nil {
		e.Error = other.Error
	}
	if other.Aborted != nil {
		e.Aborted = other.Aborted
	}
	if other.End != nil {
		e.End = other.End
	}
	return e
}

// Filer holds the configuration for one upload route: parser options, events
// and the permission check. It also keeps the last value seen for every field
// and file name across all requests.
type Filer struct {
	mu     sync.RWMutex
	opts   form.Options
	events Events
	allow  Predicate

	fields map[string]string
	files  map[string]*form.File

	logger *slog.Logger
}

// New creates a Filer with the given options.
func New(opts ...Option) *Filer {
	f := &Filer{
		fields: make(map[string]string),
		files:  make(map[string]*form.File),
		logger: slog.Default().WithGroup("filer.Filer"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// String returns a human-readable representation of the Filer
func (f *Filer) String() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return fmt.Sprintf("Filer<%s, permission=%t>", f.opts, f.allow != nil)
}

// Options returns the parser options as configured, without defaults applied.
func (f *Filer) Options() form.Options {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.opts
}

// Events merges listeners into the Filer. A listener set in e replaces the one
// registered earlier for the same event; unset ones are kept.
func (f *Filer) Events(e Events) *Filer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = f.events.merge(e)
	return f
}

// Allow installs the permission check, replacing any earlier one.
func (f *Filer) Allow(p Predicate) error {
	if p == nil {
		return ErrInvalidPredicate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allow = p
	return nil
}

// Fields returns the last value received for every field name, from any request.
func (f *Filer) Fields() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.fields)
}

// Files returns the last upload received for every file field name, from any request.
func (f *Filer) Files() map[string]*form.File {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.files)
}

func (f *Filer) recordField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields[name] = value
}

func (f *Filer) recordFile(name string, file *form.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = file
}

// permitted runs the permission check, if any.
func (f *Filer) permitted(r *http.Request) bool {
	f.mu.RLock()
	allow := f.allow
	f.mu.RUnlock()
	return allow == nil || allow(r)
}

// snapshot returns the options and events a new session is built from.
func (f *Filer) snapshot() (form.Options, Events) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.opts, f.events
}
