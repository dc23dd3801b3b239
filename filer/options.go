package filer

import (
	"log/slog"

	"github.com/robbyt/go-filer/form"
)

// Option represents a functional option for configuring a Filer.
type Option func(*Filer)

// WithLogHandler sets a custom slog handler for the Filer instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(f *Filer) {
		if handler != nil {
			f.logger = slog.New(handler.WithGroup("filer.Filer"))
		}
	}
}

// WithOptions replaces the parser options.
func WithOptions(opts form.Options) Option {
	return func(f *Filer) {
		f.opts = opts
	}
}

// WithOptionsMap merges an untyped option bag into the parser options. Only
// the keys form.OptionsFromMap recognizes are kept.
func WithOptionsMap(m map[string]any) Option {
	return func(f *Filer) {
		f.opts = f.opts.Merge(m)
	}
}

// WithEvents merges listeners, as Filer.Events does.
func WithEvents(e Events) Option {
	return func(f *Filer) {
		f.events = f.events.merge(e)
	}
}
