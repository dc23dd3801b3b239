package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/robbyt/go-filer/filer"
	"github.com/robbyt/go-filer/form"
	"github.com/robbyt/go-filer/internal/config"
	"github.com/robbyt/go-filer/runnables/httpserver"
	"github.com/robbyt/go-filer/runnables/httpserver/middleware/headers"
	"github.com/robbyt/go-filer/runnables/httpserver/middleware/logger"
	"github.com/robbyt/go-filer/runnables/httpserver/middleware/recovery"
)

func denyAll(*http.Request) bool { return false }

// buildRoutes registers one Filer per configured upload on a shared Stack and
// mounts it at "/". The route name carries the upload config digest, so a
// reload with different uploads replaces the server.
func buildRoutes(cfg *config.Config, logHandler slog.Handler) (httpserver.Routes, error) {
	stack := httpserver.NewStack()
	for _, u := range cfg.Uploads {
		opts := u.FormOptions()
		if opts.UploadDir != "" {
			if err := os.MkdirAll(opts.UploadDir, 0o750); err != nil {
				return nil, fmt.Errorf("upload dir for %s: %w", u.Route, err)
			}
		}

		f := filer.New(filer.WithOptions(opts), filer.WithLogHandler(logHandler))
		if u.Deny {
			if err := f.Allow(denyAll); err != nil {
				return nil, err
			}
		}
		if err := f.Register(stack, u.Route, logCompletion(logHandler, u.Route)); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", u.Route, err)
		}
	}

	recoveryMw := recovery.New(logHandler.WithGroup("recovery"))
	commonMw := []httpserver.HandlerFunc{
		recoveryMw,
		logger.New(logHandler.WithGroup("http")),
		headers.Security(),
	}

	uploadRoute, err := httpserver.NewStackRoute(
		"uploads:"+cfg.Digest(),
		"/",
		stack,
		append(commonMw, headers.NoCache())...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload route: %w", err)
	}

	statusRoute, err := httpserver.NewRouteFromHandlerFunc("status", "/status", statusHandler, commonMw...)
	if err != nil {
		return nil, fmt.Errorf("failed to create status route: %w", err)
	}

	return httpserver.Routes{*uploadRoute, *statusRoute}, nil
}

func statusHandler(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "Status: OK\n")
}

// logCompletion logs the outcome of every parse on route.
func logCompletion(logHandler slog.Handler, route string) filer.CompleteFunc {
	log := slog.New(logHandler.WithGroup("uploads")).With("route", route)
	return func(ctx context.Context, err error, fields map[string]string, files map[string]*form.File) {
		if err != nil {
			log.WarnContext(ctx, "Upload did not complete", "error", err)
			return
		}
		var bytes int64
		for _, file := range files {
			bytes += file.Size
		}
		log.InfoContext(ctx, "Upload stored", "fields", len(fields), "files", len(files), "bytes", bytes)
	}
}
