// Package logger provides request logging for the host handler chain.
package logger

import (
	"log/slog"
	"time"

	"github.com/robbyt/go-filer/runnables/httpserver"
)

// New creates a middleware that logs one line per request after the rest of the
// chain has run: method, path, status, size, duration and client details.
// A nil handler logs through slog.Default().
func New(handler slog.Handler) httpserver.HandlerFunc {
	var logger *slog.Logger
	if handler == nil {
		logger = slog.Default().WithGroup("httpserver")
	} else {
		logger = slog.New(handler)
	}

	return func(rp *httpserver.RequestProcessor) {
		start := time.Now()

		rp.Next()

		req := rp.Request()
		writer := rp.Writer()

		logger.Info("HTTP request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", writer.Status(),
			"duration", time.Since(start),
			"size", writer.Size(),
			"content_length", req.ContentLength,
			"user_agent", req.UserAgent(),
			"remote_addr", req.RemoteAddr,
		)
	}
}
