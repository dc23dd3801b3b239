// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"log/slog"
	"net/http"

	"github.com/robbyt/go-filer/runnables/httpserver"
)

// New creates a middleware that recovers from panics later in the chain, logs
// them, and answers 500 unless a response was already started.
func New(handler slog.Handler) httpserver.HandlerFunc {
	var logger *slog.Logger
	if handler == nil {
		logger = slog.Default().WithGroup("httpserver")
	} else {
		logger = slog.New(handler)
	}

	return func(rp *httpserver.RequestProcessor) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			req := rp.Request()
			writer := rp.Writer()

			logger.Error("HTTP handler panic recovered",
				"error", recovered,
				"path", req.URL.Path,
				"method", req.Method,
			)
			if !writer.Written() {
				http.Error(writer, "Internal Server Error", http.StatusInternalServerError)
			}
			rp.Abort()
		}()

		rp.Next()
	}
}
