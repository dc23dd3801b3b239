// Package headers sets fixed response headers from the host handler chain.
package headers

import (
	"github.com/robbyt/go-filer/runnables/httpserver"
)

// HeaderMap represents a collection of HTTP headers
type HeaderMap map[string]string

// New creates a middleware that sets headers on every response before the rest
// of the chain runs, so later handlers can still override them.
func New(headers HeaderMap) httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		for key, value := range headers {
			rp.Writer().Header().Set(key, value)
		}
		rp.Next()
	}
}

// Security creates a middleware that sets common security headers.
func Security() httpserver.HandlerFunc {
	return New(HeaderMap{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	})
}

// NoCache marks responses as not cacheable. Upload envelopes describe a single
// POST and should never be replayed from a cache.
func NoCache() httpserver.HandlerFunc {
	return New(HeaderMap{
		"Cache-Control": "no-store",
	})
}

// Add creates a middleware that adds a single header.
func Add(key, value string) httpserver.HandlerFunc {
	return New(HeaderMap{key: value})
}
