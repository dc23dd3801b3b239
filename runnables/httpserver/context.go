// This file defines the core middleware execution types.
//
// RequestProcessor manages the handler chain for one request and provides access
// to request/response data. Handlers either continue the chain with rp.Next(),
// or claim the request by writing a response and calling rp.Abort().
package httpserver

import (
	"context"
	"net/http"
)

// HandlerFunc is the middleware/handler signature
type HandlerFunc func(*RequestProcessor)

// RequestProcessor carries the request/response and middleware chain
type RequestProcessor struct {
	writer  ResponseWriter
	request *http.Request

	handlers []HandlerFunc
	index    int
}

// newRequestProcessor prepares a chain that has not started yet.
func newRequestProcessor(w http.ResponseWriter, r *http.Request, handlers []HandlerFunc) *RequestProcessor {
	rw, ok := w.(ResponseWriter)
	if !ok {
		rw = newResponseWriter(w)
	}
	return &RequestProcessor{
		writer:   rw,
		request:  r,
		handlers: handlers,
		index:    -1,
	}
}

// Next executes the remaining handlers in the chain
func (rp *RequestProcessor) Next() {
	rp.index++
	for rp.index < len(rp.handlers) {
		rp.handlers[rp.index](rp)
		rp.index++
	}
}

// Abort prevents remaining handlers from being called
func (rp *RequestProcessor) Abort() {
	rp.index = len(rp.handlers)
}

// IsAborted returns true if the request processing was aborted
func (rp *RequestProcessor) IsAborted() bool {
	return rp.index >= len(rp.handlers)
}

// Writer returns the ResponseWriter for the request
func (rp *RequestProcessor) Writer() ResponseWriter {
	return rp.writer
}

// Request returns the HTTP request
func (rp *RequestProcessor) Request() *http.Request {
	return rp.request
}

// Context returns the request's context.
func (rp *RequestProcessor) Context() context.Context {
	return rp.request.Context()
}

// SetWriter replaces the ResponseWriter for the request.
// This allows middleware to intercept and transform responses.
func (rp *RequestProcessor) SetWriter(w ResponseWriter) {
	rp.writer = w
}
