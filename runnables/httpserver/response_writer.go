package httpserver

import "net/http"

// ResponseWriter wraps http.ResponseWriter and records what a handler wrote, so
// later handlers in the chain can tell whether the request was answered.
type ResponseWriter interface {
	http.ResponseWriter

	// Status returns the HTTP status code
	Status() int

	// Written returns true if the response has been written
	Written() bool

	// Size returns the number of bytes written
	Size() int
}

type responseWriter struct {
	http.ResponseWriter
	status  int
	written bool
	size    int
}

func newResponseWriter(w http.ResponseWriter) ResponseWriter {
	return &responseWriter{ResponseWriter: w}
}

// WriteHeader records the first status code only.
func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.written {
		return
	}
	rw.status = statusCode
	rw.written = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) Status() int {
	if rw.status == 0 && rw.written {
		return http.StatusOK
	}
	return rw.status
}

func (rw *responseWriter) Written() bool {
	return rw.written
}

func (rw *responseWriter) Size() int {
	return rw.size
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
