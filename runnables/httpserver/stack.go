package httpserver

import (
	"net/http"
	"slices"
	"sync"
)

// Stack is an application-wide handler chain that components attach themselves
// to at runtime, in the manner of a connect-style app. Every request walks the
// chain in registration order; a handler that does not claim the request calls
// rp.Next() to pass it on. Requests nobody claims get a 404.
//
// A Stack is mounted on a server with NewStackRoute. Use is safe to call while
// the stack is serving; a request sees the handlers present when it arrived.
type Stack struct {
	mu       sync.RWMutex
	handlers []HandlerFunc
}

// NewStack creates a Stack with optional initial handlers.
func NewStack(handlers ...HandlerFunc) *Stack {
	s := &Stack{}
	s.Use(handlers...)
	return s
}

// Use appends handlers to the end of the chain. Nil handlers are ignored.
// Nothing is ever removed from a Stack.
func (s *Stack) Use(handlers ...HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.handlers)
	for _, h := range handlers {
		if h != nil {
			next = append(next, h)
		}
	}
	s.handlers = next
}

// Len returns the number of attached handlers.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// ServeHTTP runs the chain for one request.
func (s *Stack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	chain := make([]HandlerFunc, 0, len(handlers)+1)
	chain = append(chain, handlers...)
	chain = append(chain, notFound)

	newRequestProcessor(w, r, chain).Next()
}

func notFound(rp *RequestProcessor) {
	if rp.Writer().Written() {
		return
	}
	http.NotFound(rp.Writer(), rp.Request())
}
