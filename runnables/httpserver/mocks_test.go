package httpserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockHttpServer is a mock implementation of the HttpServer interface
type MockHttpServer struct {
	mock.Mock
}

func (m *MockHttpServer) ListenAndServe() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockHttpServer) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// newBlockingMockServer returns a mock whose ListenAndServe blocks until Shutdown
// is called, like a real server.
func newBlockingMockServer() *MockHttpServer {
	stopped := make(chan struct{})
	var once sync.Once

	m := new(MockHttpServer)
	m.On("ListenAndServe").Run(func(mock.Arguments) { <-stopped }).Return(http.ErrServerClosed)
	m.On("Shutdown", mock.Anything).Run(func(mock.Arguments) {
		once.Do(func() { close(stopped) })
	}).Return(nil)
	return m
}

// mockServerFactory records every server a Config creates.
type mockServerFactory struct {
	mu      sync.Mutex
	servers []*MockHttpServer
}

func (f *mockServerFactory) create(addr string, handler http.Handler, cfg *Config) HttpServer {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := newBlockingMockServer()
	f.servers = append(f.servers, s)
	return s
}

func (f *mockServerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.servers)
}

func (f *mockServerFactory) get(i int) *MockHttpServer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.servers[i]
}
