package networking

import (
	"net"
	"strconv"
	"sync"
	"testing"
)

// reduce the chance of port conflicts between parallel tests
var (
	portMutex = &sync.Mutex{}
	usedPorts = make(map[int]struct{})
)

// GetRandomPort finds an available port for a test by binding to port 0
func GetRandomPort(tb testing.TB) int {
	tb.Helper()
	portMutex.Lock()
	defer portMutex.Unlock()

	for {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			tb.Fatalf("Failed to get random port: %v", err)
		}
		p := listener.Addr().(*net.TCPAddr).Port
		if err := listener.Close(); err != nil {
			tb.Fatalf("Failed to close listener: %v", err)
		}
		if _, ok := usedPorts[p]; ok {
			continue
		}
		usedPorts[p] = struct{}{}
		return p
	}
}

// GetRandomListenAddr returns a free loopback address like "127.0.0.1:PORT".
func GetRandomListenAddr(tb testing.TB) string {
	tb.Helper()
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(GetRandomPort(tb)))
}
