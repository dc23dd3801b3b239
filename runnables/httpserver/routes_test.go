package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRoute creates a Route for testing purposes
func testRoute(t *testing.T, name, path string, handler http.HandlerFunc) Route {
	t.Helper()
	route, err := NewRouteFromHandlerFunc(name, path, handler)
	require.NoError(t, err)
	return *route
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestNewRoute(t *testing.T) {
	t.Parallel()

	handler := func(rp *RequestProcessor) {}

	tests := []struct {
		name      string
		routeName string
		path      string
		handlers  []HandlerFunc
		errorMsg  string
	}{
		{name: "valid", routeName: "upload", path: "/upload", handlers: []HandlerFunc{handler}},
		{name: "empty name", routeName: "", path: "/upload", handlers: []HandlerFunc{handler}, errorMsg: "name cannot be empty"},
		{name: "empty path", routeName: "upload", path: "", handlers: []HandlerFunc{handler}, errorMsg: "path cannot be empty"},
		{name: "no handlers", routeName: "upload", path: "/upload", errorMsg: "handlers cannot be empty"},
		{name: "nil handler", routeName: "upload", path: "/upload", handlers: []HandlerFunc{handler, nil}, errorMsg: "handler 1 cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			route, err := NewRoute(tt.routeName, tt.path, tt.handlers...)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Nil(t, route)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, route.Path)
			assert.Len(t, route.Handlers, len(tt.handlers))
		})
	}
}

func TestNewRouteFromHandlerFunc(t *testing.T) {
	t.Parallel()

	t.Run("nil handler", func(t *testing.T) {
		t.Parallel()
		_, err := NewRouteFromHandlerFunc("x", "/x", nil)
		assert.Error(t, err)
	})

	t.Run("middleware runs before handler", func(t *testing.T) {
		t.Parallel()
		var calls []string
		mw := func(rp *RequestProcessor) {
			calls = append(calls, "mw")
			rp.Next()
		}
		route, err := NewRouteFromHandlerFunc("x", "/x", func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, "handler")
		}, mw)
		require.NoError(t, err)

		route.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))
		assert.Equal(t, []string{"mw", "handler"}, calls)
	})
}

func TestNewStackRoute(t *testing.T) {
	t.Parallel()

	_, err := NewStackRoute("stack", "/", nil)
	assert.Error(t, err)

	route, err := NewStackRoute("stack", "/", NewStack())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	route.ServeHTTP(rec, httptest.NewRequest("GET", "/anything", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutesEqual(t *testing.T) {
	t.Parallel()

	a := testRoute(t, "uploads:v1", "/", okHandler)
	b := testRoute(t, "uploads:v1", "/", okHandler)
	c := testRoute(t, "uploads:v2", "/", okHandler)
	d := testRoute(t, "status", "/status", okHandler)

	assert.True(t, Routes{a}.Equal(Routes{b}))
	assert.False(t, Routes{a}.Equal(Routes{c}))
	assert.False(t, Routes{a}.Equal(Routes{a, d}))
	assert.True(t, Routes{a, d}.Equal(Routes{d, b}))
}

func TestRoutesString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Routes<>", Routes{}.String())

	routes := Routes{
		testRoute(t, "status", "/status", okHandler),
		testRoute(t, "uploads", "/", okHandler),
	}
	assert.Equal(t, "Routes<Name: status, Path: /status, Name: uploads, Path: />", routes.String())
}
