package filer

import (
	"net/http"
	"strings"

	"github.com/robbyt/go-filer/form"
	"github.com/robbyt/go-filer/runnables/httpserver"
)

// DefaultRoute is used when Register is given an empty route.
const DefaultRoute = "/upload"

// Registrar is an app chain that middleware can be appended to, such as
// *httpserver.Stack.
type Registrar interface {
	Use(handlers ...httpserver.HandlerFunc)
}

// Register appends the upload middleware for route to app. Registering again
// adds another handler; earlier ones stay in place. cb may be nil.
func (f *Filer) Register(app Registrar, route string, cb CompleteFunc) error {
	if app == nil {
		return ErrNilRegistrar
	}
	if route == "" {
		route = DefaultRoute
	}
	app.Use(f.Handler(route, cb))
	f.logger.Debug("Registered upload route", "route", route)
	return nil
}

// Register creates a Filer and registers it on app in one step. The returned
// Filer can still be given events and a permission check; they apply to the
// requests that arrive afterwards.
func Register(app Registrar, route string, opts ...Option) (*Filer, error) {
	f := New(opts...)
	if err := f.Register(app, route, nil); err != nil {
		return nil, err
	}
	return f, nil
}

// Handler returns the upload middleware for route without registering it.
func (f *Filer) Handler(route string, cb CompleteFunc) httpserver.HandlerFunc {
	if route == "" {
		route = DefaultRoute
	}

	return func(rp *httpserver.RequestProcessor) {
		req := rp.Request()
		if !matches(req, route) {
			rp.Next()
			return
		}

		if !f.permitted(req) {
			f.logger.Debug("Upload denied", "route", route, "remote_addr", req.RemoteAddr)
			if err := PermissionBody(false, "", nil).Write(rp.Writer()); err != nil {
				f.logger.Error("Failed to write response", "route", route, "error", err)
			}
			rp.Abort()
			return
		}

		f.newSession(route, req).run(rp, cb)
	}
}

// matches reports whether req is a multipart POST to exactly route. Only the
// text before the first ';' of the content type is compared, byte for byte.
func matches(req *http.Request, route string) bool {
	if req.URL.Path != route {
		return false
	}
	if req.Method != http.MethodPost {
		return false
	}
	mediaType, _, _ := strings.Cut(req.Header.Get("Content-Type"), ";")
	return mediaType == form.MediaType
}
