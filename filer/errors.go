// Package filer is upload middleware for the httpserver handler chain. A Filer
// claims multipart/form-data POST requests on one route, parses them with the
// form package, and answers with a small JSON envelope (see RespBody).
//
// Basic usage:
//
//	stack := httpserver.NewStack()
//	f, err := filer.Register(stack, "/upload", filer.WithOptionsMap(map[string]any{
//		"uploadDir":      "/srv/uploads",
//		"keepExtensions": true,
//	}))
//	if err != nil {
//		return err
//	}
//	_ = f.Allow(func(r *http.Request) bool { return r.Header.Get("X-Token") != "" })
package filer

import "errors"

var (
	ErrInvalidPredicate = errors.New("permission check must be a non-nil function")
	ErrInvalidOutcome   = errors.New("success must be either a boolean or a response body")
	ErrNilRegistrar     = errors.New("cannot register on a nil app")
)
