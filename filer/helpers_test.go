package filer

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robbyt/go-filer/form"
	"github.com/robbyt/go-filer/runnables/httpserver"
	"github.com/stretchr/testify/require"
)

type testPart struct {
	name     string
	filename string
	isFile   bool
	content  string
}

func field(name, value string) testPart {
	return testPart{name: name, content: value}
}

func upload(name, filename, content string) testPart {
	return testPart{name: name, filename: filename, isFile: true, content: content}
}

// newUploadRequest builds a multipart POST to path.
func newUploadRequest(t *testing.T, path string, parts ...testPart) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, p := range parts {
		if p.isFile {
			fw, err := w.CreateFormFile(p.name, p.filename)
			require.NoError(t, err)
			_, err = fw.Write([]byte(p.content))
			require.NoError(t, err)
			continue
		}
		require.NoError(t, w.WriteField(p.name, p.content))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// serve runs handler followed by a handler that records whether the chain
// was passed on.
func serve(t *testing.T, handler httpserver.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	passed := false
	route, err := httpserver.NewRoute("test", "/", handler, func(rp *httpserver.RequestProcessor) {
		passed = true
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	route.ServeHTTP(rec, req)
	return rec, passed
}

// decode reads a response body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got), "body: %s", rec.Body.String())
	return got
}

func newTestFiler(t *testing.T, opts ...Option) *Filer {
	t.Helper()
	return New(append([]Option{WithOptions(testOptions(t))}, opts...)...)
}

func testOptions(t *testing.T) form.Options {
	t.Helper()
	return form.Options{UploadDir: t.TempDir()}
}
