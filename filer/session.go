package filer

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"

	"github.com/google/uuid"
	"github.com/robbyt/go-filer/form"
	"github.com/robbyt/go-filer/runnables/httpserver"
)

// Session is the state of one upload request. Fields and Files only hold what
// this request sent.
type Session struct {
	ID      string
	Route   string
	Request *http.Request
	Fields  map[string]string
	Files   map[string]*form.File

	form   *form.Form
	end    EndFunc
	logger *slog.Logger
}

// newSession builds a parser for req. The built-in listeners are subscribed
// before the caller's events.
func (f *Filer) newSession(route string, req *http.Request) *Session {
	opts, events := f.snapshot()

	s := &Session{
		ID:      uuid.NewString(),
		Route:   route,
		Request: req,
		Fields:  make(map[string]string),
		Files:   make(map[string]*form.File),
		form:    form.New(opts),
		end:     events.End,
	}
	s.logger = f.logger.With("session", s.ID, "route", route)

	s.form.
		OnField(func(name, value string) {
			s.Fields[name] = value
			f.recordField(name, value)
		}).
		OnFile(func(name string, file *form.File) {
			s.Files[name] = file
			f.recordFile(name, file)
		}).
		OnError(func(err error) {
			if errors.Is(err, form.ErrAborted) {
				s.logger.Warn("Upload aborted by client", "error", err)
				return
			}
			s.logger.Error("Upload parse failed", "error", err)
		})

	s.subscribe(events)
	return s
}

func (s *Session) subscribe(e Events) {
	if fn := e.FileBegin; fn != nil {
		s.form.OnFileBegin(func(name string, file *form.File) { fn(s, name, file) })
	}
	if fn := e.Field; fn != nil {
		s.form.OnField(func(name, value string) { fn(s, name, value) })
	}
	if fn := e.File; fn != nil {
		s.form.OnFile(func(name string, file *form.File) { fn(s, name, file) })
	}
	if fn := e.Progress; fn != nil {
		s.form.OnProgress(func(received, expected int64) { fn(s, received, expected) })
	}
	if fn := e.Error; fn != nil {
		s.form.OnError(func(err error) { fn(s, err) })
	}
	if fn := e.Aborted; fn != nil {
		s.form.OnAborted(func() { fn(s) })
	}
}

// BytesReceived returns how much of the body has been read.
func (s *Session) BytesReceived() int64 {
	return s.form.BytesReceived()
}

// run parses the body, writes the envelope and ends the chain. An invalid End
// outcome panics with ErrInvalidOutcome after the callback has seen it. What End
// wrote is discarded in that case, so nothing reaches the client before the panic.
func (s *Session) run(rp *httpserver.RequestProcessor, cb CompleteFunc) {
	defer rp.Abort()
	w := rp.Writer()

	s.logger.Debug("Upload started", "content_length", s.Request.ContentLength)
	_, _, err := s.form.Parse(s.Request)
	switch {
	case errors.Is(err, form.ErrAborted):
		s.complete(cb, err)
		return
	case err != nil:
		s.write(w, FailedBody(map[string]any{"error": err.Error()}))
		s.complete(cb, err)
		return
	}

	pending := newPendingResponse(w)
	body, err := s.outcome(pending)
	if err != nil {
		s.logger.Error("Invalid upload outcome", "error", err)
		s.complete(cb, err)
		panic(err)
	}

	pending.flush(w)
	s.write(w, body)
	s.logger.Debug("Upload finished",
		"fields", len(s.Fields),
		"files", len(s.Files),
		"bytes", s.form.BytesReceived(),
	)
	s.complete(cb, nil)
}

// outcome resolves the envelope for a successful parse.
func (s *Session) outcome(w http.ResponseWriter) (*RespBody, error) {
	if s.end == nil {
		return SuccessBody(nil), nil
	}
	return resolveOutcome(s.end(w, s))
}

func resolveOutcome(v any) (*RespBody, error) {
	switch o := v.(type) {
	case bool:
		if o {
			return SuccessBody(nil), nil
		}
		return FailedBody(nil), nil
	case *RespBody:
		if o == nil {
			return nil, fmt.Errorf("%w: got nil *RespBody", ErrInvalidOutcome)
		}
		return o, nil
	case RespBody:
		return &o, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidOutcome, v)
	}
}

func (s *Session) write(w http.ResponseWriter, body *RespBody) {
	if err := body.Write(w); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *Session) complete(cb CompleteFunc, err error) {
	if cb == nil {
		return
	}
	cb(s.Request.Context(), err, s.Fields, s.Files)
}

// pendingResponse holds the headers, status and bytes written by End until its
// outcome is known.
type pendingResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newPendingResponse(w http.ResponseWriter) *pendingResponse {
	return &pendingResponse{header: w.Header().Clone()}
}

func (p *pendingResponse) Header() http.Header {
	return p.header
}

func (p *pendingResponse) WriteHeader(statusCode int) {
	if p.status == 0 {
		p.status = statusCode
	}
}

func (p *pendingResponse) Write(b []byte) (int, error) {
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return p.body.Write(b)
}

// flush replays the held response onto w, ahead of the envelope.
func (p *pendingResponse) flush(w http.ResponseWriter) {
	dst := w.Header()
	for key := range dst {
		if _, ok := p.header[key]; !ok {
			dst.Del(key)
		}
	}
	maps.Copy(dst, p.header)

	if p.status != 0 {
		w.WriteHeader(p.status)
	}
	if p.body.Len() > 0 {
		_, _ = w.Write(p.body.Bytes())
	}
}
