package form

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// MediaType is the only content type a Form accepts.
const MediaType = "multipart/form-data"

// Form is a single-use parser for one multipart request body. Listeners are
// registered with the On* methods before calling Parse, and fire in the order
// the parts appear in the body. End fires only after every field and file
// listener for the body has returned.
type Form struct {
	opts   Options
	parsed atomic.Bool

	onFileBegin []func(name string, file *File)
	onField     []func(name, value string)
	onFile      []func(name string, file *File)
	onProgress  []func(received, expected int64)
	onError     []func(err error)
	onAborted   []func()
	onEnd       []func()

	bytesReceived int64
	bytesExpected int64
	fieldsSize    int64
}

// New creates a Form. Unset options use the package defaults.
func New(opts Options) *Form {
	return &Form{opts: opts.withDefaults()}
}

// Options returns the effective options, defaults included.
func (f *Form) Options() Options {
	return f.opts
}

// OnFileBegin registers a listener that runs before an uploaded file is written.
func (f *Form) OnFileBegin(fn func(name string, file *File)) *Form {
	f.onFileBegin = append(f.onFileBegin, fn)
	return f
}

// OnField registers a listener for every non-file field.
func (f *Form) OnField(fn func(name, value string)) *Form {
	f.onField = append(f.onField, fn)
	return f
}

// OnFile registers a listener for every completed file upload.
func (f *Form) OnFile(fn func(name string, file *File)) *Form {
	f.onFile = append(f.onFile, fn)
	return f
}

// OnProgress registers a listener called as body bytes are read. expected is
// the request Content-Length, or -1 when unknown.
func (f *Form) OnProgress(fn func(received, expected int64)) *Form {
	f.onProgress = append(f.onProgress, fn)
	return f
}

// OnError registers a listener for the error that stopped parsing.
func (f *Form) OnError(fn func(err error)) *Form {
	f.onError = append(f.onError, fn)
	return f
}

// OnAborted registers a listener for a client that went away mid-body.
func (f *Form) OnAborted(fn func()) *Form {
	f.onAborted = append(f.onAborted, fn)
	return f
}

// OnEnd registers a listener for a body that was parsed completely.
func (f *Form) OnEnd(fn func()) *Form {
	f.onEnd = append(f.onEnd, fn)
	return f
}

// BytesReceived returns how many body bytes have been read so far.
func (f *Form) BytesReceived() int64 {
	return f.bytesReceived
}

// Parse reads the whole request body. It returns the last value seen for every
// field and file name, along with the first error encountered. On error the
// maps hold whatever was parsed before it.
func (f *Form) Parse(r *http.Request) (map[string]string, map[string]*File, error) {
	fields := make(map[string]string)
	files := make(map[string]*File)

	if !f.parsed.CompareAndSwap(false, true) {
		return fields, files, ErrAlreadyParsed
	}

	err := f.parse(r, fields, files)
	if err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil && !errors.Is(err, ErrAborted) {
			err = fmt.Errorf("%w: %w", ErrAborted, ctxErr)
		}
		if errors.Is(err, ErrAborted) {
			for _, fn := range f.onAborted {
				fn()
			}
		}
		for _, fn := range f.onError {
			fn(err)
		}
		return fields, files, err
	}

	for _, fn := range f.onEnd {
		fn()
	}
	return fields, files, nil
}

func (f *Form) parse(r *http.Request, fields map[string]string, files map[string]*File) error {
	boundary, err := boundaryOf(r.Header.Get("Content-Type"))
	if err != nil {
		return err
	}

	decoder, err := fieldDecoder(f.opts.Encoding)
	if err != nil {
		return err
	}

	var newHash func() hash.Hash
	if f.opts.Hash {
		newHash, err = hashFunc(f.opts.HashAlgorithm)
		if err != nil {
			return err
		}
	}

	if r.Body == nil {
		return fmt.Errorf("%w: empty body", ErrMalformedBody)
	}
	defer r.Body.Close()

	f.bytesExpected = r.ContentLength
	body := &progressReader{r: r.Body, form: f}
	reader := multipart.NewReader(body, boundary)

	ctx := r.Context()
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}

		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}

		name := part.FormName()
		if name == "" {
			// not a form-data part
			_, _ = io.Copy(io.Discard, part)
			_ = part.Close()
			continue
		}

		filename, isFile := partFilename(part)
		if !isFile {
			value, err := f.readField(part, decoder)
			_ = part.Close()
			if err != nil {
				return err
			}
			fields[name] = value
			for _, fn := range f.onField {
				fn(name, value)
			}
			continue
		}

		file := &File{
			Name: filename,
			Path: f.uploadPath(filename),
			Type: part.Header.Get("Content-Type"),
		}
		for _, fn := range f.onFileBegin {
			fn(name, file)
		}

		err = f.writeFile(ctx, part, file, newHash)
		_ = part.Close()
		if err != nil {
			return err
		}
		files[name] = file
		for _, fn := range f.onFile {
			fn(name, file)
		}
	}
}

// readField reads one field value, enforcing MaxFieldsSize across the whole body.
func (f *Form) readField(part *multipart.Part, decoder *encoding.Decoder) (string, error) {
	remaining := f.opts.MaxFieldsSize - f.fieldsSize
	raw, err := io.ReadAll(io.LimitReader(part, remaining+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if int64(len(raw)) > remaining {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrMaxFieldsSize, f.opts.MaxFieldsSize)
	}
	f.fieldsSize += int64(len(raw))

	if decoder == nil {
		return string(raw), nil
	}
	value, err := decoder.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s: %w", ErrMalformedBody, f.opts.Encoding, err)
	}
	return string(value), nil
}

func (f *Form) writeFile(ctx context.Context, part io.Reader, file *File, newHash func() hash.Hash) error {
	out, err := os.OpenFile(file.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteUpload, err)
	}

	var dst io.Writer = out
	var digest hash.Hash
	if newHash != nil {
		digest = newHash()
		dst = io.MultiWriter(out, digest)
	}

	n, copyErr := io.Copy(dst, part)
	closeErr := out.Close()
	file.Size = n

	switch {
	case copyErr != nil && ctx.Err() != nil:
		err = fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	case copyErr != nil:
		err = fmt.Errorf("%w: %w", ErrMalformedBody, copyErr)
	case closeErr != nil:
		err = fmt.Errorf("%w: %w", ErrWriteUpload, closeErr)
	}
	if err != nil {
		// partial uploads are never reported
		if rmErr := os.Remove(file.Path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("%w (removing partial upload: %w)", err, rmErr)
		}
		return err
	}

	if digest != nil {
		file.Hash = hex.EncodeToString(digest.Sum(nil))
	}
	file.LastModified = time.Now()
	return nil
}

// uploadPath returns a unique path inside UploadDir for a new upload.
func (f *Form) uploadPath(filename string) string {
	name := "upload_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if f.opts.KeepExtensions {
		name += filepath.Ext(filepath.Base(filename))
	}
	return filepath.Join(f.opts.UploadDir, name)
}

func (f *Form) progress(n int) {
	if n <= 0 {
		return
	}
	f.bytesReceived += int64(n)
	for _, fn := range f.onProgress {
		fn(f.bytesReceived, f.bytesExpected)
	}
}

type progressReader struct {
	r    io.Reader
	form *Form
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.form.progress(n)
	return n, err
}

// boundaryOf validates the media type and extracts the multipart boundary.
func boundaryOf(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotMultipart, err)
	}
	if mediaType != MediaType {
		return "", fmt.Errorf("%w: got %s", ErrNotMultipart, mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", ErrMissingBoundary
	}
	return boundary, nil
}

// partFilename reports whether the part carries a filename parameter. An empty
// filename still marks the part as a file.
func partFilename(part *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	if _, ok := params["filename"]; !ok {
		return "", false
	}
	return part.FileName(), true
}

// fieldDecoder returns nil for UTF-8, which needs no conversion.
func fieldDecoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "binary":
		name = "latin1"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return enc.NewDecoder(), nil
}

func hashFunc(algorithm string) (func() hash.Hash, error) {
	switch algorithm {
	case "sha1":
		return sha1.New, nil
	case "md5":
		return md5.New, nil
	case "sha256":
		return sha256.New, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHash, algorithm)
	}
}
