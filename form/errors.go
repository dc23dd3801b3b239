// Package form parses multipart/form-data request bodies and reports what it finds
// through event listeners, writing uploaded files to disk as they stream in.
package form

import "errors"

var (
	ErrNotMultipart    = errors.New("request is not multipart/form-data")
	ErrMissingBoundary = errors.New("missing boundary in content type")
	ErrMaxFieldsSize   = errors.New("maxFieldsSize exceeded")
	ErrUnknownEncoding = errors.New("unknown field encoding")
	ErrUnknownHash     = errors.New("unknown hash algorithm")
	ErrAborted         = errors.New("request aborted")
	ErrMalformedBody   = errors.New("malformed multipart body")
	ErrWriteUpload     = errors.New("failed to write uploaded file")
	ErrAlreadyParsed   = errors.New("form already parsed")
	ErrInvalidOption   = errors.New("invalid form option")
)
