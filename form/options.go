package form

import (
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
)

const (
	// DefaultMaxFieldsSize caps the combined size of all non-file fields in one body.
	DefaultMaxFieldsSize int64 = 2 * 1024 * 1024

	// DefaultEncoding is used to decode field values when no encoding is configured.
	DefaultEncoding = "utf-8"

	// DefaultHashAlgorithm is used when hashing is enabled without naming an algorithm.
	DefaultHashAlgorithm = "sha1"
)

// Option keys recognized by OptionsFromMap. Anything else is dropped.
const (
	KeyHash           = "hash"
	KeyHashAlgorithm  = "hashAlgorithm"
	KeyMaxFieldsSize  = "maxFieldsSize"
	KeyKeepExtensions = "keepExtensions"
	KeyEncoding       = "encoding"
	KeyUploadDir      = "uploadDir"
)

// Options configures a single parse. The zero value is usable; unset fields fall
// back to the package defaults when the Form is created.
type Options struct {
	// Hash enables a digest of every uploaded file, stored in File.Hash.
	Hash bool

	// HashAlgorithm selects the digest: "sha1", "md5" or "sha256".
	HashAlgorithm string

	// MaxFieldsSize limits the total bytes of non-file field values.
	MaxFieldsSize int64

	// KeepExtensions keeps the client file extension on the stored upload.
	KeepExtensions bool

	// Encoding is the character set used to decode field values (e.g. "utf-8", "latin1").
	Encoding string

	// UploadDir is where uploaded files are written.
	UploadDir string
}

// OptionsFromMap builds Options from an untyped bag such as decoded YAML or JSON.
// Only the recognized keys are copied.
func OptionsFromMap(m map[string]any) Options {
	return Options{}.Merge(m)
}

// Merge returns a copy of o with every recognized key of m applied on top.
// Unrecognized keys and values of the wrong type are ignored; ValidateMap
// reports the latter.
func (o Options) Merge(m map[string]any) Options {
	for key, raw := range m {
		o.set(key, raw)
	}
	return o
}

// ValidateMap checks the recognized keys of m: each value must have a usable
// type, and hash and encoding names must be supported. Unrecognized keys are
// allowed, since Merge drops them.
func ValidateMap(m map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(m)) {
		var o Options
		known, valid := o.set(key, m[key])
		if !known {
			continue
		}
		if !valid {
			return fmt.Errorf("%w: %s: unusable value %v (%T)", ErrInvalidOption, key, m[key], m[key])
		}
		if o.HashAlgorithm != "" {
			if _, err := hashFunc(o.HashAlgorithm); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidOption, key, err)
			}
		}
		if o.Encoding != "" {
			if _, err := fieldDecoder(o.Encoding); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidOption, key, err)
			}
		}
	}
	return nil
}

// set applies one key. known is false for keys Options does not have; valid is
// false when the value's type cannot be used.
func (o *Options) set(key string, raw any) (known, valid bool) {
	switch key {
	case KeyHash:
		// The hash option is either a flag or the name of the algorithm.
		switch v := raw.(type) {
		case bool:
			o.Hash = v
			return true, true
		case string:
			if v != "" {
				o.Hash = true
				o.HashAlgorithm = strings.ToLower(v)
			}
			return true, true
		}
		return true, false
	case KeyHashAlgorithm:
		v, ok := raw.(string)
		if ok {
			o.HashAlgorithm = strings.ToLower(v)
		}
		return true, ok
	case KeyMaxFieldsSize:
		v, ok := toInt64(raw)
		if !ok || v < 0 {
			return true, false
		}
		o.MaxFieldsSize = v
		return true, true
	case KeyKeepExtensions:
		v, ok := raw.(bool)
		if ok {
			o.KeepExtensions = v
		}
		return true, ok
	case KeyEncoding:
		v, ok := raw.(string)
		if ok {
			o.Encoding = v
		}
		return true, ok
	case KeyUploadDir:
		v, ok := raw.(string)
		if ok {
			o.UploadDir = v
		}
		return true, ok
	}
	return false, false
}

// Map returns the options that are set, keyed by their recognized names.
func (o Options) Map() map[string]any {
	m := make(map[string]any)
	if o.Hash {
		m[KeyHash] = true
	}
	if o.HashAlgorithm != "" {
		m[KeyHashAlgorithm] = o.HashAlgorithm
	}
	if o.MaxFieldsSize != 0 {
		m[KeyMaxFieldsSize] = o.MaxFieldsSize
	}
	if o.KeepExtensions {
		m[KeyKeepExtensions] = true
	}
	if o.Encoding != "" {
		m[KeyEncoding] = o.Encoding
	}
	if o.UploadDir != "" {
		m[KeyUploadDir] = o.UploadDir
	}
	return m
}

// String returns a human-readable representation of the Options
func (o Options) String() string {
	return fmt.Sprintf(
		"Options<hash=%t, hashAlgorithm=%s, maxFieldsSize=%d, keepExtensions=%t, encoding=%s, uploadDir=%s>",
		o.Hash, o.HashAlgorithm, o.MaxFieldsSize, o.KeepExtensions, o.Encoding, o.UploadDir,
	)
}

// withDefaults fills unset values.
func (o Options) withDefaults() Options {
	if o.MaxFieldsSize <= 0 {
		o.MaxFieldsSize = DefaultMaxFieldsSize
	}
	if o.Encoding == "" {
		o.Encoding = DefaultEncoding
	}
	if o.HashAlgorithm == "" {
		o.HashAlgorithm = DefaultHashAlgorithm
	}
	if o.UploadDir == "" {
		o.UploadDir = os.TempDir()
	}
	return o
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
