package form

import (
	"fmt"
	"time"
)

// File describes one uploaded file part once it has been written to disk.
type File struct {
	// Name is the filename the client sent.
	Name string

	// Path is where the upload is stored. A FileBegin listener may change it
	// before any bytes are written.
	Path string

	// Type is the part's Content-Type header.
	Type string

	// Size is the number of bytes written.
	Size int64

	// Hash is the hex digest of the contents when hashing is enabled.
	Hash string

	// LastModified is set when the upload finished writing.
	LastModified time.Time
}

func (f *File) String() string {
	return fmt.Sprintf("File<name=%s, path=%s, type=%s, size=%d>", f.Name, f.Path, f.Type, f.Size)
}
