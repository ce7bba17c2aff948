package pipeline

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Source is one submitted file.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads a file from disk.
type FileSource string

// Name returns the base name of the file.
func (f FileSource) Name() string { return filepath.Base(string(f)) }

// Open opens the file.
func (f FileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// BytesSource is an in-memory file.
type BytesSource struct {
	Filename string
	Data     []byte
}

// Name returns the file name.
func (b BytesSource) Name() string { return b.Filename }

// Open returns a reader over the data.
func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}
