package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source provides the payload of one upload: identity for the negotiate
// phase and random-access chunk readers for the transfer phase. Chunk may
// be called once per range, strictly in order.
type Source interface {
	Name() string
	Size() int64
	ContentType() string
	LastModified() time.Time
	// Chunk returns a reader over payload bytes [off, off+n).
	Chunk(off, n int64) (io.Reader, error)
}

// fallbackTypes covers extensions the platform mime database regularly
// misses.
var fallbackTypes = map[string]string{
	".json": "application/json",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".bin":  "application/octet-stream",
}

const defaultContentType = "application/octet-stream"

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if t, ok := fallbackTypes[ext]; ok {
		return t
	}
	return defaultContentType
}

type bytesSource struct {
	name        string
	contentType string
	modified    time.Time
	data        []byte
}

// FromBytes wraps an in-memory payload as an upload source. An empty
// contentType falls back to an extension lookup on name.
func FromBytes(name, contentType string, data []byte) Source {
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	return &bytesSource{
		name:        name,
		contentType: contentType,
		modified:    time.Now(),
		data:        data,
	}
}

func (s *bytesSource) Name() string            { return s.name }
func (s *bytesSource) Size() int64             { return int64(len(s.data)) }
func (s *bytesSource) ContentType() string     { return s.contentType }
func (s *bytesSource) LastModified() time.Time { return s.modified }

func (s *bytesSource) Chunk(off, n int64) (io.Reader, error) {
	if off < 0 || off+n > int64(len(s.data)) {
		return nil, fmt.Errorf("chunk range [%d,%d) outside payload of %d bytes", off, off+n, len(s.data))
	}
	return bytes.NewReader(s.data[off : off+n]), nil
}

type fileSource struct {
	file        *os.File
	name        string
	contentType string
	modified    time.Time
	size        int64
}

// FromFile opens path as an upload source. The caller closes it via Close
// once the upload finished (UploadFile does this automatically).
func FromFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	name := filepath.Base(path)
	return &FileSource{fileSource{
		file:        file,
		name:        name,
		contentType: contentTypeFor(name),
		modified:    info.ModTime(),
		size:        info.Size(),
	}}, nil
}

// FileSource is a Source backed by an open file.
type FileSource struct {
	fileSource
}

func (s *fileSource) Name() string            { return s.name }
func (s *fileSource) Size() int64             { return s.size }
func (s *fileSource) ContentType() string     { return s.contentType }
func (s *fileSource) LastModified() time.Time { return s.modified }

func (s *fileSource) Chunk(off, n int64) (io.Reader, error) {
	return io.NewSectionReader(s.file, off, n), nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}
