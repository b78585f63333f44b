package mmap

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidOffset is returned for negative offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// File is a read-only memory-mapped file.
type File struct {
	data   []byte
	closed atomic.Bool
}

// Open maps the file at path into memory. Empty files map to an empty slice.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &File{}, nil
	}
	if int64(int(size)) != size {
		return nil, errors.New("mmap: file too large")
	}

	data, err := mmap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &File{data: data}, nil
}

// Bytes returns the mapped contents.
func (m *File) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the mapped length in bytes.
func (m *File) Size() int {
	return len(m.data)
}

// ReadAt implements io.ReaderAt.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Reader returns a reader over the whole mapping.
func (m *File) Reader() *io.SectionReader {
	return io.NewSectionReader(m, 0, int64(len(m.data)))
}

// Close unmaps the file. It is idempotent.
func (m *File) Close() error {
	if m.closed.Swap(true) || m.data == nil {
		return nil
	}
	return munmap(m.data)
}
