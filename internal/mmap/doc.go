// Package mmap provides read-only memory-mapped file access.
//
// # Usage
//
//	m, err := mmap.Open("snapshot.vgs")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()  // zero-copy view
//	r := m.Reader()    // io.ReadSeeker over the same bytes
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) through golang.org/x/sys/unix
//   - Windows: CreateFileMapping/MapViewOfFile
//
// Callers must not touch Bytes after Close returns.
package mmap
