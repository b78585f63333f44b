// Package snapshot writes and reads self-describing backups of a kv store to
// a blobstore.
//
// A snapshot is laid out as
//
//	magic "VGSNAP01" | codec (1 byte) | body | CRC32C (4 bytes, big-endian)
//
// where body is the store's backup stream compressed with the codec, and the
// trailer is the CRC32C of the uncompressed backup stream.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/hupe1980/vecgraph/blobstore"
	ihash "github.com/hupe1980/vecgraph/internal/hash"
	"github.com/hupe1980/vecgraph/internal/resource"
)

// Magic opens every snapshot.
const Magic = "VGSNAP01"

const (
	headerSize  = len(Magic) + 1
	trailerSize = 4
)

var (
	// ErrInvalidMagic is returned when a blob is not a snapshot.
	ErrInvalidMagic = errors.New("snapshot: invalid magic")
	// ErrUnsupportedCodec is returned for unknown codec identifiers.
	ErrUnsupportedCodec = errors.New("snapshot: unsupported codec")
	// ErrChecksumMismatch is returned when the body does not match the trailer.
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	// ErrTruncated is returned when a blob is too short to be a snapshot.
	ErrTruncated = errors.New("snapshot: truncated")
)

// Source produces a backup stream.
type Source interface {
	Backup(ctx context.Context, w io.Writer) error
}

// Sink consumes a backup stream produced by the matching Source.
type Sink interface {
	Restore(ctx context.Context, r io.Reader) error
}

// Info describes a snapshot.
type Info struct {
	Name     string
	Codec    Codec
	Size     int64 // stored bytes including header and trailer
	RawSize  int64 // uncompressed backup stream
	Checksum uint32
}

type options struct {
	codec      Codec
	controller *resource.Controller
}

// Option configures Save and Load.
type Option func(*options)

// WithCodec selects the body compression for Save. Load reads the codec
// from the snapshot header.
func WithCodec(c Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithController throttles snapshot IO through c.
func WithController(c *resource.Controller) Option {
	return func(o *options) { o.controller = c }
}

func applyOptions(optFns []Option) options {
	opts := options{codec: CodecZstd}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Save streams a backup of src into the blob name of dst. A failed save
// does not leave a partial blob behind.
func Save(ctx context.Context, src Source, dst blobstore.Store, name string, optFns ...Option) (Info, error) {
	opts := applyOptions(optFns)
	if opts.codec > CodecLZ4 {
		return Info{}, fmt.Errorf("%w: %d", ErrUnsupportedCodec, uint8(opts.codec))
	}

	wb, err := dst.Create(ctx, name)
	if err != nil {
		return Info{}, err
	}

	info, err := write(ctx, src, wb, opts)
	if err != nil {
		discard(ctx, dst, name, wb)
		return Info{}, err
	}
	if err := wb.Close(); err != nil {
		return Info{}, err
	}

	info.Name = name
	return info, nil
}

func write(ctx context.Context, src Source, wb io.Writer, opts options) (Info, error) {
	out := &countingWriter{w: resource.NewRateLimitedWriter(ctx, wb, opts.controller)}

	if _, err := out.Write(append([]byte(Magic), byte(opts.codec))); err != nil {
		return Info{}, err
	}

	body, err := opts.codec.compressor(out)
	if err != nil {
		return Info{}, err
	}

	sum := ihash.NewCRC32C()
	raw := &countingWriter{w: io.MultiWriter(body, sum)}
	if err := src.Backup(ctx, raw); err != nil {
		_ = body.Close()
		return Info{}, err
	}
	if err := body.Close(); err != nil {
		return Info{}, err
	}

	checksum := sum.Sum32()
	if _, err := out.Write(binary.BigEndian.AppendUint32(nil, checksum)); err != nil {
		return Info{}, err
	}

	return Info{
		Codec:    opts.codec,
		Size:     out.n,
		RawSize:  raw.n,
		Checksum: checksum,
	}, nil
}

func discard(ctx context.Context, dst blobstore.Store, name string, wb blobstore.WritableBlob) {
	if a, ok := wb.(blobstore.Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = wb.Close()
	_ = dst.Delete(ctx, name)
}

// Verify reads the snapshot name from src and checks its framing and
// checksum without restoring it.
func Verify(ctx context.Context, src blobstore.Store, name string, optFns ...Option) (Info, error) {
	return read(ctx, src, name, applyOptions(optFns), func(r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	})
}

// Load verifies the snapshot name from src and then restores it into dst.
// The blob is read twice so that a corrupt snapshot never reaches dst.
func Load(ctx context.Context, dst Sink, src blobstore.Store, name string, optFns ...Option) (Info, error) {
	opts := applyOptions(optFns)

	if _, err := Verify(ctx, src, name, optFns...); err != nil {
		return Info{}, err
	}

	return read(ctx, src, name, opts, func(r io.Reader) error {
		if err := dst.Restore(ctx, r); err != nil {
			return err
		}
		_, err := io.Copy(io.Discard, r)
		return err
	})
}

func read(ctx context.Context, src blobstore.Store, name string, opts options, consume func(io.Reader) error) (Info, error) {
	blob, err := src.Open(ctx, name)
	if err != nil {
		return Info{}, err
	}
	defer blob.Close()

	info := Info{Name: name, Size: blob.Size()}
	if info.Size < int64(headerSize+trailerSize) {
		return Info{}, ErrTruncated
	}

	header := make([]byte, headerSize)
	if _, err := blob.ReadAt(ctx, header, 0); err != nil {
		return Info{}, err
	}
	if !bytes.Equal(header[:len(Magic)], []byte(Magic)) {
		return Info{}, ErrInvalidMagic
	}
	info.Codec = Codec(header[len(Magic)])

	trailer := make([]byte, trailerSize)
	if _, err := blob.ReadAt(ctx, trailer, info.Size-trailerSize); err != nil && !errors.Is(err, io.EOF) {
		return Info{}, err
	}
	info.Checksum = binary.BigEndian.Uint32(trailer)

	var body io.Reader = bytes.NewReader(nil)
	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return Info{}, err
		}
		if int64(len(data)) != info.Size {
			return Info{}, ErrTruncated
		}
		body = bytes.NewReader(data[headerSize : info.Size-trailerSize])
	} else if n := info.Size - int64(headerSize+trailerSize); n > 0 {
		rc, err := blob.ReadRange(ctx, int64(headerSize), n)
		if err != nil {
			return Info{}, err
		}
		defer rc.Close()
		body = rc
	}

	dec, err := info.Codec.decompressor(resource.NewRateLimitedReader(ctx, body, opts.controller))
	if err != nil {
		return Info{}, err
	}
	defer dec.Close()

	v := &verifyingReader{r: dec, sum: ihash.NewCRC32C(), want: info.Checksum}
	if err := consume(v); err != nil {
		return Info{}, err
	}
	info.RawSize = v.n

	return info, nil
}

// verifyingReader reports ErrChecksumMismatch instead of io.EOF when the
// bytes read do not hash to want.
type verifyingReader struct {
	r    io.Reader
	sum  hash.Hash32
	want uint32
	n    int64
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	n, err := v.r.Read(p)
	v.sum.Write(p[:n])
	v.n += int64(n)
	if err == io.EOF && v.sum.Sum32() != v.want {
		return n, ErrChecksumMismatch
	}
	return n, err
}
