package snapshot

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies how a snapshot body is compressed.
type Codec uint8

const (
	// CodecNone stores the body as is.
	CodecNone Codec = 0
	// CodecZstd compresses the body with zstd (better ratio, good for cold storage).
	CodecZstd Codec = 1
	// CodecLZ4 compresses the body with LZ4 frames (fast).
	CodecLZ4 Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Codec) MarshalText() ([]byte, error) {
	if c > CodecLZ4 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodec, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Codec) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "none":
		*c = CodecNone
	case "zstd":
		*c = CodecZstd
	case "lz4":
		*c = CodecLZ4
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCodec, text)
	}
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressor returns a writer that compresses into w. Closing it flushes the
// codec but does not close w.
func (c Codec) compressor(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodec, uint8(c))
	}
}

// decompressor returns a reader that decompresses r.
func (c Codec) decompressor(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CodecNone:
		return io.NopCloser(r), nil
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CodecLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodec, uint8(c))
	}
}
