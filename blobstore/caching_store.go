package blobstore

import (
	"context"
	"errors"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the CachingStore block size used when none is given.
const DefaultBlockSize = 64 * 1024

type blockKey struct {
	name  string
	block int64
}

// CachingStore wraps a Store and adds block-level LRU caching for reads.
// Blobs are immutable, so cached blocks only need invalidation when a blob
// is replaced or deleted.
type CachingStore struct {
	inner     Store
	cache     *lru.Cache[blockKey, []byte]
	blockSize int64
}

// NewCachingStore creates a new CachingStore holding up to blocks blocks.
// blockSize defaults to DefaultBlockSize if <= 0.
func NewCachingStore(inner Store, blocks int, blockSize int64) (*CachingStore, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	c, err := lru.New[blockKey, []byte](blocks)
	if err != nil {
		return nil, err
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
	}, nil
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{
		inner: b,
		store: s,
		name:  name,
	}, nil
}

func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	for _, k := range s.cache.Keys() {
		if k.name == name {
			s.cache.Remove(k)
		}
	}
}

// CachingBlob wraps a Blob and uses the block cache for reads.
type CachingBlob struct {
	inner Blob
	store *CachingStore
	name  string
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 || off >= b.Size() {
		return 0, io.EOF
	}

	bs := b.store.blockSize
	want := min(int64(len(p)), b.Size()-off)
	startBlock := off / bs
	endBlock := (off + want - 1) / bs

	blocks, err := b.blocks(ctx, startBlock, endBlock)
	if err != nil {
		return 0, err
	}

	n := 0
	for i, data := range blocks {
		blkStart := (startBlock + int64(i)) * bs
		from := max(off, blkStart) - blkStart
		if from >= int64(len(data)) {
			break
		}
		n += copy(p[n:want], data[from:])
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.Size() {
		return nil, io.EOF
	}
	limit := min(off+length, b.Size())
	return io.NopCloser(&sectionReader{blob: b, ctx: ctx, off: off, limit: limit}), nil
}

// blocks returns blocks start through end, fetching misses in parallel.
func (b *CachingBlob) blocks(ctx context.Context, start, end int64) ([][]byte, error) {
	out := make([][]byte, end-start+1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i := range out {
		blk := start + int64(i)
		key := blockKey{name: b.name, block: blk}
		if data, ok := b.store.cache.Get(key); ok {
			out[i] = data
			continue
		}

		g.Go(func() error {
			bs := b.store.blockSize
			buf := make([]byte, min(bs, b.Size()-blk*bs))
			n, err := b.inner.ReadAt(ctx, buf, blk*bs)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			out[i] = buf[:n]
			b.store.cache.Add(key, out[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
