package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	}
}

func TestStore_Lifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("hello world, this is a test blob for vecgraph")

			w, err := store.Create(ctx, "snapshots/data-001.bin")
			require.NoError(t, err)
			n, err := w.Write(data)
			require.NoError(t, err)
			require.Equal(t, len(data), n)
			require.NoError(t, w.Sync())
			require.NoError(t, w.Close())

			_, err = w.Write(data)
			assert.Error(t, err, "write after close")

			blob, err := store.Open(ctx, "snapshots/data-001.bin")
			require.NoError(t, err)
			defer blob.Close()
			require.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err = blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			require.Equal(t, 5, n)
			assert.Equal(t, "world", string(buf))

			rc, err := blob.ReadRange(ctx, 13, 4)
			require.NoError(t, err)
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, "this", string(content))

			whole, err := io.ReadAll(NewReader(ctx, blob))
			require.NoError(t, err)
			assert.Equal(t, data, whole)

			require.NoError(t, store.Put(ctx, "snapshots/data-002.bin", []byte("x")))
			require.NoError(t, store.Put(ctx, "other.bin", []byte("y")))

			names, err := store.List(ctx, "snapshots/")
			require.NoError(t, err)
			assert.Equal(t, []string{"snapshots/data-001.bin", "snapshots/data-002.bin"}, names)

			names, err = store.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, names, 3)

			require.NoError(t, store.Delete(ctx, "snapshots/data-001.bin"))
			require.NoError(t, store.Delete(ctx, "snapshots/data-001.bin"), "deleting a missing blob is not an error")

			_, err = store.Open(ctx, "snapshots/data-001.bin")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "a", []byte("first")))
			require.NoError(t, store.Put(ctx, "a", []byte("second")))

			blob, err := store.Open(ctx, "a")
			require.NoError(t, err)
			defer blob.Close()

			got, err := io.ReadAll(NewReader(ctx, blob))
			require.NoError(t, err)
			assert.Equal(t, "second", string(got))
		})
	}
}

func TestStore_ReadRangeBoundaries(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("0123456789")
			require.NoError(t, store.Put(ctx, "boundary.bin", data))

			blob, err := store.Open(ctx, "boundary.bin")
			require.NoError(t, err)
			defer blob.Close()

			r, err := blob.ReadRange(ctx, 0, 10)
			require.NoError(t, err)
			content, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, content)

			r, err = blob.ReadRange(ctx, 8, 5)
			require.NoError(t, err)
			content, err = io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "89", string(content))

			_, err = blob.ReadRange(ctx, 20, 5)
			assert.ErrorIs(t, err, io.EOF)

			buf := make([]byte, 4)
			n, err := blob.ReadAt(ctx, buf, 8)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, 2, n)
		})
	}
}

func TestStore_Mappable(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "m", []byte("mapped")))

			blob, err := store.Open(ctx, "m")
			require.NoError(t, err)
			defer blob.Close()

			m, ok := blob.(Mappable)
			require.True(t, ok)
			b, err := m.Bytes()
			require.NoError(t, err)
			assert.Equal(t, "mapped", string(b))
		})
	}
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(t.TempDir() + "/missing")
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_AbortDiscards(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			w, err := store.Create(ctx, "partial")
			require.NoError(t, err)
			_, err = w.Write([]byte("half"))
			require.NoError(t, err)

			a, ok := w.(Aborter)
			require.True(t, ok)
			require.NoError(t, a.Abort())

			_, err = store.Open(ctx, "partial")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}
