package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tidwall/btree"
	"github.com/vmihailenco/msgpack/v5"
)

// Compile time check.
var _ Store = (*Memory)(nil)

type memoryItem struct {
	key   string
	value []byte
}

func memoryItemLess(a, b memoryItem) bool {
	return a.key < b.key
}

// Memory is an in-memory Store on a copy-on-write B-tree.
//
// View reads an immutable snapshot and never blocks writers. Update works on
// a private copy that is published when fn succeeds, so writers are
// serialized and never conflict.
type Memory struct {
	writer sync.Mutex // serializes Update and Restore

	mu     sync.RWMutex
	tree   *btree.BTreeG[memoryItem]
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tree: btree.NewBTreeG(memoryItemLess)}
}

func (m *Memory) snapshot() (*btree.BTreeG[memoryItem], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.tree.Copy(), nil
}

func (m *Memory) publish(tree *btree.BTreeG[memoryItem]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.tree = tree
	return nil
}

// View implements Store.
func (m *Memory) View(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tree, err := m.snapshot()
	if err != nil {
		return err
	}
	return fn(&memoryTxn{tree: tree, readOnly: true})
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.writer.Lock()
	defer m.writer.Unlock()

	tree, err := m.snapshot()
	if err != nil {
		return err
	}
	if err := fn(&memoryTxn{tree: tree}); err != nil {
		return err
	}
	return m.publish(tree)
}

type memoryBackupHeader struct {
	Version int `msgpack:"v"`
	Count   int `msgpack:"n"`
}

type memoryBackupEntry struct {
	Key   []byte `msgpack:"k"`
	Value []byte `msgpack:"v"`
}

const memoryBackupVersion = 1

// Backup implements Store. The stream is a msgpack header followed by one
// msgpack entry per key in ascending order.
func (m *Memory) Backup(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tree, err := m.snapshot()
	if err != nil {
		return err
	}

	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(memoryBackupHeader{Version: memoryBackupVersion, Count: tree.Len()}); err != nil {
		return err
	}

	tree.Scan(func(item memoryItem) bool {
		err = enc.Encode(memoryBackupEntry{Key: []byte(item.key), Value: item.value})
		return err == nil
	})
	return err
}

// Restore implements Store.
func (m *Memory) Restore(ctx context.Context, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dec := msgpack.NewDecoder(r)

	var header memoryBackupHeader
	if err := dec.Decode(&header); err != nil {
		return fmt.Errorf("kv: read backup header: %w", err)
	}
	if header.Version != memoryBackupVersion {
		return fmt.Errorf("kv: unsupported backup version %d", header.Version)
	}

	tree := btree.NewBTreeG(memoryItemLess)
	for i := range header.Count {
		var entry memoryBackupEntry
		if err := dec.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("kv: backup truncated after %d of %d entries: %w", i, header.Count, io.ErrUnexpectedEOF)
			}
			return err
		}
		tree.Set(memoryItem{key: string(entry.Key), value: entry.Value})
	}

	m.writer.Lock()
	defer m.writer.Unlock()
	return m.publish(tree)
}

// Close implements Store. The contents are discarded.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.tree = nil
	return nil
}

type memoryTxn struct {
	tree     *btree.BTreeG[memoryItem]
	readOnly bool
}

func (t *memoryTxn) Get(key []byte) ([]byte, error) {
	item, ok := t.tree.Get(memoryItem{key: string(key)})
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(item.value), nil
}

func (t *memoryTxn) Set(key, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	t.tree.Set(memoryItem{key: string(key), value: v})
	return nil
}

func (t *memoryTxn) Delete(key []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.tree.Delete(memoryItem{key: string(key)})
	return nil
}

func (t *memoryTxn) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return t.ascend(prefix, func(item memoryItem) error {
		return fn([]byte(item.key), item.value)
	})
}

func (t *memoryTxn) IterateKeys(prefix []byte, fn func(key []byte) error) error {
	return t.ascend(prefix, func(item memoryItem) error {
		return fn([]byte(item.key))
	})
}

// ascend visits a snapshot of the matching items so fn may write to the
// transaction.
func (t *memoryTxn) ascend(prefix []byte, fn func(memoryItem) error) error {
	p := string(prefix)

	var items []memoryItem
	t.tree.Ascend(memoryItem{key: p}, func(item memoryItem) bool {
		if !strings.HasPrefix(item.key, p) {
			return false
		}
		items = append(items, item)
		return true
	})

	for _, item := range items {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}
