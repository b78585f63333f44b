package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Compile time check.
var _ Store = (*Badger)(nil)

// Badger is a Store implementation backed by BadgerDB v4.
//
// Write transactions are serializable; a commit that raced with another
// returns an error wrapping ErrConflict.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files.
	// Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB in memory-only mode (no disk persistence).
	// Useful for testing with a real badger engine.
	InMemory bool

	// Logger receives badger's warnings and errors. If nil, slog.Default is used.
	Logger *slog.Logger
}

// NewBadger creates a new BadgerDB-backed Store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("kv: BadgerOptions.Dir is required for on-disk mode")
	}

	dir := bopts.Dir
	if bopts.InMemory {
		dir = ""
	}
	dbOpts := badger.DefaultOptions(dir).WithInMemory(bopts.InMemory)

	logger := bopts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger: logger.With("component", "badger")})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// View implements Store.
func (b *Badger) View(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return translateBadgerError(b.db.View(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	}))
}

// Update implements Store.
func (b *Badger) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return translateBadgerError(b.db.Update(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	}))
}

// Backup implements Store using badger's protobuf backup stream.
func (b *Badger) Backup(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.db.Backup(w, 0)
	return translateBadgerError(err)
}

// Restore implements Store. Existing data is dropped before loading.
func (b *Badger) Restore(ctx context.Context, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.db.DropAll(); err != nil {
		return translateBadgerError(err)
	}
	return translateBadgerError(b.db.Load(r, 256))
}

// Close implements Store.
func (b *Badger) Close() error {
	return b.db.Close()
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t badgerTxn) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if err != nil {
		return nil, translateBadgerError(err)
	}
	return item.ValueCopy(nil)
}

func (t badgerTxn) Set(key, value []byte) error {
	return translateBadgerError(t.txn.Set(key, value))
}

func (t badgerTxn) Delete(key []byte) error {
	err := t.txn.Delete(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return translateBadgerError(err)
}

func (t badgerTxn) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return t.iterate(prefix, true, func(item *badger.Item) error {
		return item.Value(func(val []byte) error {
			return fn(item.Key(), val)
		})
	})
}

func (t badgerTxn) IterateKeys(prefix []byte, fn func(key []byte) error) error {
	return t.iterate(prefix, false, func(item *badger.Item) error {
		return fn(item.Key())
	})
}

func (t badgerTxn) iterate(prefix []byte, values bool, fn func(*badger.Item) error) error {
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = prefix
	iterOpts.PrefetchValues = values

	it := t.txn.NewIterator(iterOpts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := fn(it.Item()); err != nil {
			return err
		}
	}
	return nil
}

func translateBadgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, badger.ErrReadOnlyTxn):
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	default:
		return err
	}
}

// badgerLogger forwards badger's log output to slog, suppressing debug and
// info level messages.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
