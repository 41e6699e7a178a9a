package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// DocStore is the payload side of a question store: a BadgerDB key-value
// store holding the serialized question envelopes, keyed by
// "{partition}/{questionID}". Badger serializes concurrent writers to the
// same key, so upserts need no additional locking here.
type DocStore struct {
	db *badger.DB
}

type DocEntry struct {
	Key   string
	Value []byte
}

// OpenDocStore opens (or creates) the document store under dir. An empty
// dir opens an in-memory instance, used by tests.
func OpenDocStore(dir string) (*DocStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	return &DocStore{db: db}, nil
}

func (s *DocStore) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return val, nil
}

func (s *DocStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// SetBatch upserts multiple entries in one write batch.
func (s *DocStore) SetBatch(_ context.Context, entries []DocEntry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, e := range entries {
		if err := wb.Set([]byte(e.Key), e.Value); err != nil {
			return fmt.Errorf("batch set %q: %w", e.Key, err)
		}
	}
	return wb.Flush()
}

func (s *DocStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// List returns all entries whose key starts with prefix, in lexicographic
// key order.
func (s *DocStore) List(_ context.Context, prefix string) ([]DocEntry, error) {
	p := []byte(prefix)
	var entries []DocEntry

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = p
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, DocEntry{
				Key:   string(item.KeyCopy(nil)),
				Value: val,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	return entries, nil
}

// Count returns the number of entries under prefix.
func (s *DocStore) Count(_ context.Context, prefix string) (int, error) {
	p := []byte(prefix)
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = p
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (s *DocStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger errors and warnings to slog and drops the
// chatty info/debug output.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { slog.Error(fmt.Sprintf("badger: "+f, v...)) }
func (badgerLogger) Warningf(f string, v ...interface{}) { slog.Warn(fmt.Sprintf("badger: "+f, v...)) }
func (badgerLogger) Infof(string, ...interface{})        {}
func (badgerLogger) Debugf(string, ...interface{})       {}
