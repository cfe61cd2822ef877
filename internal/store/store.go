package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Kind names one of the derived-record collections.
type Kind string

const (
	KindItems    Kind = "items"
	KindObjects  Kind = "objects"
	KindLiterals Kind = "literals"
	KindTypes    Kind = "types"
)

// Kinds lists the four derived-record collections, in flush order.
var Kinds = []Kind{KindItems, KindObjects, KindLiterals, KindTypes}

// Store wraps the BadgerDB instance holding the derived collections, the
// error log and the secondary index entries.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLogger adapts slog to badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, args ...any)   { l.logger.Error(fmt.Sprintf(msg, args...)) }
func (l *badgerLogger) Warningf(msg string, args ...any) { l.logger.Warn(fmt.Sprintf(msg, args...)) }
func (l *badgerLogger) Infof(msg string, args ...any)    { l.logger.Debug(fmt.Sprintf(msg, args...)) }
func (l *badgerLogger) Debugf(msg string, args ...any)   { l.logger.Debug(fmt.Sprintf(msg, args...)) }

// Open opens (or creates) the store at path. With inMemory set, path is
// ignored and nothing touches disk — the mode the tests run in. Failure here
// is fatal for the run.
func Open(path string, inMemory bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureIndexes records the index manifest so lookups know which secondary
// keys exist. Safe to repeat across runs against the same destination: an
// existing manifest is left alone.
func (s *Store) EnsureIndexes() error {
	return s.db.Update(func(tx *badger.Txn) error {
		_, err := tx.Get(indexManifestKey())
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return fmt.Errorf("read index manifest: %w", err)
		}

		manifest, err := json.Marshal(indexManifest)
		if err != nil {
			return fmt.Errorf("marshal index manifest: %w", err)
		}
		if err := tx.Set(indexManifestKey(), manifest); err != nil {
			return fmt.Errorf("write index manifest: %w", err)
		}
		return nil
	})
}

// HasIndexes reports whether the index manifest is present.
func (s *Store) HasIndexes() (bool, error) {
	var found bool
	err := s.db.View(func(tx *badger.Txn) error {
		_, err := tx.Get(indexManifestKey())
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Get unmarshals the primary record of a kind into out. Returns false when
// the entity has no record of that kind.
func (s *Store) Get(kind Kind, entity string, out any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(primaryKey(kind, entity))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	return found, err
}

// Scan walks every primary record of a kind, invoking fn with the raw value.
// fn returning an error stops the scan.
func (s *Store) Scan(kind Kind, fn func(entity string, value []byte) error) error {
	prefix := kindPrefix(kind)
	return s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			entity := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				return fn(entity, val)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
