// Package badger implements cachestore.Storage on BadgerDB, so partitions
// survive daemon restarts.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/cachestore"
)

// Key namespace:
//
//	"n:<partition>"                 partition marker (empty value)
//	"e:<partition>\x00<METHOD URL>" entry (JSON-encoded cachestore.Response)
//
// Partition names may not contain NUL, so an entry prefix never matches a
// different partition.
const (
	prefixName  = "n:"
	prefixEntry = "e:"
)

func keyName(name string) []byte {
	return []byte(prefixName + name)
}

func keyEntryPrefix(name string) []byte {
	return []byte(prefixEntry + name + "\x00")
}

func keyEntry(name string, key cachestore.RequestKey) []byte {
	return append(keyEntryPrefix(name), key.String()...)
}

// Config configures the BadgerDB store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory (tests, ephemeral daemons).
	InMemory bool

	// BlockCacheSize overrides Badger's block cache size in bytes when > 0.
	BlockCacheSize int64
}

// Store is a BadgerDB-backed cachestore.Storage.
type Store struct {
	db        *badgerdb.DB
	closeOnce sync.Once
	closed    chan struct{}
}

var _ cachestore.Storage = (*Store)(nil)

// New opens (or creates) the database described by cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger store: path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badgerdb.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{})
	if cfg.BlockCacheSize > 0 {
		opts = opts.WithBlockCacheSize(cfg.BlockCacheSize)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug("badger cache store opened", logger.KeyPath, cfg.Path, "in_memory", cfg.InMemory)
	return &Store{db: db, closed: make(chan struct{})}, nil
}

// CacheStats is a snapshot of one of Badger's internal caches.
type CacheStats struct {
	Cache  string
	Hits   uint64
	Misses uint64
	Ratio  float64
}

// CacheStats reports the block and index cache counters. Caches that are
// disabled report zeros.
func (s *Store) CacheStats() []CacheStats {
	block, index := s.db.BlockCacheMetrics(), s.db.IndexCacheMetrics()
	return []CacheStats{
		{Cache: "block", Hits: block.Hits(), Misses: block.Misses(), Ratio: block.Ratio()},
		{Cache: "index", Hits: index.Hits(), Misses: index.Misses(), Ratio: index.Ratio()},
	}
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.closed:
		return cachestore.ErrClosed
	default:
		return nil
	}
}

func (s *Store) Open(ctx context.Context, name string) (cachestore.Partition, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := cachestore.ValidateName(name); err != nil {
		return nil, err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyName(name), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open partition %q: %w", name, err)
	}
	return &partition{store: s, name: name}, nil
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}

	var existed bool
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(keyName(name))
		switch {
		case errors.Is(err, badgerdb.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		}
		existed = true
		return txn.Delete(keyName(name))
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete partition %q: %w", name, err)
	}

	if err := s.db.DropPrefix(keyEntryPrefix(name)); err != nil {
		return existed, fmt.Errorf("failed to drop entries of partition %q: %w", name, err)
	}
	return existed, nil
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var names []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		prefix := []byte(prefixName)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}
	return names, nil
}

// Healthcheck starts a read transaction to verify the database is reachable.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.db.Close()
	})
	return err
}

type partition struct {
	store *Store
	name  string
}

func (p *partition) Name() string { return p.name }

func (p *partition) Match(ctx context.Context, key cachestore.RequestKey) (*cachestore.Response, error) {
	if err := p.store.check(ctx); err != nil {
		return nil, err
	}

	var resp cachestore.Response
	err := p.store.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyEntry(p.name, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &resp)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, cachestore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %q: %w", key, p.name, err)
	}
	return &resp, nil
}

func (p *partition) Put(ctx context.Context, key cachestore.RequestKey, resp *cachestore.Response) error {
	if err := p.store.check(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	err = p.store.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(keyName(p.name), nil); err != nil {
			return err
		}
		return txn.Set(keyEntry(p.name, key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s to %q: %w", key, p.name, err)
	}
	return nil
}

func (p *partition) Delete(ctx context.Context, key cachestore.RequestKey) (bool, error) {
	if err := p.store.check(ctx); err != nil {
		return false, err
	}

	var existed bool
	err := p.store.db.Update(func(txn *badgerdb.Txn) error {
		k := keyEntry(p.name, key)
		_, err := txn.Get(k)
		switch {
		case errors.Is(err, badgerdb.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		}
		existed = true
		return txn.Delete(k)
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete %s from %q: %w", key, p.name, err)
	}
	return existed, nil
}

func (p *partition) Keys(ctx context.Context) ([]cachestore.RequestKey, error) {
	if err := p.store.check(ctx); err != nil {
		return nil, err
	}

	var keys []cachestore.RequestKey
	err := p.store.db.View(func(txn *badgerdb.Txn) error {
		prefix := keyEntryPrefix(p.name)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			k, err := cachestore.ParseRequestKey(string(it.Item().Key()[len(prefix):]))
			if err != nil {
				return err
			}
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys of %q: %w", p.name, err)
	}
	return keys, nil
}
