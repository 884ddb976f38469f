// Package memory implements cachestore.Storage in process memory.
// Contents are lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marmos91/offlinecache/pkg/cachestore"
)

// Store is an in-memory cachestore.Storage. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	partitions map[string]map[string]entry
	closed     bool
}

type entry struct {
	key  cachestore.RequestKey
	resp *cachestore.Response
}

var _ cachestore.Storage = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{partitions: make(map[string]map[string]entry)}
}

func (s *Store) Open(ctx context.Context, name string) (cachestore.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cachestore.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, cachestore.ErrClosed
	}
	if _, ok := s.partitions[name]; !ok {
		s.partitions[name] = make(map[string]entry)
	}
	return &partition{store: s, name: name}, nil
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, cachestore.ErrClosed
	}
	_, ok := s.partitions[name]
	delete(s.partitions, name)
	return ok, nil
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, cachestore.ErrClosed
	}
	names := make([]string, 0, len(s.partitions))
	for name := range s.partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return cachestore.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.partitions = nil
	return nil
}

// partition resolves its bucket by name on every call, so a handle survives
// the partition being deleted and re-created.
type partition struct {
	store *Store
	name  string
}

func (p *partition) Name() string { return p.name }

func (p *partition) Match(ctx context.Context, key cachestore.RequestKey) (*cachestore.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	if p.store.closed {
		return nil, cachestore.ErrClosed
	}
	e, ok := p.store.partitions[p.name][key.String()]
	if !ok {
		return nil, cachestore.ErrNotFound
	}
	return e.resp.Clone(), nil
}

func (p *partition) Put(ctx context.Context, key cachestore.RequestKey, resp *cachestore.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	if p.store.closed {
		return cachestore.ErrClosed
	}
	bucket, ok := p.store.partitions[p.name]
	if !ok {
		bucket = make(map[string]entry)
		p.store.partitions[p.name] = bucket
	}
	bucket[key.String()] = entry{key: key, resp: resp.Clone()}
	return nil
}

func (p *partition) Delete(ctx context.Context, key cachestore.RequestKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	if p.store.closed {
		return false, cachestore.ErrClosed
	}
	bucket := p.store.partitions[p.name]
	_, ok := bucket[key.String()]
	delete(bucket, key.String())
	return ok, nil
}

func (p *partition) Keys(ctx context.Context) ([]cachestore.RequestKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	if p.store.closed {
		return nil, cachestore.ErrClosed
	}
	bucket := p.store.partitions[p.name]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	keys := make([]cachestore.RequestKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, bucket[id].key)
	}
	return keys, nil
}
