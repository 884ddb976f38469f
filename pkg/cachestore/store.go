// Package cachestore defines named response caches (partitions) keyed by
// request identity, and the storage that owns them.
//
// Implementations live in sub-packages: memory (process-local) and badger
// (durable, survives restarts). Both must pass the storetest conformance
// suite.
package cachestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Partition.Match when no entry exists for a key.
	ErrNotFound = errors.New("cache entry not found")

	// ErrClosed is returned by every operation after Storage.Close.
	ErrClosed = errors.New("cache storage closed")

	// ErrInvalidName is returned when a partition name cannot be stored.
	ErrInvalidName = errors.New("invalid partition name")
)

// RequestKey identifies a cached request: method plus absolute URL.
type RequestKey struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// NewRequestKey builds a key, upper-casing the method and defaulting it to GET.
func NewRequestKey(method, url string) RequestKey {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "GET"
	}
	return RequestKey{Method: method, URL: url}
}

// String returns "METHOD URL".
func (k RequestKey) String() string {
	return k.Method + " " + k.URL
}

// ParseRequestKey is the inverse of RequestKey.String.
func ParseRequestKey(s string) (RequestKey, error) {
	method, url, ok := strings.Cut(s, " ")
	if !ok || method == "" || url == "" {
		return RequestKey{}, fmt.Errorf("malformed request key %q", s)
	}
	return RequestKey{Method: method, URL: url}, nil
}

// Partition is a named cache of request to response entries.
//
// A Partition handle stays valid after its storage deletes the partition;
// a later Put re-creates it.
type Partition interface {
	// Name returns the partition name.
	Name() string

	// Match returns a copy of the response stored for key, or ErrNotFound.
	Match(ctx context.Context, key RequestKey) (*Response, error)

	// Put stores resp under key, replacing any existing entry.
	Put(ctx context.Context, key RequestKey, resp *Response) error

	// Delete removes the entry for key and reports whether one existed.
	Delete(ctx context.Context, key RequestKey) (bool, error)

	// Keys lists every stored request key in lexical order of RequestKey.String.
	Keys(ctx context.Context) ([]RequestKey, error)
}

// Storage owns a set of partitions, addressed by name.
type Storage interface {
	// Open returns the named partition, creating it if needed.
	Open(ctx context.Context, name string) (Partition, error)

	// Delete removes a partition and all its entries. It reports whether
	// the partition existed.
	Delete(ctx context.Context, name string) (bool, error)

	// Names lists existing partitions in lexical order.
	Names(ctx context.Context) ([]string, error)

	// Healthcheck verifies the storage can serve requests.
	Healthcheck(ctx context.Context) error

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// ValidateName rejects names that no backend can address.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	}
	return nil
}
