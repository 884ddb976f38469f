// Package storetest provides a conformance test suite for cachestore.Storage
// implementations.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    storetest.RunConformanceSuite(t, func(t *testing.T) cachestore.Storage {
//	        return memory.New()
//	    })
//	}
package storetest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/offlinecache/pkg/cachestore"
)

// StoreFactory creates a fresh Storage for each test. Stores that need a
// directory can use t.TempDir and register teardown with t.Cleanup.
type StoreFactory func(t *testing.T) cachestore.Storage

// RunConformanceSuite runs every behavioral check against the factory.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("Partitions", func(t *testing.T) { runPartitionTests(t, factory) })
	t.Run("Entries", func(t *testing.T) { runEntryTests(t, factory) })
	t.Run("Close", func(t *testing.T) { runCloseTests(t, factory) })
}

func response(status int, body string) *cachestore.Response {
	return &cachestore.Response{
		Status:   status,
		Header:   http.Header{"Content-Type": []string{"text/plain"}},
		Body:     []byte(body),
		StoredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func runPartitionTests(t *testing.T, factory StoreFactory) {
	t.Run("OpenCreates", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		p, err := s.Open(ctx, "offline-app-cache")
		require.NoError(t, err)
		assert.Equal(t, "offline-app-cache", p.Name())

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"offline-app-cache"}, names)
	})

	t.Run("OpenInvalidName", func(t *testing.T) {
		s := factory(t)
		_, err := s.Open(context.Background(), "")
		assert.ErrorIs(t, err, cachestore.ErrInvalidName)
	})

	t.Run("NamesSorted", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		for _, n := range []string{"c", "a", "b"} {
			_, err := s.Open(ctx, n)
			require.NoError(t, err)
		}
		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, names)
	})

	t.Run("DeleteRemovesEntries", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		key := cachestore.NewRequestKey("GET", "https://app.example/a.js")

		p, err := s.Open(ctx, "temp")
		require.NoError(t, err)
		require.NoError(t, p.Put(ctx, key, response(200, "a")))

		existed, err := s.Delete(ctx, "temp")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = s.Delete(ctx, "temp")
		require.NoError(t, err)
		assert.False(t, existed)

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		p, err = s.Open(ctx, "temp")
		require.NoError(t, err)
		_, err = p.Match(ctx, key)
		assert.ErrorIs(t, err, cachestore.ErrNotFound)
	})

	t.Run("DeleteIsolatesPrefixNames", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		key := cachestore.NewRequestKey("GET", "https://app.example/a.js")

		short, err := s.Open(ctx, "cache")
		require.NoError(t, err)
		long, err := s.Open(ctx, "cache-2")
		require.NoError(t, err)
		require.NoError(t, short.Put(ctx, key, response(200, "short")))
		require.NoError(t, long.Put(ctx, key, response(200, "long")))

		_, err = s.Delete(ctx, "cache")
		require.NoError(t, err)

		got, err := long.Match(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "long", string(got.Body))
	})

	t.Run("HandleSurvivesDelete", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		key := cachestore.NewRequestKey("GET", "https://app.example/a.js")

		p, err := s.Open(ctx, "temp")
		require.NoError(t, err)
		_, err = s.Delete(ctx, "temp")
		require.NoError(t, err)

		require.NoError(t, p.Put(ctx, key, response(200, "a")))
		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"temp"}, names)
	})

	t.Run("Healthcheck", func(t *testing.T) {
		s := factory(t)
		assert.NoError(t, s.Healthcheck(context.Background()))
	})
}

func runEntryTests(t *testing.T, factory StoreFactory) {
	t.Run("PutMatch", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		p, err := s.Open(ctx, "content")
		require.NoError(t, err)

		key := cachestore.NewRequestKey("get", "https://app.example/index.html")
		want := response(200, "<html>")
		require.NoError(t, p.Put(ctx, key, want))

		got, err := p.Match(ctx, cachestore.NewRequestKey("GET", "https://app.example/index.html"))
		require.NoError(t, err)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.Body, got.Body)
		assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
		assert.True(t, want.StoredAt.Equal(got.StoredAt))
	})

	t.Run("MatchMissing", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		p, err := s.Open(ctx, "content")
		require.NoError(t, err)

		_, err = p.Match(ctx, cachestore.NewRequestKey("GET", "https://app.example/none"))
		assert.ErrorIs(t, err, cachestore.ErrNotFound)
	})

	t.Run("MethodIsPartOfIdentity", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		p, err := s.Open(ctx, "content")
		require.NoError(t, err)

		require.NoError(t, p.Put(ctx, cachestore.NewRequestKey("GET", "https://app.example/a"), response(200, "a")))
		_, err = p.Match(ctx, cachestore.NewRequestKey("HEAD", "https://app.example/a"))
		assert.ErrorIs(t, err, cachestore.ErrNotFound)
	})

	t.Run("PutReplaces", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		p, err := s.Open(ctx, "content")
		require.NoError(t, err)
		key := cachestore.NewRequestKey("GET", "https://app.example/a.js")

		require.NoError(t, p.Put(ctx, key, response(200, "v1")))
		require.NoError(t, p.Put(ctx, key, response(200, "v2")))

		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(got.Body))

		keys, err := p.Keys(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("MatchReturnsCopy", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		p, err := s.Open(ctx, "content")
		require.NoError(t, err)
		key := cachestore.NewRequestKey("GET", "https://app.example/a.js")
		require.NoError(t, p.Put(ctx, key, response(200, "abc")))

		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		got.Body[0] = 'z'

		again, err := p.Match(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again.Body))
	})

	t.Run("DeleteEntry", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		p, err := s.Open(ctx, "content")
		require.NoError(t, err)
		key := cachestore.NewRequestKey("GET", "https://app.example/a.js")
		require.NoError(t, p.Put(ctx, key, response(200, "a")))

		existed, err := p.Delete(ctx, key)
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = p.Delete(ctx, key)
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("KeysSorted", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		p, err := s.Open(ctx, "content")
		require.NoError(t, err)

		for _, u := range []string{"https://app.example/b", "https://app.example/", "https://app.example/a"} {
			require.NoError(t, p.Put(ctx, cachestore.NewRequestKey("GET", u), response(200, u)))
		}
		keys, err := p.Keys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 3)
		assert.Equal(t, "https://app.example/", keys[0].URL)
		assert.Equal(t, "https://app.example/a", keys[1].URL)
		assert.Equal(t, "https://app.example/b", keys[2].URL)
		assert.Equal(t, "GET", keys[0].Method)
	})

	t.Run("PartitionsAreIsolated", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		a, err := s.Open(ctx, "a")
		require.NoError(t, err)
		b, err := s.Open(ctx, "b")
		require.NoError(t, err)
		key := cachestore.NewRequestKey("GET", "https://app.example/x")

		require.NoError(t, a.Put(ctx, key, response(200, "x")))
		_, err = b.Match(ctx, key)
		assert.ErrorIs(t, err, cachestore.ErrNotFound)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		s := factory(t)
		p, err := s.Open(context.Background(), "content")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = p.Match(ctx, cachestore.NewRequestKey("GET", "https://app.example/x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func runCloseTests(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := context.Background()
	p, err := s.Open(ctx, "content")
	require.NoError(t, err)

	require.NoError(t, s.Close())

	_, err = s.Open(ctx, "content")
	assert.ErrorIs(t, err, cachestore.ErrClosed)
	_, err = s.Names(ctx)
	assert.ErrorIs(t, err, cachestore.ErrClosed)
	_, err = p.Keys(ctx)
	assert.ErrorIs(t, err, cachestore.ErrClosed)
	assert.ErrorIs(t, s.Healthcheck(ctx), cachestore.ErrClosed)
}
