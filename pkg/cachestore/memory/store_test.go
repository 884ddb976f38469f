package memory_test

import (
	"testing"

	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/cachestore/memory"
	"github.com/marmos91/offlinecache/pkg/cachestore/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) cachestore.Storage {
		s := memory.New()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
