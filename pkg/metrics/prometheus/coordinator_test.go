package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerstore "github.com/marmos91/offlinecache/pkg/cachestore/badger"
	"github.com/marmos91/offlinecache/pkg/coordinator"
)

func TestCoordinatorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newCoordinatorMetrics(reg)

	m.ObserveFetch(string(coordinator.SourceCache), time.Millisecond)
	m.ObserveFetch(string(coordinator.SourceCache), 2*time.Millisecond)
	m.ObserveFetch(string(coordinator.SourceNetwork), 40*time.Millisecond)
	m.ObserveDeclined()
	m.ObservePhase(coordinator.PhaseInstall, true, time.Second)
	m.ObservePhase(coordinator.PhaseActivate, false, time.Second)
	m.ObserveReconcile(3, 2, 1)
	m.ObserveDownloaded(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.declined))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.phases.WithLabelValues("install", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.phases.WithLabelValues("activate", "false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconciled.WithLabelValues("retained")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconciled.WithLabelValues("evicted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciled.WithLabelValues("promoted")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.downloaded))
}

func TestCoordinatorMetrics_NilSafe(t *testing.T) {
	var m *coordinatorMetrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("hit", time.Millisecond)
		m.ObserveDeclined()
		m.ObservePhase("install", true, time.Second)
		m.ObserveReconcile(1, 1, 1)
		m.ObserveDownloaded(1)
	})
}

type fakeStats []badgerstore.CacheStats

func (f fakeStats) CacheStats() []badgerstore.CacheStats { return f }

func TestBadgerCollector(t *testing.T) {
	c := newBadgerCollector(fakeStats{
		{Cache: "block", Hits: 9, Misses: 1, Ratio: 0.9},
		{Cache: "index", Hits: 1, Misses: 3, Ratio: 0.25},
	})
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 6, testutil.CollectAndCount(c))
	n, err := testutil.GatherAndCount(reg, "offlinecache_badger_cache_hit_ratio")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
