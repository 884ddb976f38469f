package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	badgerstore "github.com/marmos91/offlinecache/pkg/cachestore/badger"
	"github.com/marmos91/offlinecache/pkg/metrics"
)

// BadgerStatsSource exposes Badger cache counters. Implemented by
// *badgerstore.Store.
type BadgerStatsSource interface {
	CacheStats() []badgerstore.CacheStats
}

// badgerCollector reads Badger's block and index cache counters at scrape
// time.
type badgerCollector struct {
	src      BadgerStatsSource
	hitRatio *prometheus.Desc
	hits     *prometheus.Desc
	misses   *prometheus.Desc
}

// RegisterBadgerMetrics registers a collector for src on the metrics
// registry. It does nothing when metrics are disabled.
func RegisterBadgerMetrics(src BadgerStatsSource) error {
	if !metrics.IsEnabled() || src == nil {
		return nil
	}
	return metrics.GetRegistry().Register(newBadgerCollector(src))
}

func newBadgerCollector(src BadgerStatsSource) *badgerCollector {
	labels := []string{"cache_type"} // "block", "index"
	return &badgerCollector{
		src: src,
		hitRatio: prometheus.NewDesc(
			"offlinecache_badger_cache_hit_ratio",
			"BadgerDB cache hit ratio (0.0 to 1.0) by cache type",
			labels, nil,
		),
		hits: prometheus.NewDesc(
			"offlinecache_badger_cache_hits_total",
			"Total number of BadgerDB cache hits by cache type",
			labels, nil,
		),
		misses: prometheus.NewDesc(
			"offlinecache_badger_cache_misses_total",
			"Total number of BadgerDB cache misses by cache type",
			labels, nil,
		),
	}
}

func (c *badgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hitRatio
	ch <- c.hits
	ch <- c.misses
}

func (c *badgerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.src.CacheStats() {
		ch <- prometheus.MustNewConstMetric(c.hitRatio, prometheus.GaugeValue, st.Ratio, st.Cache)
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.Hits), st.Cache)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.Misses), st.Cache)
	}
}
