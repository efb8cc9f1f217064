package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type gauge struct {
	desc  *prometheus.Desc
	value func(*Stats) int64
}

// PrometheusCollector publishes a Registry as one gauge family per Stats field.
type PrometheusCollector struct {
	registry *Registry
	gauges   []gauge
}

var _ prometheus.Collector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a collector over r. namespace prefixes every
// metric name (e.g. "tilekit").
func NewPrometheusCollector(namespace string, r *Registry) *PrometheusCollector {
	labels := []string{"dataset_id", "dataset"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "tileset", name), help, labels, nil)
	}
	return &PrometheusCollector{
		registry: r,
		gauges: []gauge{
			{desc("native_reserved_bytes", "Native memory reserved by the tile set."), func(s *Stats) int64 { return s.NativeReservedBytes }},
			{desc("native_used_bytes", "Native memory occupied by live rows."), func(s *Stats) int64 { return s.NativeUsedBytes }},
			{desc("tiles_allocated", "Tile rows reserved."), func(s *Stats) int64 { return s.TilesAllocated }},
			{desc("tiles", "Tiles stored."), func(s *Stats) int64 { return s.TilesActual }},
			{desc("string_bytes_allocated", "String arena bytes reserved."), func(s *Stats) int64 { return s.StringsAllocated }},
			{desc("string_bytes", "String arena bytes used."), func(s *Stats) int64 { return s.StringsActual }},
			{desc("uris_allocated", "URI handles reserved."), func(s *Stats) int64 { return s.UrisAllocated }},
			{desc("uris", "URI handles in use."), func(s *Stats) int64 { return s.UrisActual }},
			{desc("warm_tiles", "Tiles in the warm set."), func(s *Stats) int64 { return s.WarmCount }},
			{desc("hot_tiles", "Tiles in the hot set."), func(s *Stats) int64 { return s.HotCount }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges {
		ch <- g.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.registry.Collect() {
		id := strconv.FormatUint(s.DataSetID, 10)
		name := s.Name()
		for _, g := range c.gauges {
			ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, float64(g.value(&s)), id, name)
		}
	}
}
