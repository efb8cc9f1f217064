package telemetry

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	id    uint64
	name  string
	tiles int64
	warm  int64
}

func (f *fakeSource) Collect(s *Stats) {
	*s = Stats{}
	s.DataSetID = f.id
	s.SetName(f.name)
	s.TilesActual = f.tiles
	s.TilesAllocated = 64
	s.WarmCount = f.warm
}

func TestStats_SetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "buildings", "buildings"},
		{"empty", "", ""},
		{"exact", strings.Repeat("a", NameBudget), strings.Repeat("a", NameBudget)},
		{"truncated", strings.Repeat("b", NameBudget+10), strings.Repeat("b", NameBudget)},
		// 63 ASCII bytes followed by a 2-byte rune: the rune must not be split.
		{"utf8 boundary", strings.Repeat("c", NameBudget-1) + "ü", strings.Repeat("c", NameBudget-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Stats
			s.SetName("previous value that is longer")
			s.SetName(tt.in)
			assert.Equal(t, tt.want, s.Name())
			assert.LessOrEqual(t, len(s.Name()), NameBudget)
		})
	}
}

func TestRegistry_CollectAndTotals(t *testing.T) {
	r := NewRegistry()
	r.Register(2, &fakeSource{id: 2, name: "terrain", tiles: 10, warm: 3})
	r.Register(1, &fakeSource{id: 1, name: "buildings", tiles: 5, warm: 1})

	stats := r.Collect()
	require.Len(t, stats, 2)
	assert.Equal(t, uint64(1), stats[0].DataSetID)
	assert.Equal(t, "buildings", stats[0].Name())
	assert.Equal(t, uint64(2), stats[1].DataSetID)

	total := r.Totals()
	assert.Equal(t, "total", total.Name())
	assert.Equal(t, int64(15), total.TilesActual)
	assert.Equal(t, int64(128), total.TilesAllocated)
	assert.Equal(t, int64(4), total.WarmCount)

	assert.True(t, r.Unregister(2))
	assert.False(t, r.Unregister(2))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			r.Register(id, &fakeSource{id: id, tiles: 1})
			_ = r.Totals()
		}(uint64(i))
	}
	wg.Wait()

	assert.Equal(t, int64(8), r.Totals().TilesActual)
}

func TestPrometheusCollector(t *testing.T) {
	r := NewRegistry()
	r.Register(7, &fakeSource{id: 7, name: "points", tiles: 42, warm: 2})

	c := NewPrometheusCollector("tilekit", r)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 10, testutil.CollectAndCount(c))

	expected := `
# HELP tilekit_tileset_tiles Tiles stored.
# TYPE tilekit_tileset_tiles gauge
tilekit_tileset_tiles{dataset="points",dataset_id="7"} 42
# HELP tilekit_tileset_warm_tiles Tiles in the warm set.
# TYPE tilekit_tileset_warm_tiles gauge
tilekit_tileset_warm_tiles{dataset="points",dataset_id="7"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tilekit_tileset_tiles", "tilekit_tileset_warm_tiles"))
}
