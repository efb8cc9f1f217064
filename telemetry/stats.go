// Package telemetry exposes per-store capacity and usage snapshots.
//
// A store fills a Stats value once per update cycle through Collect. A Registry
// aggregates many stores; PrometheusCollector publishes a Registry as gauges.
package telemetry

import "unicode/utf8"

// NameBudget is the fixed byte budget of Stats.DataSetName.
const NameBudget = 64

// Stats is a fixed-size snapshot of one store.
// It holds no pointers so it can be copied into native buffers.
type Stats struct {
	DataSetID   uint64
	DataSetName [NameBudget]byte
	nameLen     uint8

	// NativeReservedBytes is memory reserved across all columns.
	NativeReservedBytes int64
	// NativeUsedBytes is memory occupied by live rows.
	NativeUsedBytes int64

	TilesAllocated int64
	TilesActual    int64

	// StringsAllocated and StringsActual count string-arena text bytes.
	StringsAllocated int64
	StringsActual    int64

	// UrisAllocated and UrisActual count string handles.
	UrisAllocated int64
	UrisActual    int64

	WarmCount int64
	HotCount  int64
}

// SetName stores name, truncated to NameBudget bytes without splitting a
// UTF-8 sequence.
func (s *Stats) SetName(name string) {
	if len(name) > NameBudget {
		cut := NameBudget
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	s.DataSetName = [NameBudget]byte{}
	n := copy(s.DataSetName[:], name)
	s.nameLen = uint8(n) //nolint:gosec // n <= NameBudget
}

// Name returns the stored dataset name.
func (s *Stats) Name() string { return string(s.DataSetName[:s.nameLen]) }

// Add accumulates o into s. Identity fields are left untouched.
func (s *Stats) Add(o Stats) {
	s.NativeReservedBytes += o.NativeReservedBytes
	s.NativeUsedBytes += o.NativeUsedBytes
	s.TilesAllocated += o.TilesAllocated
	s.TilesActual += o.TilesActual
	s.StringsAllocated += o.StringsAllocated
	s.StringsActual += o.StringsActual
	s.UrisAllocated += o.UrisAllocated
	s.UrisActual += o.UrisActual
	s.WarmCount += o.WarmCount
	s.HotCount += o.HotCount
}

// Source is implemented by stores that report telemetry.
type Source interface {
	Collect(*Stats)
}
