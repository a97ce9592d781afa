// Package metrics samples OS counters into a fixed table and
// publishes snapshots of it.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/modoterra/watchpost/pkg/backend"
)

// Kind says how a raw sample becomes a report value.
type Kind string

const (
	// Absolute metrics report the latest raw sample as-is.
	Absolute Kind = "absolute"
	// Relative metrics report (new - last) / interval, a per-second
	// average rate since the previous sample.
	Relative Kind = "relative"
)

// Metric names. The catalog is fixed at table construction; only
// values mutate afterwards.
const (
	MetricCPUUtilization = "cpu_utilization"
	MetricCPUCount       = "cpu_count"
	MetricMemUsed        = "mem_used"
	MetricMemAvailable   = "mem_available"
	MetricMemUsedPercent = "mem_used_percent"
	MetricDiskReadBytes  = "disk_read_bytes"
	MetricDiskWriteBytes = "disk_write_bytes"
	MetricDiskReadOps    = "disk_read_ops"
	MetricDiskWriteOps   = "disk_write_ops"
	MetricNetBytesRecv   = "net_bytes_recv"
	MetricNetBytesSent   = "net_bytes_sent"
	MetricNetPacketsRecv = "net_packets_recv"
	MetricNetPacketsSent = "net_packets_sent"
)

type metric struct {
	unit   backend.Unit
	kind   Kind
	seeded bool
	last   float64
	report float64
}

type catalogEntry struct {
	name string
	unit backend.Unit
	kind Kind
}

var catalog = []catalogEntry{
	{MetricCPUUtilization, backend.UnitPercent, Absolute},
	{MetricCPUCount, backend.UnitCount, Absolute},
	{MetricMemUsed, backend.UnitBytes, Absolute},
	{MetricMemAvailable, backend.UnitBytes, Absolute},
	{MetricMemUsedPercent, backend.UnitPercent, Absolute},
	{MetricDiskReadBytes, backend.UnitBytesPerSecond, Relative},
	{MetricDiskWriteBytes, backend.UnitBytesPerSecond, Relative},
	{MetricDiskReadOps, backend.UnitCountPerSecond, Relative},
	{MetricDiskWriteOps, backend.UnitCountPerSecond, Relative},
	{MetricNetBytesRecv, backend.UnitBytesPerSecond, Relative},
	{MetricNetBytesSent, backend.UnitBytesPerSecond, Relative},
	{MetricNetPacketsRecv, backend.UnitCountPerSecond, Relative},
	{MetricNetPacketsSent, backend.UnitCountPerSecond, Relative},
}

// Table holds current raw and derived values for the fixed metric set.
type Table struct {
	mu         sync.Mutex
	metrics    map[string]*metric
	interval   float64 // seconds between scheduled samples
	dimensions map[string]string
}

// NewTable builds the fixed catalog for the given sampling interval.
func NewTable(interval time.Duration) *Table {
	t := &Table{
		metrics:  make(map[string]*metric, len(catalog)),
		interval: interval.Seconds(),
	}
	for _, e := range catalog {
		t.metrics[e.name] = &metric{unit: e.unit, kind: e.kind}
	}
	return t
}

// SetDimensions attaches the fixed dimensions carried by every datum.
// Called once at startup, after the seed sample.
func (t *Table) SetDimensions(dims map[string]string) {
	t.mu.Lock()
	t.dimensions = dims
	t.mu.Unlock()
}

// Set records a raw sample. Absolute metrics report the raw value
// directly; relative metrics report the per-second delta and remember
// the raw value for the next sample. The first sample of a relative
// metric only seeds it.
func (t *Table) Set(name string, raw float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.metrics[name]
	if !ok {
		return fmt.Errorf("unknown metric %q", name)
	}

	switch m.kind {
	case Absolute:
		m.report = raw
	case Relative:
		if m.seeded && t.interval > 0 {
			m.report = (raw - m.last) / t.interval
		}
		m.last = raw
		m.seeded = true
	}
	return nil
}

// Snapshot returns the current report values as publishable data, in
// catalog order, each carrying the fixed dimensions.
func (t *Table) Snapshot() []backend.Datum {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := make([]backend.Datum, 0, len(catalog))
	for _, e := range catalog {
		m := t.metrics[e.name]
		data = append(data, backend.Datum{
			Name:       e.name,
			Unit:       m.unit,
			Value:      m.report,
			Dimensions: t.dimensions,
		})
	}
	return data
}
