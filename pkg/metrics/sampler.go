package metrics

import (
	"context"
	"log/slog"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"
)

// Sampler reads OS counters and writes them into the table. A failing
// subsystem is logged and skipped; the others still update.
type Sampler struct {
	table  *Table
	logger *slog.Logger
}

// NewSampler creates a sampler writing into table.
func NewSampler(table *Table, logger *slog.Logger) *Sampler {
	return &Sampler{table: table, logger: logger}
}

// Seed takes the startup sample that seeds relative metrics, so the
// first scheduled publish reflects a real interval rather than a
// delta from zero. Runs before dimensions are attached.
func (s *Sampler) Seed(ctx context.Context) {
	s.Sample(ctx)
}

// Sample reads all five subsystems into the table.
func (s *Sampler) Sample(ctx context.Context) {
	s.sampleCPU(ctx)
	s.sampleMemory(ctx)
	s.sampleDisk(ctx)
	s.sampleNetwork(ctx)
}

func (s *Sampler) sampleCPU(ctx context.Context) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(pct) == 0 {
		s.logger.Warn("cpu sample", "err", err)
	} else {
		s.table.Set(MetricCPUUtilization, pct[0])
	}

	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		s.logger.Warn("cpu count sample", "err", err)
		return
	}
	s.table.Set(MetricCPUCount, float64(count))
}

func (s *Sampler) sampleMemory(ctx context.Context) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		s.logger.Warn("memory sample", "err", err)
		return
	}
	s.table.Set(MetricMemUsed, float64(vm.Used))
	s.table.Set(MetricMemAvailable, float64(vm.Available))
	s.table.Set(MetricMemUsedPercent, vm.UsedPercent)
}

func (s *Sampler) sampleDisk(ctx context.Context) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		s.logger.Warn("disk sample", "err", err)
		return
	}
	var readBytes, writeBytes, readOps, writeOps float64
	for _, c := range counters {
		readBytes += float64(c.ReadBytes)
		writeBytes += float64(c.WriteBytes)
		readOps += float64(c.ReadCount)
		writeOps += float64(c.WriteCount)
	}
	s.table.Set(MetricDiskReadBytes, readBytes)
	s.table.Set(MetricDiskWriteBytes, writeBytes)
	s.table.Set(MetricDiskReadOps, readOps)
	s.table.Set(MetricDiskWriteOps, writeOps)
}

func (s *Sampler) sampleNetwork(ctx context.Context) {
	counters, err := gopsnet.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		s.logger.Warn("network sample", "err", err)
		return
	}
	total := counters[0]
	s.table.Set(MetricNetBytesRecv, float64(total.BytesRecv))
	s.table.Set(MetricNetBytesSent, float64(total.BytesSent))
	s.table.Set(MetricNetPacketsRecv, float64(total.PacketsRecv))
	s.table.Set(MetricNetPacketsSent, float64(total.PacketsSent))
}
