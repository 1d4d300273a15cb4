// Package resource samples host and process resource figures from the
// operating system.
package resource

import (
	"os"
	"runtime"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is one reading of the figures a cycle is planned from
type Snapshot struct {
	TotalMemoryBytes     uint64
	AvailableMemoryBytes uint64
	SystemMemUsedPercent float64
	ResidentMemoryBytes  uint64
	LogicalCores         int
}

// Probe reads memory and core counts for the current process and host
type Probe struct {
	proc   *process.Process
	logger zerolog.Logger
}

// NewProbe creates a probe bound to the calling process
func NewProbe(logger zerolog.Logger) (*Probe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, common.WrapError(err, "failed to open current process")
	}
	return &Probe{
		proc:   proc,
		logger: logger.With().Str("module", "ResourceProbe").Logger(),
	}, nil
}

// ResidentMemory returns the resident set size of the current process
func (p *Probe) ResidentMemory() (uint64, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, common.WrapError(err, "failed to read process memory info")
	}
	return info.RSS, nil
}

// TotalMemory returns the host's total physical memory
func (p *Probe) TotalMemory() (uint64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, common.WrapError(err, "failed to get system memory stats")
	}
	return vmStat.Total, nil
}

// LogicalCores returns the number of logical CPUs. When the OS query fails
// the Go runtime's view is used instead.
func (p *Probe) LogicalCores() int {
	cores, err := cpu.Counts(true)
	if err != nil || cores <= 0 {
		fallback := runtime.NumCPU()
		p.logger.Debug().Err(err).Int("fallback", fallback).Msg("Logical core count unavailable from OS, using runtime value")
		return fallback
	}
	return cores
}

// SystemCPUPercent returns host-wide CPU utilisation since the previous call.
// The first call only primes the counters and may report 0.
func (p *Probe) SystemCPUPercent() (float64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, common.WrapError(err, "failed to get CPU usage")
	}
	if len(percents) == 0 {
		return 0, common.NewError("no CPU usage data available")
	}
	return percents[0], nil
}

// Snapshot reads every figure at once. Memory figures are required; a
// failure there is returned as an error.
func (p *Probe) Snapshot() (Snapshot, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, common.WrapError(err, "failed to get system memory stats")
	}

	rss, err := p.ResidentMemory()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		TotalMemoryBytes:     vmStat.Total,
		AvailableMemoryBytes: vmStat.Available,
		SystemMemUsedPercent: vmStat.UsedPercent,
		ResidentMemoryBytes:  rss,
		LogicalCores:         p.LogicalCores(),
	}, nil
}
