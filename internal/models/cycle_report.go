package models

import (
	"fmt"
	"time"
)

// CycleStatus is the journal status of a cycle
type CycleStatus string

const (
	CycleStatusStarted   CycleStatus = "STARTED"
	CycleStatusCompleted CycleStatus = "COMPLETED"
	CycleStatusPartial   CycleStatus = "PARTIAL"
	CycleStatusFailed    CycleStatus = "FAILED"
)

// CycleReport gathers what one cycle did. It is emitted to the log and the
// optional webhook, never persisted.
type CycleReport struct {
	Number     int
	PID        int
	StartedAt  time.Time
	FinishedAt time.Time

	Memory     InflationResult
	CPU        BurstResult
	Throughput ThroughputResult
}

// Duration returns how long the cycle ran
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the worst outcome of the three steps
func (r CycleReport) Outcome() Outcome {
	return Worst(r.Memory.Outcome(), r.CPU.Outcome(), r.Throughput.Outcome())
}

// Status maps the outcome to the journal status
func (r CycleReport) Status() CycleStatus {
	if r.Outcome() == OutcomeSuccess {
		return CycleStatusCompleted
	}
	return CycleStatusPartial
}

// MemoryLine renders the memory section in one line
func (r CycleReport) MemoryLine() string {
	return fmt.Sprintf("%.1f MB of ~%.1f MB target (%s)",
		BytesToMiB(r.Memory.AchievedBytes), BytesToMiB(r.Memory.TargetBytes), r.Memory.Status)
}

// CPULine renders the CPU section in one line
func (r CycleReport) CPULine() string {
	if r.CPU.WorkerCount == 0 {
		return fmt.Sprintf("no extra CPU load (0 of %d cores)", r.CPU.LogicalCores)
	}
	return fmt.Sprintf("%d of %d cores loaded: %d completed, %d terminated, %d failed",
		r.CPU.WorkerCount, r.CPU.LogicalCores,
		r.CPU.Count(WorkerCompleted), r.CPU.Count(WorkerTerminated), r.CPU.Count(WorkerFailed))
}

// ThroughputLine renders the network section in one line
func (r CycleReport) ThroughputLine() string {
	switch {
	case r.Throughput.Skipped:
		return "throughput test disabled"
	case r.Throughput.Failed():
		return fmt.Sprintf("failed (%s): %s", r.Throughput.FailureKind, r.Throughput.Reason)
	default:
		return fmt.Sprintf("download %.1f Mbps, upload %.1f Mbps", r.Throughput.DownloadMbps, r.Throughput.UploadMbps)
	}
}

// BytesToMiB converts a byte count to mebibytes
func BytesToMiB(b uint64) float64 {
	return float64(b) / (1024 * 1024)
}
