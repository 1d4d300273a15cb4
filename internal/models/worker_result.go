package models

import "time"

// WorkerState is the lifecycle state of a CPU worker process
type WorkerState string

const (
	WorkerRunning    WorkerState = "RUNNING"
	WorkerCompleted  WorkerState = "COMPLETED"
	WorkerTimedOut   WorkerState = "TIMED_OUT"
	WorkerTerminated WorkerState = "TERMINATED"
	// WorkerFailed marks a worker whose process could not be started
	WorkerFailed WorkerState = "FAILED"
)

// Terminal reports whether no further transition can happen
func (s WorkerState) Terminal() bool {
	return s == WorkerCompleted || s == WorkerTerminated || s == WorkerFailed
}

// WorkerOutcome is the final record of one worker
type WorkerOutcome struct {
	Index    int
	PID      int
	State    WorkerState
	Duration time.Duration
	ExitCode int
	Err      error
}

// BurstResult collects the outcomes of one CPU burst
type BurstResult struct {
	LogicalCores   int
	TargetFraction float64
	WorkerCount    int
	Workers        []WorkerOutcome
	Duration       time.Duration
	// SystemCPUPercent is the host utilisation observed across the burst, when available.
	SystemCPUPercent float64
}

// Count returns how many workers ended in the given state
func (b BurstResult) Count(state WorkerState) int {
	n := 0
	for _, w := range b.Workers {
		if w.State == state {
			n++
		}
	}
	return n
}

// Outcome grades the burst: any terminated or failed worker is a warning
func (b BurstResult) Outcome() Outcome {
	if b.Count(WorkerTerminated) > 0 || b.Count(WorkerFailed) > 0 {
		return OutcomeWarning
	}
	return OutcomeSuccess
}
