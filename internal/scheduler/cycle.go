package scheduler

import (
	"context"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
)

// RunCycle performs one inflate, burst, measure pass and reports it. Step
// shortfalls are part of the report; only a failure to read total memory is
// returned as an error.
func (s *Scheduler) RunCycle(ctx context.Context) (models.CycleReport, error) {
	s.cycles++
	report := models.CycleReport{
		Number:    s.cycles,
		PID:       s.pid,
		StartedAt: time.Now(),
	}

	s.logger.Info().Int("cycle", report.Number).Msg("========== Cycle started ==========")
	journalID := s.recordStart(report.StartedAt)

	totalMemory, err := s.deps.Probe.TotalMemory()
	if err != nil {
		s.recordEnd(journalID, models.CycleStatusFailed)
		return report, common.WrapError(err, "failed to read total system memory")
	}

	report.Memory = s.deps.Inflator.Inflate(s.cfg.MemoryTargetFraction(), totalMemory)
	s.logMemory(report.Memory)

	cores := s.deps.Probe.LogicalCores()
	if _, err := s.deps.Probe.SystemCPUPercent(); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to prime CPU usage counters")
	}
	report.CPU = s.deps.CPU.Burst(ctx, cores, s.cfg.CPUTargetFraction())
	if pct, err := s.deps.Probe.SystemCPUPercent(); err == nil {
		report.CPU.SystemCPUPercent = pct
	}
	s.logCPU(report.CPU)

	report.Throughput = s.deps.Throughput.Measure(ctx)
	s.logThroughput(report.Throughput)

	report.FinishedAt = time.Now()
	s.logSummary(report)

	if s.deps.Notifier != nil {
		s.deps.Notifier.NotifyCycle(ctx, report)
	}
	s.recordEnd(journalID, report.Status())

	return report, nil
}

func (s *Scheduler) recordStart(start time.Time) int64 {
	if s.deps.Journal == nil {
		return 0
	}
	id, err := s.deps.Journal.RecordCycleStart(start)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record cycle start")
		return 0
	}
	return id
}

func (s *Scheduler) recordEnd(id int64, status models.CycleStatus) {
	if s.deps.Journal == nil || id == 0 {
		return
	}
	if err := s.deps.Journal.UpdateCycleCompletion(id, time.Now(), status); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record cycle completion")
	}
}

// eventFor maps an outcome to a log severity
func (s *Scheduler) eventFor(outcome models.Outcome) *zerolog.Event {
	switch outcome {
	case models.OutcomeFailure:
		return s.logger.Error()
	case models.OutcomeWarning:
		return s.logger.Warn()
	default:
		return s.logger.Info()
	}
}

func (s *Scheduler) logMemory(res models.InflationResult) {
	event := s.eventFor(res.Outcome()).
		Str("status", string(res.Status)).
		Float64("achieved_mb", models.BytesToMiB(res.AchievedBytes)).
		Float64("target_mb", models.BytesToMiB(res.TargetBytes)).
		Float64("total_mb", models.BytesToMiB(res.TotalBytes)).
		Int("blocks", res.Blocks)
	if res.Err != nil {
		event = event.Err(res.Err)
	}

	switch res.Status {
	case models.InflationReached:
		event.Msg("Memory target reached")
	case models.InflationSafetyCeiling:
		event.Msg("Memory inflation stopped at safety ceiling")
	case models.InflationAllocationFailed:
		event.Msg("Memory inflation stopped: allocation refused")
	default:
		event.Msg("Memory inflation stopped: resident memory unavailable")
	}
}

func (s *Scheduler) logCPU(res models.BurstResult) {
	s.eventFor(res.Outcome()).
		Int("workers", res.WorkerCount).
		Int("cores", res.LogicalCores).
		Int("completed", res.Count(models.WorkerCompleted)).
		Int("terminated", res.Count(models.WorkerTerminated)).
		Int("failed", res.Count(models.WorkerFailed)).
		Float64("system_cpu_percent", res.SystemCPUPercent).
		Dur("duration", res.Duration).
		Msg("CPU burst finished")
}

func (s *Scheduler) logThroughput(res models.ThroughputResult) {
	switch {
	case res.Skipped:
		s.logger.Info().Msg("Throughput test disabled, skipping")
	case res.Failed():
		s.logger.Error().
			Str("kind", string(res.FailureKind)).
			Str("reason", res.Reason).
			Msg("Throughput test failed")
	default:
		s.logger.Info().
			Float64("download_mbps", res.DownloadMbps).
			Float64("upload_mbps", res.UploadMbps).
			Dur("latency", res.Latency).
			Str("server", res.Server).
			Msg("Throughput test finished")
	}
}

func (s *Scheduler) logSummary(report models.CycleReport) {
	s.eventFor(report.Outcome()).
		Int("cycle", report.Number).
		Str("memory", report.MemoryLine()).
		Str("cpu", report.CPULine()).
		Str("network", report.ThroughputLine()).
		Dur("duration", report.Duration()).
		Msg("========== Cycle finished ==========")
}
