// Package scheduler runs the NeverIdle cycle: inflate memory, burn CPU,
// measure throughput, report, sleep.
package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/config"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/aleister1102/neveridle/internal/resource"
	"github.com/rs/zerolog"
)

// ResourceProbe reads the host figures a cycle is planned from
type ResourceProbe interface {
	TotalMemory() (uint64, error)
	LogicalCores() int
	SystemCPUPercent() (float64, error)
	Snapshot() (resource.Snapshot, error)
}

// MemoryInflator holds memory blocks between cycles
type MemoryInflator interface {
	Inflate(targetFraction float64, totalBytes uint64) models.InflationResult
	Release() int
}

// CPUBurster runs one CPU worker burst
type CPUBurster interface {
	Burst(ctx context.Context, cores int, fraction float64) models.BurstResult
}

// ThroughputMeasurer runs one network measurement
type ThroughputMeasurer interface {
	Measure(ctx context.Context) models.ThroughputResult
}

// CycleNotifier publishes a finished cycle
type CycleNotifier interface {
	NotifyCycle(ctx context.Context, report models.CycleReport)
}

// CycleJournal records cycle timing across restarts
type CycleJournal interface {
	RecordCycleStart(startTime time.Time) (int64, error)
	UpdateCycleCompletion(id int64, endTime time.Time, status models.CycleStatus) error
	GetLastCycleTime() (*time.Time, error)
	RecentCycles(limit int) ([]CycleHistoryEntry, error)
}

// recentCycleLimit is how many journal entries are logged at start
const recentCycleLimit = 5

// Dependencies are the collaborators of a Scheduler. Notifier and Journal are optional.
type Dependencies struct {
	Probe      ResourceProbe
	Inflator   MemoryInflator
	CPU        CPUBurster
	Throughput ThroughputMeasurer
	Notifier   CycleNotifier
	Journal    CycleJournal
}

// Scheduler drives cycles until its context is cancelled
type Scheduler struct {
	cfg    *config.Config
	deps   Dependencies
	logger zerolog.Logger
	pid    int
	cycles int

	isRunning bool
	mu        sync.Mutex
}

// NewScheduler creates a new Scheduler instance
func NewScheduler(cfg *config.Config, deps Dependencies, logger zerolog.Logger) (*Scheduler, error) {
	if cfg == nil {
		return nil, common.WrapError(common.ErrInvalidConfiguration, "scheduler requires a configuration")
	}
	if deps.Probe == nil || deps.Inflator == nil || deps.CPU == nil || deps.Throughput == nil {
		return nil, common.NewError("scheduler requires probe, inflator, CPU and throughput components")
	}

	return &Scheduler{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("module", "Scheduler").Logger(),
		pid:    os.Getpid(),
	}, nil
}

// Start logs the effective configuration and runs cycles until ctx is
// cancelled. Cancellation is observed during the sleep and before each cycle;
// a running cycle always completes. It returns nil on cancellation and the
// error of a cycle that could not run.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	s.logStartup()
	s.logRecentCycles()

	if !s.sleep(ctx, s.initialDelay()) {
		return nil
	}

	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Stop requested, leaving scheduler loop")
			return nil
		}

		if _, err := s.RunCycle(context.WithoutCancel(ctx)); err != nil {
			return err
		}

		interval := s.cfg.Interval()
		s.logger.Info().
			Time("next_run", time.Now().Add(interval)).
			Dur("interval", interval).
			Msg("Sleeping until next cycle")

		if !s.sleep(ctx, interval) {
			s.logger.Info().Msg("Stop requested during sleep, leaving scheduler loop")
			return nil
		}
	}
}

// RunOnce logs the effective configuration and runs exactly one cycle
func (s *Scheduler) RunOnce(ctx context.Context) (models.CycleReport, error) {
	if err := s.begin(); err != nil {
		return models.CycleReport{}, err
	}
	defer s.end()

	s.logStartup()
	return s.RunCycle(context.WithoutCancel(ctx))
}

func (s *Scheduler) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return common.NewError("scheduler is already running")
	}
	s.isRunning = true
	return nil
}

// end releases the held memory so shutdown does not keep it resident
func (s *Scheduler) end() {
	if n := s.deps.Inflator.Release(); n > 0 {
		s.logger.Debug().Int("blocks", n).Msg("Released memory blocks on exit")
	}
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

func (s *Scheduler) logStartup() {
	event := s.logger.Info().
		Int("pid", s.pid).
		Int("cpu_target_percent", s.cfg.ScriptSettings.CPUUsageTargetPercent).
		Int("memory_target_percent", s.cfg.ScriptSettings.MemoryUsageTargetPercent).
		Dur("interval", s.cfg.Interval()).
		Bool("throughput_test", s.cfg.ScriptSettings.ThroughputTestEnabled).
		Str("config_source", s.cfg.Source)

	snap, err := s.deps.Probe.Snapshot()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read host resources at startup")
	} else {
		event = event.
			Float64("host_total_mb", models.BytesToMiB(snap.TotalMemoryBytes)).
			Float64("host_available_mb", models.BytesToMiB(snap.AvailableMemoryBytes)).
			Float64("resident_mb", models.BytesToMiB(snap.ResidentMemoryBytes)).
			Int("logical_cores", snap.LogicalCores)
	}
	event.Msg("NeverIdle started")
}

// logRecentCycles shows what the journal remembers from earlier runs
func (s *Scheduler) logRecentCycles() {
	if s.deps.Journal == nil {
		return
	}
	entries, err := s.deps.Journal.RecentCycles(recentCycleLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read cycle journal")
		return
	}
	if len(entries) == 0 {
		s.logger.Info().Msg("Cycle journal is empty")
		return
	}

	for _, e := range entries {
		event := s.logger.Debug().
			Int64("db_id", e.ID).
			Time("started", e.StartTime).
			Str("status", string(e.Status)).
			Int("pid", e.ProcessPID)
		if e.EndTime.Valid {
			event = event.Time("ended", e.EndTime.Time)
		}
		event.Msg("Journal entry")
	}
	s.logger.Info().
		Int("entries", len(entries)).
		Time("last_started", entries[0].StartTime).
		Str("last_status", string(entries[0].Status)).
		Msg("Recent cycles loaded from journal")
}

// initialDelay honours the journal so a restart does not run a cycle early
func (s *Scheduler) initialDelay() time.Duration {
	if s.deps.Journal == nil {
		return 0
	}
	last, err := s.deps.Journal.GetLastCycleTime()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read last cycle time, starting immediately")
		return 0
	}
	if last == nil {
		return 0
	}

	next := last.Add(s.cfg.Interval())
	delay := time.Until(next)
	if delay <= 0 {
		return 0
	}
	s.logger.Info().Time("last_cycle", *last).Time("next_run", next).Msg("Previous cycle found, delaying first cycle")
	return delay
}

// sleep waits for d and reports false if ctx was cancelled first
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
