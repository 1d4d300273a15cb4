// Package cpuload raises host CPU utilisation by running short-lived busy
// worker processes and joining them with a bounded wait.
package cpuload

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
)

// DefaultJoinTimeout bounds the wait for each worker
const DefaultJoinTimeout = 15 * time.Second

// Process is a started worker
type Process interface {
	Pid() int
	Wait() error
	Kill() error
}

// Launcher starts one worker process
type Launcher interface {
	Launch(ctx context.Context, index int) (Process, error)
}

// WorkerCount returns max(1, round-half-even(cores*fraction)) for a positive
// fraction and 0 otherwise.
func WorkerCount(cores int, fraction float64) int {
	if fraction <= 0 || cores <= 0 {
		return 0
	}
	n := int(math.RoundToEven(float64(cores) * fraction))
	if n < 1 {
		return 1
	}
	return n
}

// Controller fans workers out and joins them
type Controller struct {
	launcher    Launcher
	joinTimeout time.Duration
	logger      zerolog.Logger
}

// NewController creates a new Controller. A non-positive timeout falls back
// to DefaultJoinTimeout.
func NewController(launcher Launcher, joinTimeout time.Duration, logger zerolog.Logger) *Controller {
	if joinTimeout <= 0 {
		joinTimeout = DefaultJoinTimeout
	}
	return &Controller{
		launcher:    launcher,
		joinTimeout: joinTimeout,
		logger:      logger.With().Str("module", "CpuLoadWorkers").Logger(),
	}
}

type handle struct {
	outcome models.WorkerOutcome
	proc    Process
	started time.Time
	done    chan error
}

// Burst sizes the worker set from the core count and runs it
func (c *Controller) Burst(ctx context.Context, cores int, fraction float64) models.BurstResult {
	start := time.Now()
	count := WorkerCount(cores, fraction)

	result := models.BurstResult{
		LogicalCores:   cores,
		TargetFraction: fraction,
		WorkerCount:    count,
	}
	result.Workers = c.RunBurst(ctx, count)
	result.Duration = time.Since(start)
	return result
}

// RunBurst launches workerCount workers and joins each one. Every returned
// outcome is in a terminal state.
func (c *Controller) RunBurst(ctx context.Context, workerCount int) []models.WorkerOutcome {
	if workerCount <= 0 {
		return nil
	}

	handles := make([]*handle, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		handles = append(handles, c.launch(ctx, i))
	}

	c.logger.Debug().Int("workers", workerCount).Msg("CPU workers launched")

	outcomes := make([]models.WorkerOutcome, 0, len(handles))
	for _, h := range handles {
		if h.proc != nil {
			c.join(ctx, h)
		}
		outcomes = append(outcomes, h.outcome)
	}
	return outcomes
}

func (c *Controller) launch(ctx context.Context, index int) *handle {
	h := &handle{outcome: models.WorkerOutcome{Index: index}}

	proc, err := c.launcher.Launch(ctx, index)
	if err != nil {
		h.outcome.State = models.WorkerFailed
		h.outcome.Err = err
		c.logger.Warn().Err(err).Int("worker", index).Msg("Failed to start CPU worker")
		return h
	}

	h.proc = proc
	h.started = time.Now()
	h.done = make(chan error, 1)
	h.outcome.PID = proc.Pid()
	h.outcome.State = models.WorkerRunning

	go func() {
		h.done <- proc.Wait()
	}()
	return h
}

func (c *Controller) join(ctx context.Context, h *handle) {
	timer := time.NewTimer(c.joinTimeout)
	defer timer.Stop()

	select {
	case err := <-h.done:
		c.complete(h, err)
		return
	case <-timer.C:
	case <-ctx.Done():
	}

	h.outcome.State = models.WorkerTimedOut
	if err := h.proc.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			c.complete(h, <-h.done)
			return
		}
		c.logger.Error().Err(err).Int("pid", h.outcome.PID).Msg("Failed to kill CPU worker")
	}

	h.outcome.Err = <-h.done
	h.outcome.ExitCode = exitCode(h.outcome.Err)
	h.outcome.Duration = time.Since(h.started)
	h.outcome.State = models.WorkerTerminated

	c.logger.Warn().
		Int("pid", h.outcome.PID).
		Dur("timeout", c.joinTimeout).
		Msg("CPU worker did not finish in time and was terminated")
}

func (c *Controller) complete(h *handle, err error) {
	h.outcome.State = models.WorkerCompleted
	h.outcome.Err = err
	h.outcome.ExitCode = exitCode(err)
	h.outcome.Duration = time.Since(h.started)

	if err != nil {
		c.logger.Debug().Err(err).Int("pid", h.outcome.PID).Msg("CPU worker exited with error")
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
