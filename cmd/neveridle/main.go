package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/config"
	"github.com/aleister1102/neveridle/internal/cpuload"
	"github.com/aleister1102/neveridle/internal/httpclient"
	"github.com/aleister1102/neveridle/internal/inflator"
	"github.com/aleister1102/neveridle/internal/logger"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/aleister1102/neveridle/internal/notifier"
	"github.com/aleister1102/neveridle/internal/resource"
	"github.com/aleister1102/neveridle/internal/scheduler"
	"github.com/aleister1102/neveridle/internal/throughput"
	"github.com/rs/zerolog"
)

// cycleRunner is the part of the scheduler the entry point drives
type cycleRunner interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) (models.CycleReport, error)
}

// schedulerBuilder returns the runner and a cleanup function
type schedulerBuilder func(cfg *config.Config, zLogger zerolog.Logger) (cycleRunner, func(), error)

// panicError carries a recovered panic and the stack it unwound from
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	return execute(context.Background(), args, os.Stderr, buildCycleRunner)
}

// execute runs the program and maps its end to an exit status: 0 on
// interrupt or after -once, 1 on a fatal error, 2 on bad flags.
func execute(parent context.Context, args []string, stderr io.Writer, build schedulerBuilder) int {
	flags, err := ParseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	// Worker mode: no config, no logger, nothing shared with the parent.
	if flags.CPUWorker {
		cpuload.RunWorker(cpuload.DefaultIterations)
		return 0
	}

	cfg, cfgErr := config.LoadConfig(flags.ConfigFile)

	appLogger, err := logger.New(cfg.LoggingSettings)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] Could not initialize logger: %v\n", err)
		return 1
	}
	defer appLogger.Close()
	zLogger := *appLogger.GetZerolog()

	if cfgErr != nil {
		event := zLogger.Warn().Err(cfgErr)
		if errors.Is(cfgErr, common.ErrConfigNotFound) {
			event.Msg("Configuration file not found, using defaults")
		} else {
			event.Msg("Configuration file could not be used, falling back to defaults")
		}
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runScheduler(ctx, cfg, flags, zLogger, build); err != nil {
		event := zLogger.WithLevel(zerolog.FatalLevel).Err(err)
		var pe *panicError
		if errors.As(err, &pe) {
			event = event.Str("stack", string(pe.stack))
		}
		event.Msg("NeverIdle stopped on a fatal error")
		return 1
	}

	zLogger.Info().Msg("NeverIdle shut down")
	return 0
}

func runScheduler(ctx context.Context, cfg *config.Config, flags AppFlags, zLogger zerolog.Logger, build schedulerBuilder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	runner, closeFn, err := build(cfg, zLogger)
	if err != nil {
		return err
	}
	defer closeFn()

	if flags.Once {
		_, err = runner.RunOnce(ctx)
		return err
	}
	return runner.Start(ctx)
}

// buildCycleRunner adapts buildScheduler to schedulerBuilder
func buildCycleRunner(cfg *config.Config, zLogger zerolog.Logger) (cycleRunner, func(), error) {
	sched, closeFn, err := buildScheduler(cfg, zLogger)
	if err != nil {
		return nil, nil, err
	}
	return sched, closeFn, nil
}

// buildScheduler wires every component from the configuration
func buildScheduler(cfg *config.Config, zLogger zerolog.Logger) (*scheduler.Scheduler, func(), error) {
	probe, err := resource.NewProbe(zLogger)
	if err != nil {
		return nil, nil, err
	}

	launcher, err := cpuload.NewExecLauncher()
	if err != nil {
		return nil, nil, err
	}

	speedtestClient, err := httpclient.NewHTTPClientBuilder(zLogger).
		WithTimeout(cfg.ThroughputTimeout()).
		Build()
	if err != nil {
		return nil, nil, err
	}

	deps := scheduler.Dependencies{
		Probe:    probe,
		Inflator: inflator.New(probe, zLogger),
		CPU:      cpuload.NewController(launcher, cfg.WorkerJoinTimeout(), zLogger),
		Throughput: throughput.NewProbe(
			throughput.NewSpeedtestBackend(speedtestClient.Client(), zLogger),
			cfg.ScriptSettings.ThroughputTestEnabled,
			cfg.ThroughputTimeout(),
			zLogger,
		),
	}

	if cfg.NotificationSettings.Enabled() {
		webhookClient, err := httpclient.NewHTTPClientBuilder(zLogger).
			WithRetry(httpclient.DefaultRetryHandlerConfig()).
			Build()
		if err != nil {
			return nil, nil, err
		}
		deps.Notifier = notifier.NewNotificationHelper(
			notifier.NewDiscordNotifier(zLogger, webhookClient),
			cfg.NotificationSettings,
			zLogger,
		)
	}

	closeFn := func() {}
	if path := cfg.SchedulerSettings.HistoryDBPath; path != "" {
		db, err := scheduler.NewDB(path, zLogger)
		if err != nil {
			zLogger.Warn().Err(err).Str("path", path).Msg("Cycle journal unavailable, continuing without it")
		} else {
			deps.Journal = db
			closeFn = func() {
				if err := db.Close(); err != nil {
					zLogger.Warn().Err(err).Msg("Failed to close cycle journal")
				}
			}
		}
	}

	sched, err := scheduler.NewScheduler(cfg, deps, zLogger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sched, closeFn, nil
}
