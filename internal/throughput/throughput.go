// Package throughput runs a network speed measurement and reports it as a
// typed result. No failure escapes as an error.
package throughput

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one whole measurement
const DefaultTimeout = 120 * time.Second

// Measurement is the raw output of a backend
type Measurement struct {
	DownloadBytesPerSec float64
	UploadBytesPerSec   float64
	Latency             time.Duration
	Server              string
}

// Backend performs one measurement. Failures to obtain the measurement
// configuration or server list are returned as *ConfigRetrievalError.
type Backend interface {
	Measure(ctx context.Context) (Measurement, error)
}

// ConfigRetrievalError means the backend could not fetch what it needs to
// pick a server
type ConfigRetrievalError struct {
	Stage string
	Err   error
}

func (e *ConfigRetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve %s: %v", e.Stage, e.Err)
}

func (e *ConfigRetrievalError) Unwrap() error {
	return e.Err
}

// Probe wraps a backend with a timeout and result classification
type Probe struct {
	backend Backend
	enabled bool
	timeout time.Duration
	logger  zerolog.Logger
}

// NewProbe creates a new Probe. A non-positive timeout falls back to DefaultTimeout.
func NewProbe(backend Backend, enabled bool, timeout time.Duration, logger zerolog.Logger) *Probe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Probe{
		backend: backend,
		enabled: enabled,
		timeout: timeout,
		logger:  logger.With().Str("module", "ThroughputProbe").Logger(),
	}
}

// Measure runs the backend bounded by the probe timeout
func (p *Probe) Measure(ctx context.Context) models.ThroughputResult {
	if !p.enabled {
		return models.ThroughputResult{Skipped: true}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		m   Measurement
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		m, err := p.backend.Measure(ctx)
		done <- outcome{m, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = common.WrapError(common.ErrTimeout, fmt.Sprintf("throughput test exceeded %s", p.timeout))
	}

	if out.err != nil {
		res := classify(out.err)
		res.Duration = time.Since(start)
		p.logger.Debug().Err(out.err).Str("kind", string(res.FailureKind)).Msg("Throughput test failed")
		return res
	}

	return models.ThroughputResult{
		DownloadMbps: models.BytesToMbps(out.m.DownloadBytesPerSec),
		UploadMbps:   models.BytesToMbps(out.m.UploadBytesPerSec),
		Latency:      out.m.Latency,
		Server:       out.m.Server,
		Duration:     time.Since(start),
	}
}

func classify(err error) models.ThroughputResult {
	kind := models.FailureNetwork
	var cfgErr *ConfigRetrievalError
	if errors.As(err, &cfgErr) {
		kind = models.FailureConfigRetrieval
	}
	return models.ThroughputResult{
		FailureKind: kind,
		Reason:      err.Error(),
		Err:         err,
	}
}
