package throughput

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
	"github.com/showwin/speedtest-go/speedtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFunc func(ctx context.Context) (Measurement, error)

func (f backendFunc) Measure(ctx context.Context) (Measurement, error) { return f(ctx) }

func TestProbeMeasureSuccess(t *testing.T) {
	backend := backendFunc(func(context.Context) (Measurement, error) {
		return Measurement{
			DownloadBytesPerSec: 12_500_000,
			UploadBytesPerSec:   2_500_000,
			Latency:             15 * time.Millisecond,
			Server:              "Example ISP (Hanoi)",
		}, nil
	})
	p := NewProbe(backend, true, time.Second, zerolog.Nop())

	res := p.Measure(context.Background())

	assert.False(t, res.Failed())
	assert.InDelta(t, 100.0, res.DownloadMbps, 1e-9)
	assert.InDelta(t, 20.0, res.UploadMbps, 1e-9)
	assert.Equal(t, 15*time.Millisecond, res.Latency)
	assert.Equal(t, "Example ISP (Hanoi)", res.Server)
	assert.Equal(t, models.OutcomeSuccess, res.Outcome())
}

func TestProbeMeasureConfigRetrievalFailure(t *testing.T) {
	cause := errors.New("HTTP 403 Forbidden")
	backend := backendFunc(func(context.Context) (Measurement, error) {
		return Measurement{}, &ConfigRetrievalError{Stage: "server list", Err: cause}
	})
	p := NewProbe(backend, true, time.Second, zerolog.Nop())

	res := p.Measure(context.Background())

	require.True(t, res.Failed())
	assert.Equal(t, models.FailureConfigRetrieval, res.FailureKind)
	assert.Equal(t, "failed to retrieve server list: HTTP 403 Forbidden", res.Reason)
	assert.ErrorIs(t, res.Err, cause)
}

func TestProbeMeasureNetworkFailure(t *testing.T) {
	backend := backendFunc(func(context.Context) (Measurement, error) {
		return Measurement{}, errors.New("upload test failed: connection reset")
	})
	p := NewProbe(backend, true, time.Second, zerolog.Nop())

	res := p.Measure(context.Background())

	assert.Equal(t, models.FailureNetwork, res.FailureKind)
	assert.Contains(t, res.Reason, "connection reset")
	assert.Equal(t, models.OutcomeFailure, res.Outcome())
}

func TestProbeMeasureTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	backend := backendFunc(func(context.Context) (Measurement, error) {
		<-release
		return Measurement{}, nil
	})
	p := NewProbe(backend, true, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	res := p.Measure(context.Background())

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, models.FailureNetwork, res.FailureKind)
	assert.ErrorIs(t, res.Err, common.ErrTimeout)
}

func TestProbeDisabled(t *testing.T) {
	called := false
	backend := backendFunc(func(context.Context) (Measurement, error) {
		called = true
		return Measurement{}, nil
	})
	p := NewProbe(backend, false, time.Second, zerolog.Nop())

	res := p.Measure(context.Background())

	assert.True(t, res.Skipped)
	assert.False(t, res.Failed())
	assert.False(t, called)
}

func TestNewProbeDefaultTimeout(t *testing.T) {
	p := NewProbe(backendFunc(nil), true, 0, zerolog.Nop())
	assert.Equal(t, DefaultTimeout, p.timeout)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network unreachable")
}

func TestSpeedtestBackendConfigRetrievalFailure(t *testing.T) {
	backend := NewSpeedtestBackend(&http.Client{Transport: failingTransport{}}, zerolog.Nop())

	_, err := backend.Measure(context.Background())

	var cfgErr *ConfigRetrievalError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "client configuration", cfgErr.Stage)
}

func TestCheckTransfer(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		wantErr bool
	}{
		{"no request succeeded", -1, true},
		{"nothing transferred", 0, true},
		{"real rate", 1_250_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTransfer("speed.example.net:8080", "download", tt.rate)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrNetworkFailure)
			assert.Contains(t, err.Error(), "download test produced no data")
		})
	}
}

func TestProbeUnreachableServerIsNetworkFailure(t *testing.T) {
	server, err := speedtest.New().CustomServer("http://127.0.0.1:1")
	require.NoError(t, err)

	backend := backendFunc(func(ctx context.Context) (Measurement, error) {
		return measureServer(ctx, server)
	})
	p := NewProbe(backend, true, 90*time.Second, zerolog.Nop())

	res := p.Measure(context.Background())

	require.True(t, res.Failed(), "unreachable server must not produce a measurement")
	assert.Equal(t, models.FailureNetwork, res.FailureKind)
	assert.ErrorIs(t, res.Err, common.ErrNetworkFailure)
	assert.Equal(t, models.OutcomeFailure, res.Outcome())
	assert.Zero(t, res.DownloadMbps)
	assert.Zero(t, res.UploadMbps)
}
