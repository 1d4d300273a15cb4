package throughput

import (
	"context"
	"net/http"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/rs/zerolog"
	"github.com/showwin/speedtest-go/speedtest"
)

// SpeedtestBackend measures against the nearest speedtest.net server
type SpeedtestBackend struct {
	client *http.Client
	logger zerolog.Logger
}

// NewSpeedtestBackend creates a backend that sends all traffic through client
func NewSpeedtestBackend(client *http.Client, logger zerolog.Logger) *SpeedtestBackend {
	return &SpeedtestBackend{
		client: client,
		logger: logger.With().Str("module", "Speedtest").Logger(),
	}
}

// Measure fetches the client configuration and server list, picks the best
// server, then pings, downloads and uploads.
func (b *SpeedtestBackend) Measure(ctx context.Context) (Measurement, error) {
	st := speedtest.New(speedtest.WithDoer(b.client))

	if _, err := st.FetchUserInfoContext(ctx); err != nil {
		return Measurement{}, &ConfigRetrievalError{Stage: "client configuration", Err: err}
	}

	servers, err := st.FetchServerListContext(ctx)
	if err != nil {
		return Measurement{}, &ConfigRetrievalError{Stage: "server list", Err: err}
	}
	targets, err := servers.FindServer([]int{})
	if err != nil {
		return Measurement{}, &ConfigRetrievalError{Stage: "best server", Err: err}
	}
	if len(targets) == 0 {
		return Measurement{}, &ConfigRetrievalError{Stage: "best server", Err: common.NewError("no servers available")}
	}
	server := targets[0]

	b.logger.Debug().Str("server", server.Name).Str("sponsor", server.Sponsor).Str("host", server.Host).Msg("Selected speedtest server")

	return measureServer(ctx, server)
}

// measureServer pings, downloads and uploads against one server. The
// transfer tests report failure only through the speed fields: -1 when no
// request succeeded and 0 when nothing was transferred.
func measureServer(ctx context.Context, server *speedtest.Server) (Measurement, error) {
	if err := server.PingTestContext(ctx, func(time.Duration) {}); err != nil {
		return Measurement{}, common.NewNetworkError(server.Host, "ping test failed", err)
	}
	if err := server.DownloadTestContext(ctx); err != nil {
		return Measurement{}, common.NewNetworkError(server.Host, "download test failed", err)
	}
	if err := checkTransfer(server.Host, "download", float64(server.DLSpeed)); err != nil {
		return Measurement{}, err
	}
	if err := server.UploadTestContext(ctx); err != nil {
		return Measurement{}, common.NewNetworkError(server.Host, "upload test failed", err)
	}
	if err := checkTransfer(server.Host, "upload", float64(server.ULSpeed)); err != nil {
		return Measurement{}, err
	}

	return Measurement{
		DownloadBytesPerSec: float64(server.DLSpeed),
		UploadBytesPerSec:   float64(server.ULSpeed),
		Latency:             server.Latency,
		Server:              server.Sponsor + " (" + server.Name + ")",
	}, nil
}

// checkTransfer rejects a transfer rate that is not a real measurement
func checkTransfer(host, direction string, bytesPerSec float64) error {
	if bytesPerSec > 0 {
		return nil
	}
	return common.NewNetworkError(host, direction+" test produced no data", nil)
}
