package httpclient

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/rs/zerolog"
)

// RetryHandler retries requests on selected status codes with exponential backoff
type RetryHandler struct {
	maxRetries       int
	baseDelay        time.Duration
	maxDelay         time.Duration
	enableJitter     bool
	retryStatusCodes map[int]bool
	logger           zerolog.Logger
}

// RetryHandlerConfig configuration for retry handler
type RetryHandlerConfig struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	EnableJitter     bool
	RetryStatusCodes []int
}

// DefaultRetryHandlerConfig retries rate limits and gateway errors
func DefaultRetryHandlerConfig() RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:   2,
		BaseDelay:    time.Second,
		MaxDelay:     10 * time.Second,
		EnableJitter: true,
		RetryStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(config RetryHandlerConfig, logger zerolog.Logger) *RetryHandler {
	codes := make(map[int]bool, len(config.RetryStatusCodes))
	for _, code := range config.RetryStatusCodes {
		codes[code] = true
	}

	return &RetryHandler{
		maxRetries:       config.MaxRetries,
		baseDelay:        config.BaseDelay,
		maxDelay:         config.MaxDelay,
		enableJitter:     config.EnableJitter,
		retryStatusCodes: codes,
		logger:           logger.With().Str("module", "RetryHandler").Logger(),
	}
}

// CalculateDelay returns baseDelay * 2^attempt capped at maxDelay, plus up to 10% jitter
func (rh *RetryHandler) CalculateDelay(attempt int) time.Duration {
	delay := rh.baseDelay
	if attempt > 0 {
		delay = rh.baseDelay * time.Duration(math.Pow(2, float64(attempt)))
	}
	if rh.maxDelay > 0 && delay > rh.maxDelay {
		delay = rh.maxDelay
	}

	if rh.enableJitter {
		if window := delay.Milliseconds() / 10; window > 0 {
			delay += time.Duration(rand.Int63n(window)) * time.Millisecond
		}
	}
	return delay
}

func (rh *RetryHandler) wait(ctx context.Context, attempt, statusCode int) error {
	delay := rh.CalculateDelay(attempt)

	rh.logger.Warn().
		Int("status_code", statusCode).
		Int("attempt", attempt+1).
		Int("max_retries", rh.maxRetries).
		Dur("delay", delay).
		Msg("Retryable status received, waiting before retry")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DoWithRetry executes doFunc until it returns a non-retryable response or
// attempts run out. Transport errors are retried immediately.
func (rh *RetryHandler) DoWithRetry(ctx context.Context, doFunc func(*HTTPRequest) (*HTTPResponse, error), req *HTTPRequest) (*HTTPResponse, error) {
	var lastResp *HTTPResponse
	var lastErr error

	for attempt := 0; attempt <= rh.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := doFunc(req)
		if err != nil {
			lastResp, lastErr = nil, err
			rh.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("Network error, retrying immediately")
			continue
		}

		lastResp, lastErr = resp, nil
		if !rh.retryStatusCodes[resp.StatusCode] || attempt == rh.maxRetries {
			break
		}
		if err := rh.wait(ctx, attempt, resp.StatusCode); err != nil {
			return nil, err
		}
	}

	if lastErr != nil {
		return nil, common.WrapError(lastErr, "all retry attempts failed")
	}
	if rh.retryStatusCodes[lastResp.StatusCode] {
		return lastResp, common.WrapError(NewHTTPError(lastResp.StatusCode, lastResp.Body), "all retry attempts failed")
	}
	return lastResp, nil
}
