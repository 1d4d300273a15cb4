package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			require.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}
}

func TestWrapError_Nil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "nothing to wrap"))
	assert.NoError(t, WrapErrorf(nil, "nothing to wrap %d", 1))
}

func TestWrapErrorf(t *testing.T) {
	err := WrapErrorf(ErrTimeout, "worker %d", 42)
	assert.Equal(t, "worker 42: operation timed out", err.Error())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name            string
		section         string
		field           string
		reason          string
		wrapped         error
		expectedMessage string
	}{
		{
			name:            "section and field",
			section:         "script_settings",
			field:           "cpu_usage_target_percent",
			reason:          "must be between 0 and 100",
			expectedMessage: "configuration error in section 'script_settings', field 'cpu_usage_target_percent': must be between 0 and 100",
		},
		{
			name:            "section only",
			section:         "logging_settings",
			reason:          "malformed",
			expectedMessage: "configuration error in section 'logging_settings': malformed",
		},
		{
			name:            "wrapped cause",
			reason:          "could not parse file",
			wrapped:         errors.New("unexpected end of JSON input"),
			expectedMessage: "configuration error: could not parse file: unexpected end of JSON input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgErr := NewConfigurationError(tt.section, tt.field, tt.reason, tt.wrapped)
			assert.Equal(t, tt.expectedMessage, cfgErr.Error())
			assert.Equal(t, tt.wrapped, cfgErr.Unwrap())
		})
	}
}

func TestErrorChaining(t *testing.T) {
	originalErr := errors.New("no such host")
	networkErr := NewNetworkError("https://www.speedtest.net/api/js/servers", "fetch server list", originalErr)
	wrappedErr := WrapError(networkErr, "throughput probe failed")

	assert.Contains(t, wrappedErr.Error(), "throughput probe failed")
	assert.Contains(t, wrappedErr.Error(), "network error")

	var netErr *NetworkError
	require.True(t, errors.As(wrappedErr, &netErr))
	assert.Equal(t, "https://www.speedtest.net/api/js/servers", netErr.URL)
	assert.ErrorIs(t, wrappedErr, originalErr)
	assert.ErrorIs(t, wrappedErr, ErrNetworkFailure)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("log_max_mb", -1.0, "must be positive")
	assert.Equal(t, "validation failed for field 'log_max_mb': must be positive (value: -1)", err.Error())
}
