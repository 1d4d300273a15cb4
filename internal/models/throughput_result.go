package models

import "time"

// FailureKind classifies a throughput probe failure
type FailureKind string

const (
	// FailureConfigRetrieval means the measurement configuration or server list could not be fetched
	FailureConfigRetrieval FailureKind = "CONFIG_RETRIEVAL"
	// FailureNetwork covers every other failure, including the probe timeout
	FailureNetwork FailureKind = "NETWORK"
)

// ThroughputResult is either a measurement or a failure with a readable reason
type ThroughputResult struct {
	Skipped      bool
	DownloadMbps float64
	UploadMbps   float64
	Latency      time.Duration
	Server       string
	Duration     time.Duration

	FailureKind FailureKind
	Reason      string
	Err         error
}

// Failed reports whether the probe did not produce a measurement
func (r ThroughputResult) Failed() bool {
	return !r.Skipped && r.FailureKind != ""
}

// Outcome grades the probe
func (r ThroughputResult) Outcome() Outcome {
	if r.Failed() {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// BitsToMbps converts bits per second to megabits per second
func BitsToMbps(bitsPerSecond float64) float64 {
	return bitsPerSecond / 1_000_000
}

// BytesToMbps converts bytes per second to megabits per second
func BytesToMbps(bytesPerSecond float64) float64 {
	return BitsToMbps(bytesPerSecond * 8)
}
