package models

// InflationStatus says why memory inflation stopped
type InflationStatus string

const (
	// InflationReached means resident memory met the target
	InflationReached InflationStatus = "REACHED"
	// InflationSafetyCeiling means the tracked blocks outgrew total system memory
	InflationSafetyCeiling InflationStatus = "SAFETY_CEILING"
	// InflationAllocationFailed means the platform refused a block
	InflationAllocationFailed InflationStatus = "ALLOCATION_FAILED"
	// InflationSampleFailed means resident memory could not be read
	InflationSampleFailed InflationStatus = "SAMPLE_FAILED"
)

// InflationResult is what one MemoryInflator run achieved
type InflationResult struct {
	Status         InflationStatus
	TargetBytes    uint64
	TotalBytes     uint64
	ResidentBefore uint64
	AchievedBytes  uint64
	Blocks         int
	BlockSize      int
	Err            error
}

// TrackedBytes returns the bytes held in blocks
func (r InflationResult) TrackedBytes() uint64 {
	return uint64(r.Blocks) * uint64(r.BlockSize)
}

// Outcome grades the run
func (r InflationResult) Outcome() Outcome {
	if r.Status == InflationReached {
		return OutcomeSuccess
	}
	return OutcomeWarning
}
