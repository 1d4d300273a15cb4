// Package inflator grows the process's resident memory towards a fraction of
// total host memory by holding page-touched blocks.
package inflator

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
)

// DefaultBlockSize is the size of each retained block
const DefaultBlockSize = 1 << 20

// Sampler reports the resident memory of the current process
type Sampler interface {
	ResidentMemory() (uint64, error)
}

// SamplerFunc adapts a function to Sampler
type SamplerFunc func() (uint64, error)

// ResidentMemory calls f
func (f SamplerFunc) ResidentMemory() (uint64, error) { return f() }

// Allocator hands out resident blocks and takes them back
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(block []byte) error
}

// Option configures an Inflator
type Option func(*Inflator)

// WithBlockSize overrides the block size
func WithBlockSize(size int) Option {
	return func(i *Inflator) {
		if size > 0 {
			i.blockSize = size
		}
	}
}

// WithAllocator overrides the platform allocator
func WithAllocator(a Allocator) Option {
	return func(i *Inflator) {
		if a != nil {
			i.alloc = a
		}
	}
}

// Inflator owns the block set. It is not safe for concurrent use; the
// scheduler goroutine is its only caller.
type Inflator struct {
	sampler   Sampler
	alloc     Allocator
	blockSize int
	blocks    [][]byte
	logger    zerolog.Logger
}

// New creates a new Inflator
func New(sampler Sampler, logger zerolog.Logger, opts ...Option) *Inflator {
	i := &Inflator{
		sampler:   sampler,
		alloc:     newPlatformAllocator(),
		blockSize: DefaultBlockSize,
		logger:    logger.With().Str("module", "MemoryInflator").Logger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TargetBytes returns floor(total * fraction). The fraction is clamped to [0,1].
func TargetBytes(totalBytes uint64, fraction float64) uint64 {
	switch {
	case fraction <= 0:
		return 0
	case fraction >= 1:
		return totalBytes
	}
	return uint64(float64(totalBytes) * fraction)
}

// Blocks returns the number of blocks currently held
func (i *Inflator) Blocks() int {
	return len(i.blocks)
}

// Inflate releases the previous block set, then appends blocks until the
// process resident memory reaches the target or a stop condition trips. It
// never fails; shortfalls are reported through the result status.
func (i *Inflator) Inflate(targetFraction float64, totalBytes uint64) models.InflationResult {
	i.Release()

	result := models.InflationResult{
		TargetBytes: TargetBytes(totalBytes, targetFraction),
		TotalBytes:  totalBytes,
		BlockSize:   i.blockSize,
	}

	resident, err := i.sampler.ResidentMemory()
	if err != nil {
		return i.finish(result, models.InflationSampleFailed, err)
	}
	result.ResidentBefore = resident
	result.AchievedBytes = resident

	i.logger.Debug().
		Uint64("target_bytes", result.TargetBytes).
		Uint64("resident_bytes", resident).
		Msg("Starting memory inflation")

	for resident < result.TargetBytes {
		if uint64(len(i.blocks)+1)*uint64(i.blockSize) > totalBytes {
			return i.finish(result, models.InflationSafetyCeiling, nil)
		}

		block, err := i.alloc.Alloc(i.blockSize)
		if err != nil {
			return i.finish(result, models.InflationAllocationFailed,
				fmt.Errorf("%w: %w", common.ErrAllocationFailed, err))
		}
		i.blocks = append(i.blocks, block)
		result.Blocks = len(i.blocks)

		resident, err = i.sampler.ResidentMemory()
		if err != nil {
			return i.finish(result, models.InflationSampleFailed, err)
		}
		result.AchievedBytes = resident
	}

	return i.finish(result, models.InflationReached, nil)
}

func (i *Inflator) finish(result models.InflationResult, status models.InflationStatus, err error) models.InflationResult {
	result.Status = status
	result.Err = err
	result.Blocks = len(i.blocks)
	return result
}

// Release frees every held block and asks the runtime to return memory to
// the OS. It returns the number of blocks released.
func (i *Inflator) Release() int {
	released := len(i.blocks)
	if released == 0 {
		return 0
	}

	for idx, block := range i.blocks {
		if err := i.alloc.Free(block); err != nil {
			i.logger.Warn().Err(err).Int("block", idx).Msg("Failed to free memory block")
		}
		i.blocks[idx] = nil
	}
	i.blocks = nil

	debug.FreeOSMemory()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	i.logger.Debug().
		Int("blocks", released).
		Uint64("heap_sys_mb", m.HeapSys/1024/1024).
		Uint64("heap_released_mb", m.HeapReleased/1024/1024).
		Msg("Released memory blocks")

	return released
}

// touchPages writes one byte per page so the block becomes resident
func touchPages(block []byte, pageSize int) {
	if pageSize <= 0 {
		pageSize = 4096
	}
	for off := 0; off < len(block); off += pageSize {
		block[off] = 1
	}
}
