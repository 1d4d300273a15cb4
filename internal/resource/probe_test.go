package resource

import (
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_Snapshot(t *testing.T) {
	probe, err := NewProbe(zerolog.Nop())
	require.NoError(t, err)

	snap, err := probe.Snapshot()
	require.NoError(t, err)

	assert.NotZero(t, snap.TotalMemoryBytes, "total memory should be reported")
	assert.NotZero(t, snap.ResidentMemoryBytes, "resident memory should be reported")
	assert.Less(t, snap.ResidentMemoryBytes, snap.TotalMemoryBytes)
	assert.GreaterOrEqual(t, snap.LogicalCores, 1)
}

func TestProbe_ResidentMemoryGrowsWithTouchedPages(t *testing.T) {
	probe, err := NewProbe(zerolog.Nop())
	require.NoError(t, err)

	before, err := probe.ResidentMemory()
	require.NoError(t, err)

	buf := make([]byte, 64<<20)
	for i := 0; i < len(buf); i += 4096 {
		buf[i] = 1
	}

	after, err := probe.ResidentMemory()
	require.NoError(t, err)
	assert.Greater(t, after, before)
	runtime.KeepAlive(buf)
}

func TestProbe_LogicalCoresMatchesRuntime(t *testing.T) {
	probe, err := NewProbe(zerolog.Nop())
	require.NoError(t, err)

	// cgroup or affinity limits can make the runtime see fewer CPUs than the host.
	assert.GreaterOrEqual(t, probe.LogicalCores(), runtime.NumCPU())
}

func TestProbe_SystemCPUPercent(t *testing.T) {
	probe, err := NewProbe(zerolog.Nop())
	require.NoError(t, err)

	pct, err := probe.SystemCPUPercent()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pct, 0.0)
	assert.LessOrEqual(t, pct, 100.0)
}
