package cpuload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid     int
	exitErr error
	killErr error
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	killed  int
}

func newFakeProcess(pid int, hang bool) *fakeProcess {
	p := &fakeProcess{pid: pid, done: make(chan struct{})}
	if !hang {
		p.finish()
	}
	return p
}

func (p *fakeProcess) finish() { p.once.Do(func() { close(p.done) }) }

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Wait() error {
	<-p.done
	return p.exitErr
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.killed++
	p.mu.Unlock()
	p.finish()
	return p.killErr
}

func (p *fakeProcess) kills() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

type fakeLauncher struct {
	procs   []*fakeProcess
	failAt  map[int]error
	launchN int
}

func (l *fakeLauncher) Launch(_ context.Context, index int) (Process, error) {
	l.launchN++
	if err, ok := l.failAt[index]; ok {
		return nil, err
	}
	return l.procs[index], nil
}

func TestWorkerCount(t *testing.T) {
	tests := []struct {
		name     string
		cores    int
		fraction float64
		want     int
	}{
		{"8 cores at 30 percent", 8, 0.30, 2},
		{"8 cores at 15 percent", 8, 0.15, 1},
		{"4 cores at 15 percent rounds to one", 4, 0.15, 1},
		{"1 core tiny fraction", 1, 0.01, 1},
		{"zero fraction", 16, 0, 0},
		{"negative fraction", 16, -0.2, 0},
		{"half rounds to even down", 5, 0.5, 2},
		{"half rounds to even up", 7, 0.5, 4},
		{"full", 12, 1, 12},
		{"no cores", 0, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkerCount(tt.cores, tt.fraction)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, WorkerCount(tt.cores, tt.fraction))
		})
	}
}

func TestRunBurstAllComplete(t *testing.T) {
	launcher := &fakeLauncher{procs: []*fakeProcess{
		newFakeProcess(101, false),
		newFakeProcess(102, false),
	}}
	c := NewController(launcher, time.Second, zerolog.Nop())

	outcomes := c.RunBurst(context.Background(), 2)

	require.Len(t, outcomes, 2)
	for i, o := range outcomes {
		assert.Equal(t, models.WorkerCompleted, o.State)
		assert.Equal(t, 101+i, o.PID)
		assert.Zero(t, o.ExitCode)
		assert.True(t, o.State.Terminal())
	}
}

func TestRunBurstZeroWorkers(t *testing.T) {
	launcher := &fakeLauncher{}
	c := NewController(launcher, time.Second, zerolog.Nop())

	assert.Empty(t, c.RunBurst(context.Background(), 0))
	assert.Zero(t, launcher.launchN)
}

func TestRunBurstTerminatesHungWorker(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	hung := newFakeProcess(4242, true)
	launcher := &fakeLauncher{procs: []*fakeProcess{
		newFakeProcess(4241, false),
		hung,
	}}
	c := NewController(launcher, 50*time.Millisecond, logger)

	outcomes := c.RunBurst(context.Background(), 2)

	require.Len(t, outcomes, 2)
	assert.Equal(t, models.WorkerCompleted, outcomes[0].State)
	assert.Equal(t, models.WorkerTerminated, outcomes[1].State)
	assert.Equal(t, 4242, outcomes[1].PID)
	assert.Equal(t, 1, hung.kills())

	var warnings []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"level":"warn"`) {
			warnings = append(warnings, line)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"pid":4242`)
	assert.Contains(t, warnings[0], "terminated")
}

func TestRunBurstKillAfterExit(t *testing.T) {
	var buf bytes.Buffer
	proc := newFakeProcess(7, true)
	proc.killErr = os.ErrProcessDone
	c := NewController(&fakeLauncher{procs: []*fakeProcess{proc}}, 10*time.Millisecond, zerolog.New(&buf))

	outcomes := c.RunBurst(context.Background(), 1)

	require.Len(t, outcomes, 1)
	assert.Equal(t, models.WorkerCompleted, outcomes[0].State)
	assert.NotContains(t, buf.String(), `"level":"warn"`)
}

func TestRunBurstLaunchFailure(t *testing.T) {
	launchErr := errors.New("fork/exec: resource temporarily unavailable")
	launcher := &fakeLauncher{
		procs:  []*fakeProcess{nil, newFakeProcess(9, false)},
		failAt: map[int]error{0: launchErr},
	}
	c := NewController(launcher, time.Second, zerolog.Nop())

	outcomes := c.RunBurst(context.Background(), 2)

	require.Len(t, outcomes, 2)
	assert.Equal(t, models.WorkerFailed, outcomes[0].State)
	assert.ErrorIs(t, outcomes[0].Err, launchErr)
	assert.Equal(t, models.WorkerCompleted, outcomes[1].State)
}

func TestBurst(t *testing.T) {
	launcher := &fakeLauncher{procs: []*fakeProcess{
		newFakeProcess(1, false),
		newFakeProcess(2, false),
	}}
	c := NewController(launcher, time.Second, zerolog.Nop())

	res := c.Burst(context.Background(), 8, 0.30)

	assert.Equal(t, 8, res.LogicalCores)
	assert.Equal(t, 2, res.WorkerCount)
	assert.Len(t, res.Workers, 2)
	assert.Equal(t, models.OutcomeSuccess, res.Outcome())
}

func TestNewControllerDefaultTimeout(t *testing.T) {
	c := NewController(&fakeLauncher{}, 0, zerolog.Nop())
	assert.Equal(t, DefaultJoinTimeout, c.joinTimeout)
}

func TestRunWorker(t *testing.T) {
	sink = 0
	RunWorker(1000)
	assert.NotZero(t, sink)

	assert.NotPanics(t, func() { RunWorker(0) })
}
