package cpuload

import (
	"context"
	"os"
	"os/exec"

	"github.com/aleister1102/neveridle/internal/common"
)

// WorkerFlag is the hidden flag that puts the binary into worker mode
const WorkerFlag = "-cpu-worker"

// ExecLauncher re-executes a binary as an isolated worker process
type ExecLauncher struct {
	Path string
	Args []string
	Env  []string
}

// NewExecLauncher creates a launcher that re-executes the running binary
// with WorkerFlag.
func NewExecLauncher() (*ExecLauncher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, common.WrapError(err, "failed to resolve executable path")
	}
	return &ExecLauncher{Path: exe, Args: []string{WorkerFlag}}, nil
}

// Launch starts one worker. Output is discarded.
func (l *ExecLauncher) Launch(ctx context.Context, index int) (Process, error) {
	cmd := exec.CommandContext(ctx, l.Path, l.Args...)
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}
	if err := cmd.Start(); err != nil {
		return nil, common.WrapErrorf(err, "failed to start worker %d", index)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int    { return p.cmd.Process.Pid }
func (p *execProcess) Wait() error { return p.cmd.Wait() }
func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }
