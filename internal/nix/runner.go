package nix

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// RunResult captures one subprocess invocation.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Runner executes backend commands. The production implementation shells
// out; tests substitute a fake so no real nix installation is touched.
type Runner interface {
	Run(ctx context.Context, argv []string) (RunResult, error)
}

type execRunner struct{}

// NewRunner returns the subprocess-backed Runner.
func NewRunner() Runner {
	return execRunner{}
}

// Run invokes argv[0] with the remaining elements as arguments. The argv is
// passed straight to the OS. No shell is involved, so arguments can never
// be reinterpreted as command text.
func (execRunner) Run(ctx context.Context, argv []string) (RunResult, error) {
	if len(argv) == 0 {
		return RunResult{ExitCode: -1}, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctx.Err() != nil {
			result.TimedOut = ctx.Err() == context.DeadlineExceeded
			result.ExitCode = -1
			return result, ctx.Err()
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%s exited with code %d", argv[0], result.ExitCode)
		}
		result.ExitCode = -1
		return result, fmt.Errorf("failed to run %s: %w", argv[0], err)
	}

	return result, nil
}
