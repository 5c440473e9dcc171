package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// defaultWaitDelay bounds how long Wait blocks on output pipes after the
// process has been killed, e.g. when a child inherited them
const defaultWaitDelay = 2 * time.Second

// Invocation is one external command run against one cluster
type Invocation struct {
	// Kubeconfig is the per-cluster kubeconfig path
	Kubeconfig string

	// Args is the command line after the binary; identical for every cluster
	Args []string
}

// Output is what an invocation produced
type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes one invocation. A non-zero exit is reported through
// Output.ExitCode with a nil error. The error is reserved for invocations
// that could not be launched or were killed because ctx ended; partial
// output is still returned in that case.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Output, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, inv Invocation) (Output, error)

// Run implements Runner
func (f RunnerFunc) Run(ctx context.Context, inv Invocation) (Output, error) {
	return f(ctx, inv)
}

// ExecRunner runs a local binary, selecting the cluster through KUBECONFIG
type ExecRunner struct {
	// Binary is the executable to run, resolved through PATH
	Binary string

	// WaitDelay overrides how long to wait for pipes after a kill
	WaitDelay time.Duration
}

// NewExecRunner creates a runner for binary
func NewExecRunner(binary string) *ExecRunner {
	return &ExecRunner{Binary: binary, WaitDelay: defaultWaitDelay}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (Output, error) {
	cmd := exec.CommandContext(ctx, r.Binary, inv.Args...)
	cmd.Env = append(os.Environ(), "KUBECONFIG="+inv.Kubeconfig)
	cmd.Stdin = nil
	cmd.WaitDelay = r.WaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, ctxErr
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	default:
		out.ExitCode = -1
		return out, fmt.Errorf("failed to run %s: %w", r.Binary, err)
	}
}
