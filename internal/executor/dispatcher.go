package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryankumar/multikube/internal/discovery"
	"github.com/aryankumar/multikube/internal/util"
	"github.com/cenkalti/backoff/v4"
)

// Status is the per-cluster outcome of a dispatch
type Status string

const (
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusTimeout   Status = "Timeout"
	StatusCancelled Status = "Cancelled"
	StatusError     Status = "Error"
)

// ExecutionResult is what one cluster's invocation produced
type ExecutionResult struct {
	Cluster  string        `json:"cluster" yaml:"cluster"`
	Status   Status        `json:"status" yaml:"status"`
	ExitCode int           `json:"exitCode" yaml:"exitCode"`
	Stdout   []byte        `json:"-" yaml:"-"`
	Stderr   []byte        `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Attempts int           `json:"attempts" yaml:"attempts"`
	Err      error         `json:"-" yaml:"-"`
}

// OK reports whether the invocation succeeded
func (r ExecutionResult) OK() bool {
	return r.Status == StatusSucceeded
}

// Summary is a one-line description of a failed invocation
func (r ExecutionResult) Summary() string {
	detail := firstLine(r.Stderr)

	switch r.Status {
	case StatusSucceeded:
		return ""
	case StatusFailed:
		if detail == "" {
			return fmt.Sprintf("exit code %d", r.ExitCode)
		}
		return fmt.Sprintf("exit code %d: %s", r.ExitCode, detail)
	case StatusTimeout:
		return fmt.Sprintf("timed out after %s", r.Duration.Round(time.Millisecond))
	case StatusCancelled:
		return "cancelled"
	default:
		if r.Err != nil {
			return r.Err.Error()
		}
		return detail
	}
}

func firstLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// Target is one cluster to run against
type Target struct {
	// Name is the cluster key shown to the user
	Name string

	Descriptor discovery.Descriptor
}

// Materializer provides the kubeconfig path for a cluster, generating it when
// missing or older than notBefore
type Materializer interface {
	Ensure(desc discovery.Descriptor, notBefore time.Time) (string, error)
}

// Dispatcher fans one command out across clusters
type Dispatcher struct {
	runner       Runner
	materializer Materializer
	workers      int
	timeout      time.Duration
	retries      int
	retryBackoff time.Duration
	notBefore    time.Time
	logger       *slog.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithWorkers bounds the number of concurrent invocations
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithTimeout sets the per-invocation timeout; zero disables it
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithRetries retries invocations that exit non-zero, backing off exponentially from base
func WithRetries(retries int, base time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.retries = max(retries, 0)
		d.retryBackoff = base
	}
}

// WithNotBefore regenerates kubeconfig material written before t
func WithNotBefore(t time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.notBefore = t
	}
}

// NewDispatcher creates a dispatcher
func NewDispatcher(runner Runner, materializer Materializer, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		runner:       runner,
		materializer: materializer,
		workers:      1,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs args once per target and returns one result per target in
// target order. Per-cluster failures never abort the run: Dispatch waits for
// every launched invocation. When ctx ends, running invocations are killed,
// their partial output is kept, and unstarted targets are marked Cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []Target, args []string) []ExecutionResult {
	if len(targets) == 0 {
		return []ExecutionResult{}
	}

	pool := NewPool[ExecutionResult](min(d.workers, len(targets)), d.logger)
	for _, target := range targets {
		target := target
		if err := pool.Submit(Task[ExecutionResult]{
			ClusterName: target.Name,
			Execute: func(ctx context.Context) (ExecutionResult, error) {
				res := d.run(ctx, target, args)
				if res.OK() {
					return res, nil
				}
				return res, util.WrapClusterError(target.Name, errors.New(res.Summary()))
			},
		}); err != nil {
			d.logger.Error("failed to queue cluster", "cluster", target.Name, "error", err)
		}
	}

	d.logger.Debug("dispatching command",
		"clusters", len(targets),
		"workers", pool.WorkerCount(),
		"timeout", d.timeout)

	pooled := pool.Execute(ctx)

	results := make([]ExecutionResult, len(pooled))
	for i, pr := range pooled {
		if !pr.Started {
			results[i] = ExecutionResult{
				Cluster:  pr.ClusterName,
				Status:   StatusCancelled,
				ExitCode: -1,
				Err:      pr.Error,
			}
			continue
		}
		results[i] = pr.Data
	}

	summary := Summarize(pooled)
	d.logger.Debug("dispatch completed",
		"total", summary.Total,
		"succeeded", summary.Successful,
		"failed", summary.Failed,
		"slowest", summary.MaxDuration)

	return results
}

func (d *Dispatcher) run(ctx context.Context, target Target, args []string) ExecutionResult {
	start := time.Now()

	path, err := d.materializer.Ensure(target.Descriptor, d.notBefore)
	if err != nil {
		return ExecutionResult{
			Cluster:  target.Name,
			Status:   StatusError,
			ExitCode: -1,
			Duration: time.Since(start),
			Err:      err,
		}
	}

	inv := Invocation{Kubeconfig: path, Args: args}

	var res ExecutionResult
	attempt := func() error {
		res = d.attempt(ctx, target.Name, inv, res.Attempts+1)
		if res.Status == StatusFailed {
			return fmt.Errorf("exit code %d", res.ExitCode)
		}
		return nil
	}

	if d.retries == 0 {
		_ = attempt()
	} else {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = d.retryBackoff
		b.MaxElapsedTime = 0
		notify := func(err error, wait time.Duration) {
			d.logger.Warn("command failed, retrying",
				"cluster", target.Name,
				"attempt", res.Attempts,
				"error", err,
				"wait", wait)
		}
		_ = backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.retries)), ctx), notify)
	}

	res.Duration = time.Since(start)
	return res
}

func (d *Dispatcher) attempt(ctx context.Context, cluster string, inv Invocation, n int) ExecutionResult {
	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := d.runner.Run(runCtx, inv)

	res := ExecutionResult{
		Cluster:  cluster,
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Duration: time.Since(start),
		Attempts: n,
		Err:      err,
	}

	switch {
	case err == nil && out.ExitCode == 0:
		res.Status = StatusSucceeded
	case err == nil:
		res.Status = StatusFailed
	case ctx.Err() != nil:
		res.Status = StatusCancelled
		res.Err = fmt.Errorf("%w: %v", util.ErrCancelled, err)
	case runCtx.Err() != nil:
		res.Status = StatusTimeout
		res.Err = fmt.Errorf("%w: %v", util.ErrTimeout, err)
	default:
		res.Status = StatusError
	}

	return res
}
