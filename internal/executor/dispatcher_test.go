package executor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aryankumar/multikube/internal/discovery"
	"github.com/aryankumar/multikube/internal/util"
)

// dirKubeconfigs hands out <dir>/<cluster> paths without touching disk
type dirKubeconfigs struct {
	dir   string
	fail  map[string]error
	mu    sync.Mutex
	seen  []string
	since time.Time
}

func (m *dirKubeconfigs) Ensure(desc discovery.Descriptor, notBefore time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, desc.Name)
	m.since = notBefore
	if err := m.fail[desc.Name]; err != nil {
		return "", err
	}
	return filepath.Join(m.dir, desc.Name), nil
}

func targets(names ...string) []Target {
	out := make([]Target, len(names))
	for i, n := range names {
		out[i] = Target{Name: n, Descriptor: discovery.Descriptor{Name: n}}
	}
	return out
}

// clusterScript behaves differently per cluster while the command line stays
// identical: the only per-cluster input is KUBECONFIG.
const clusterScript = `case "$KUBECONFIG" in
*/cluster-1) echo "NAME STATUS"; echo "web Running" ;;
*/cluster-2) echo "partial"; echo "error: forbidden" >&2; exit 2 ;;
*/cluster-3) echo "started"; exec sleep 5 ;;
esac`

func TestDispatcher_FailureIsolation(t *testing.T) {
	m := &dirKubeconfigs{dir: t.TempDir()}
	d := NewDispatcher(NewExecRunner("sh"), m, testLogger(),
		WithWorkers(3),
		WithTimeout(500*time.Millisecond))

	start := time.Now()
	results := d.Dispatch(context.Background(), targets("cluster-1", "cluster-2", "cluster-3"), []string{"-c", clusterScript})
	elapsed := time.Since(start)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"cluster-1", "cluster-2", "cluster-3"} {
		if results[i].Cluster != want {
			t.Errorf("slot %d: expected %s, got %s", i, want, results[i].Cluster)
		}
	}

	first := results[0]
	if first.Status != StatusSucceeded || first.ExitCode != 0 {
		t.Errorf("cluster-1: expected success, got %s (exit %d, err %v)", first.Status, first.ExitCode, first.Err)
	}
	if string(first.Stdout) != "NAME STATUS\nweb Running\n" {
		t.Errorf("cluster-1: unexpected stdout %q", first.Stdout)
	}

	second := results[1]
	if second.Status != StatusFailed || second.ExitCode != 2 {
		t.Errorf("cluster-2: expected Failed with exit 2, got %s exit %d", second.Status, second.ExitCode)
	}
	if !strings.Contains(second.Summary(), "error: forbidden") {
		t.Errorf("cluster-2: summary should carry stderr, got %q", second.Summary())
	}

	third := results[2]
	if third.Status != StatusTimeout {
		t.Errorf("cluster-3: expected Timeout, got %s (err %v)", third.Status, third.Err)
	}
	if !errors.Is(third.Err, util.ErrTimeout) {
		t.Errorf("cluster-3: expected ErrTimeout, got %v", third.Err)
	}
	if string(third.Stdout) != "started\n" {
		t.Errorf("cluster-3: partial stdout should be kept, got %q", third.Stdout)
	}

	if elapsed > 4*time.Second {
		t.Errorf("timed out process was not killed promptly (%v)", elapsed)
	}
}

func TestDispatcher_RunCancellation(t *testing.T) {
	m := &dirKubeconfigs{dir: t.TempDir()}
	d := NewDispatcher(NewExecRunner("sh"), m, testLogger(), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	results := d.Dispatch(ctx, targets("cluster-3", "cluster-1", "cluster-2"), []string{"-c", clusterScript})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status != StatusCancelled {
		t.Errorf("running cluster: expected Cancelled, got %s", results[0].Status)
	}
	if string(results[0].Stdout) != "started\n" {
		t.Errorf("running cluster: partial stdout should be kept, got %q", results[0].Stdout)
	}
	for _, r := range results[1:] {
		if r.Status != StatusCancelled {
			t.Errorf("%s: expected Cancelled, got %s", r.Cluster, r.Status)
		}
		if !errors.Is(r.Err, util.ErrCancelled) {
			t.Errorf("%s: expected ErrCancelled, got %v", r.Cluster, r.Err)
		}
	}
}

func TestDispatcher_MaterializationError(t *testing.T) {
	m := &dirKubeconfigs{
		dir:  t.TempDir(),
		fail: map[string]error{"b": errors.New("no API endpoint recorded")},
	}
	runner := RunnerFunc(func(ctx context.Context, inv Invocation) (Output, error) {
		return Output{Stdout: []byte("ok\n")}, nil
	})
	notBefore := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	d := NewDispatcher(runner, m, testLogger(), WithWorkers(2), WithNotBefore(notBefore))
	results := d.Dispatch(context.Background(), targets("a", "b", "c"), []string{"get", "pods"})

	if results[1].Status != StatusError {
		t.Errorf("expected Error status, got %s", results[1].Status)
	}
	if !strings.Contains(results[1].Summary(), "no API endpoint") {
		t.Errorf("unexpected summary %q", results[1].Summary())
	}
	if !results[0].OK() || !results[2].OK() {
		t.Error("siblings of a failed cluster must still succeed")
	}
	if !m.since.Equal(notBefore) {
		t.Errorf("expected notBefore passed to materializer, got %v", m.since)
	}
}

func TestDispatcher_SameArgsEveryCluster(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = make(map[string][]string)
	)
	runner := RunnerFunc(func(ctx context.Context, inv Invocation) (Output, error) {
		mu.Lock()
		defer mu.Unlock()
		seen[inv.Kubeconfig] = inv.Args
		return Output{}, nil
	})
	m := &dirKubeconfigs{dir: "/state"}

	args := []string{"get", "pods", "-A"}
	NewDispatcher(runner, m, testLogger(), WithWorkers(4)).
		Dispatch(context.Background(), targets("a", "b", "c"), args)

	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct kubeconfigs, got %v", seen)
	}
	for path, got := range seen {
		if strings.Join(got, " ") != "get pods -A" {
			t.Errorf("%s: argv changed to %v", path, got)
		}
	}
}

func TestDispatcher_Retries(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		failFor      int32
		wantStatus   Status
		wantAttempts int
	}{
		{name: "no retries", retries: 0, failFor: 1, wantStatus: StatusFailed, wantAttempts: 1},
		{name: "recovers on retry", retries: 2, failFor: 1, wantStatus: StatusSucceeded, wantAttempts: 2},
		{name: "exhausts retries", retries: 2, failFor: 10, wantStatus: StatusFailed, wantAttempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			runner := RunnerFunc(func(ctx context.Context, inv Invocation) (Output, error) {
				if calls.Add(1) <= tt.failFor {
					return Output{ExitCode: 1}, nil
				}
				return Output{}, nil
			})

			d := NewDispatcher(runner, &dirKubeconfigs{dir: "/state"}, testLogger(),
				WithRetries(tt.retries, time.Millisecond))
			res := d.Dispatch(context.Background(), targets("a"), []string{"get", "ns"})[0]

			if res.Status != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, res.Status)
			}
			if res.Attempts != tt.wantAttempts {
				t.Errorf("expected %d attempts, got %d", tt.wantAttempts, res.Attempts)
			}
		})
	}
}

func TestDispatcher_NoRetryOnLaunchError(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(ctx context.Context, inv Invocation) (Output, error) {
		calls.Add(1)
		return Output{ExitCode: -1}, errors.New("executable not found")
	})

	d := NewDispatcher(runner, &dirKubeconfigs{dir: "/state"}, testLogger(), WithRetries(3, time.Millisecond))
	res := d.Dispatch(context.Background(), targets("a"), nil)[0]

	if res.Status != StatusError {
		t.Errorf("expected Error, got %s", res.Status)
	}
	if calls.Load() != 1 {
		t.Errorf("launch errors must not be retried, got %d calls", calls.Load())
	}
}

func TestDispatcher_NoTargets(t *testing.T) {
	d := NewDispatcher(NewExecRunner("sh"), &dirKubeconfigs{}, testLogger())
	if got := d.Dispatch(context.Background(), nil, []string{"get", "ns"}); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestExecRunner(t *testing.T) {
	r := NewExecRunner("sh")

	out, err := r.Run(context.Background(), Invocation{
		Kubeconfig: "/tmp/prod.kubeconfig",
		Args:       []string{"-c", `echo "$KUBECONFIG"; echo warn >&2; exit 3`},
	})
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if out.ExitCode != 3 {
		t.Errorf("expected exit 3, got %d", out.ExitCode)
	}
	if string(out.Stdout) != "/tmp/prod.kubeconfig\n" || string(out.Stderr) != "warn\n" {
		t.Errorf("unexpected output %q / %q", out.Stdout, out.Stderr)
	}

	if _, err := NewExecRunner("multikube-no-such-binary").Run(context.Background(), Invocation{}); err == nil {
		t.Error("expected launch error for a missing binary")
	}
}

func TestExecutionResult_Summary(t *testing.T) {
	tests := []struct {
		name string
		res  ExecutionResult
		want string
	}{
		{name: "success", res: ExecutionResult{Status: StatusSucceeded}, want: ""},
		{name: "failed with stderr", res: ExecutionResult{Status: StatusFailed, ExitCode: 1, Stderr: []byte("\nerror: not found\nmore\n")}, want: "exit code 1: error: not found"},
		{name: "failed silently", res: ExecutionResult{Status: StatusFailed, ExitCode: 2}, want: "exit code 2"},
		{name: "timeout", res: ExecutionResult{Status: StatusTimeout, Duration: 1500 * time.Millisecond}, want: "timed out after 1.5s"},
		{name: "cancelled", res: ExecutionResult{Status: StatusCancelled}, want: "cancelled"},
		{name: "error", res: ExecutionResult{Status: StatusError, Err: errors.New("no kubeconfig")}, want: "no kubeconfig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
