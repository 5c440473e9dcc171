package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryankumar/multikube/internal/discovery"
	"github.com/aryankumar/multikube/internal/executor"
	"github.com/aryankumar/multikube/internal/kubeconfig"
	"github.com/aryankumar/multikube/internal/util"
)

// ClientFactory builds an API client for a discovered cluster
type ClientFactory func(name string, desc discovery.Descriptor) (*Client, error)

// MaterializedClients returns a factory that reads kubeconfig material
// written by m, regenerating it when older than notBefore
func MaterializedClients(m executor.Materializer, notBefore time.Time, logger *slog.Logger) ClientFactory {
	return func(name string, desc discovery.Descriptor) (*Client, error) {
		path, err := m.Ensure(desc, notBefore)
		if err != nil {
			return nil, err
		}
		restConfig, err := kubeconfig.RESTConfig(path)
		if err != nil {
			return nil, util.WrapClusterError(name, err)
		}
		return NewClient(name, restConfig, logger)
	}
}

// Prober checks API server health across clusters
type Prober struct {
	factory ClientFactory
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

// NewProber creates a prober running up to workers probes at once, each
// bounded by timeout
func NewProber(factory ClientFactory, workers int, timeout time.Duration, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		factory: factory,
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

// Probe checks every target and returns one Health per target in target
// order. A cluster whose client cannot be built is reported Unreachable.
func (p *Prober) Probe(ctx context.Context, targets []executor.Target) []Health {
	pool := executor.NewPool[Health](p.workers, p.logger)

	for _, target := range targets {
		target := target
		err := pool.Submit(executor.Task[Health]{
			ClusterName: target.Name,
			Execute: func(ctx context.Context) (Health, error) {
				client, err := p.factory(target.Name, target.Descriptor)
				if err != nil {
					return Health{}, err
				}
				return client.Probe(ctx, p.timeout), nil
			},
		})
		if err != nil {
			p.logger.Error("failed to submit probe", "cluster", target.Name, "error", err)
		}
	}

	results := pool.Execute(ctx)

	out := make([]Health, len(results))
	for i, res := range results {
		if res.Error != nil {
			out[i] = Health{
				Cluster:    res.ClusterName,
				State:      StateUnreachable,
				Nodes:      -1,
				ReadyNodes: -1,
				Duration:   res.Duration,
				Error:      res.Error.Error(),
			}
			continue
		}
		out[i] = res.Data
	}

	healthy := countHealthy(out)
	p.logger.Debug("health check completed",
		"total", len(out),
		"healthy", healthy,
		"unhealthy", len(out)-healthy)

	return out
}

// Unhealthy returns an error naming every unreachable cluster, or nil
func Unhealthy(results []Health) error {
	var errs []error
	for _, h := range results {
		if !h.Healthy() {
			errs = append(errs, fmt.Errorf("cluster %s: %s", h.Cluster, h.Error))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", util.ErrPartialFailure, util.CombineErrors(errs...))
}

func countHealthy(results []Health) int {
	n := 0
	for _, h := range results {
		if h.Healthy() {
			n++
		}
	}
	return n
}
