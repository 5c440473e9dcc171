package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// NewClient creates a client from a REST config
func NewClient(name string, restConfig *rest.Config, logger *slog.Logger) (*Client, error) {
	if restConfig == nil {
		return nil, fmt.Errorf("rest config cannot be nil")
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	logger.Debug("created cluster client",
		"cluster", name,
		"server", restConfig.Host)

	return &Client{
		Name:       name,
		Clientset:  clientset,
		RestConfig: restConfig,
	}, nil
}

// ServerVersion returns the API server version. The discovery call takes no
// context, so it runs in a goroutine and is abandoned when ctx ends.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("get server version: %w", err)
	}

	type result struct {
		version string
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		version, err := c.Clientset.Discovery().ServerVersion()
		if err != nil {
			resultCh <- result{err: err}
			return
		}
		resultCh <- result{version: version.GitVersion}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("get server version: %w", ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to get server version: %w", res.err)
		}
		return res.version, nil
	}
}

// NodeReadiness returns the total and Ready node counts
func (c *Client) NodeReadiness(ctx context.Context) (total, ready int, err error) {
	nodes, err := c.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return -1, -1, fmt.Errorf("failed to list nodes: %w", err)
	}

	for _, node := range nodes.Items {
		for _, cond := range node.Status.Conditions {
			if cond.Type == corev1.NodeReady && cond.Status == corev1.ConditionTrue {
				ready++
				break
			}
		}
	}
	return len(nodes.Items), ready, nil
}

// Probe checks the API server and node readiness within timeout
func (c *Client) Probe(ctx context.Context, timeout time.Duration) Health {
	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	h := Health{Cluster: c.Name, Nodes: -1, ReadyNodes: -1}

	version, err := c.ServerVersion(ctx)
	if err != nil {
		h.State = StateUnreachable
		h.Error = err.Error()
		h.Duration = time.Since(start)
		return h
	}
	h.Version = version

	total, ready, err := c.NodeReadiness(ctx)
	switch {
	case err != nil:
		h.State = StateDegraded
		h.Error = err.Error()
	case ready < total:
		h.State = StateDegraded
	default:
		h.State = StateHealthy
	}
	h.Nodes, h.ReadyNodes = total, ready
	h.Duration = time.Since(start)

	return h
}
