package cluster

import (
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Client is an API connection to one cluster
type Client struct {
	// Name is the cluster key shown to the user
	Name string

	// Clientset is the Kubernetes client interface
	Clientset kubernetes.Interface

	// RestConfig is the underlying REST configuration
	RestConfig *rest.Config
}

// State summarizes a probe outcome
type State string

const (
	StateHealthy     State = "Healthy"
	StateDegraded    State = "Degraded"
	StateUnreachable State = "Unreachable"
)

// Health is the result of probing one cluster's API server
type Health struct {
	Cluster string `json:"cluster" yaml:"cluster"`
	State   State  `json:"state" yaml:"state"`

	// Version is the API server git version
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Nodes and ReadyNodes are -1 when nodes could not be listed
	Nodes      int `json:"nodes" yaml:"nodes"`
	ReadyNodes int `json:"readyNodes" yaml:"readyNodes"`

	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Healthy reports whether the API server answered
func (h Health) Healthy() bool {
	return h.State != StateUnreachable
}
