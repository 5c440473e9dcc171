package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/aryankumar/multikube/internal/util"
)

// Descriptor is the discovered identity and location of one Kubernetes cluster.
// Descriptors are immutable once recorded and replaced wholesale on re-discovery.
type Descriptor struct {
	// Name is the cluster name as reported by the provider
	Name string `yaml:"name" json:"name"`

	// Account is the cloud account id owning the cluster
	Account string `yaml:"account" json:"account"`

	// Profile is the local credential profile the cluster was found with
	Profile string `yaml:"profile" json:"profile"`

	// Region is the cloud region hosting the cluster
	Region string `yaml:"region" json:"region"`

	// Endpoint is the API server URL
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// ARN is the provider resource name, used as the kubeconfig context name
	ARN string `yaml:"arn,omitempty" json:"arn,omitempty"`

	// CAData is the base64-encoded API server certificate authority
	CAData string `yaml:"caData,omitempty" json:"-"`

	// DiscoveredAt is when the descriptor was recorded
	DiscoveredAt time.Time `yaml:"discoveredAt" json:"discoveredAt"`
}

// Key is the deduplication key: cluster name plus account
func (d Descriptor) Key() string {
	return d.Name + "@" + d.Account
}

// Provider queries a cloud for the clusters visible to one (profile, region) pair
type Provider interface {
	ListClusters(ctx context.Context, profile, region string) ([]Descriptor, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, profile, region string) ([]Descriptor, error)

// ListClusters implements Provider
func (f ProviderFunc) ListClusters(ctx context.Context, profile, region string) ([]Descriptor, error) {
	return f(ctx, profile, region)
}

// Error records a failed (profile, region) query. It is never fatal to discovery.
type Error struct {
	Profile string
	Region  string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("discovery in profile %q region %q: %v", e.Profile, e.Region, e.Err)
}

// Unwrap returns the underlying provider error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is util.ErrDiscovery
func (e *Error) Is(target error) bool {
	return target == util.ErrDiscovery
}
