package config

import "time"

// Config represents the resolved multikube settings.
// Values come from flags, MULTIKUBE_* environment variables and the config file,
// in that order of precedence.
type Config struct {
	// StateDir holds the cluster cache, contexts, regions and kubeconfig material
	StateDir string `mapstructure:"state-dir" yaml:"state-dir,omitempty" json:"stateDir,omitempty"`

	// CacheTTL is how long discovered clusters are served without re-discovery
	CacheTTL time.Duration `mapstructure:"cache-ttl" yaml:"cache-ttl,omitempty" json:"cacheTTL,omitempty"`

	// Timeout bounds each per-cluster command invocation
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// RunTimeout bounds the whole fan-out; zero means no limit
	RunTimeout time.Duration `mapstructure:"run-timeout" yaml:"run-timeout,omitempty" json:"runTimeout,omitempty"`

	// Parallel caps concurrently running processes; zero selects a CPU-based default
	Parallel int `mapstructure:"parallel" yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// Retries is the number of extra attempts after a non-zero exit
	Retries int `mapstructure:"retries" yaml:"retries,omitempty" json:"retries,omitempty"`

	// RetryBackoff is the initial delay between retries, doubled on each attempt
	RetryBackoff time.Duration `mapstructure:"retry-backoff" yaml:"retry-backoff,omitempty" json:"retryBackoff,omitempty"`

	// Kubectl is the command run against every cluster
	Kubectl string `mapstructure:"kubectl" yaml:"kubectl,omitempty" json:"kubectl,omitempty"`

	// AWS is the aws CLI used for SSO login and kubeconfig token generation
	AWS string `mapstructure:"aws" yaml:"aws,omitempty" json:"aws,omitempty"`

	// AWSConfigFile is the shared AWS config file profiles are read from
	AWSConfigFile string `mapstructure:"aws-config-file" yaml:"aws-config-file,omitempty" json:"awsConfigFile,omitempty"`

	// Profiles overrides the profile list read from the AWS config file
	Profiles []string `mapstructure:"profiles" yaml:"profiles,omitempty" json:"profiles,omitempty"`

	// Regions overrides the region list stored in the state directory
	Regions []string `mapstructure:"regions" yaml:"regions,omitempty" json:"regions,omitempty"`

	// Format selects the report rendering (text, json, yaml)
	Format string `mapstructure:"format" yaml:"format,omitempty" json:"format,omitempty"`

	// NoColor disables colored output
	NoColor bool `mapstructure:"no-color" yaml:"no-color,omitempty" json:"noColor,omitempty"`
}

// Paths lists the state files multikube reads and writes
type Paths struct {
	// Dir is the state directory root
	Dir string

	// ClusterCache is the discovered cluster cache
	ClusterCache string

	// Contexts is the named context store
	Contexts string

	// Regions is the persisted region list
	Regions string

	// Kubeconfigs is the directory of per-cluster kubeconfig material
	Kubeconfigs string

	// Lock is the advisory lock guarding cache rebuilds
	Lock string
}
