package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/aryankumar/multikube/internal/util"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	defaultStateDir   = "~/.multikube"
	defaultConfigName = "config"

	// DefaultCacheTTL is one year
	DefaultCacheTTL = 365 * 24 * time.Hour

	// DefaultTimeout bounds a single kubectl invocation
	DefaultTimeout = 20 * time.Second

	// DefaultRetryBackoff is the first delay between retries
	DefaultRetryBackoff = 2 * time.Second

	// maxParallelCap caps the default worker count to avoid exhausting process limits
	maxParallelCap = 50
	minParallel    = 4
)

// DefaultParallel returns the default worker ceiling: four workers per CPU, clamped to [4, 50].
func DefaultParallel() int {
	return min(max(4*runtime.NumCPU(), minParallel), maxParallelCap)
}

// Manager handles multikube configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager.
// v may already have flags bound; a nil v gets a fresh instance.
func NewManager(v *viper.Viper, configPath string) *Manager {
	if v == nil {
		v = viper.New()
	}
	return &Manager{
		configPath: configPath,
		viper:      v,
		config:     &Config{},
	}
}

// Load reads the config file (if any) and environment, and resolves defaults
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		dir, err := util.ExpandPath(defaultStateDir)
		if err != nil {
			return nil, err
		}
		m.viper.AddConfigPath(dir)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix("MULTIKUBE")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	m.viper.AutomaticEnv()

	m.viper.SetDefault("state-dir", defaultStateDir)
	m.viper.SetDefault("cache-ttl", DefaultCacheTTL)
	m.viper.SetDefault("timeout", DefaultTimeout)
	m.viper.SetDefault("retry-backoff", DefaultRetryBackoff)
	m.viper.SetDefault("kubectl", "kubectl")
	m.viper.SetDefault("aws", "aws")
	m.viper.SetDefault("format", "text")
	// Registered so AutomaticEnv lookups reach them during Unmarshal.
	m.viper.SetDefault("run-timeout", time.Duration(0))
	m.viper.SetDefault("parallel", 0)
	m.viper.SetDefault("retries", 0)
	m.viper.SetDefault("aws-config-file", "")
	m.viper.SetDefault("profiles", []string{})
	m.viper.SetDefault("regions", []string{})
	m.viper.SetDefault("no-color", false)

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := m.viper.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}

	m.config = cfg
	if err := m.applyDefaults(); err != nil {
		return nil, err
	}

	return m.config, nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// ConfigFileUsed returns the config file that was read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// Paths returns the state file layout under the configured state directory
func (m *Manager) Paths() Paths {
	return PathsFor(m.config.StateDir)
}

// PathsFor returns the state file layout rooted at dir
func PathsFor(dir string) Paths {
	return Paths{
		Dir:          dir,
		ClusterCache: filepath.Join(dir, "clusters.yaml"),
		Contexts:     filepath.Join(dir, "contexts.yaml"),
		Regions:      filepath.Join(dir, "regions.yaml"),
		Kubeconfigs:  filepath.Join(dir, "kubeconfigs"),
		Lock:         filepath.Join(dir, ".lock"),
	}
}

// applyDefaults fills zero values and validates ranges
func (m *Manager) applyDefaults() error {
	c := m.config

	if c.StateDir == "" {
		c.StateDir = defaultStateDir
	}
	dir, err := util.ExpandPath(c.StateDir)
	if err != nil {
		return err
	}
	c.StateDir = dir

	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("%w: run-timeout must not be negative", util.ErrInvalidConfig)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("%w: parallel must not be negative", util.ErrInvalidConfig)
	}
	if c.Parallel == 0 {
		c.Parallel = DefaultParallel()
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", util.ErrInvalidConfig)
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.Kubectl == "" {
		c.Kubectl = "kubectl"
	}
	if c.AWS == "" {
		c.AWS = "aws"
	}

	switch c.Format {
	case "", "text", "table":
		c.Format = "text"
	case "json", "yaml":
	default:
		return fmt.Errorf("%w: unsupported format %q (supported: text, json, yaml)", util.ErrInvalidConfig, c.Format)
	}

	c.Profiles = trimList(c.Profiles)
	c.Regions = trimList(c.Regions)

	return nil
}

// secondsToDurationHook treats bare numbers as seconds, matching MULTIKUBE_CACHE_TTL=31536000
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != durationType {
			return data, nil
		}
		switch f.Kind() {
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return time.Duration(n) * time.Second, nil
			}
			return data, nil
		case reflect.Int, reflect.Int32, reflect.Int64:
			if f == durationType {
				return data, nil
			}
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		}
		return data, nil
	}
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
