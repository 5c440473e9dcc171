package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aryankumar/multikube/internal/util"
	"github.com/spf13/viper"
)

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		env           map[string]string
		wantErr       bool
		wantTTL       time.Duration
		wantTimeout   time.Duration
		wantParallel  int
		wantRegions   []string
		wantFormat    string
	}{
		{
			name: "full config",
			configContent: `
cache-ttl: 24h
timeout: 45s
parallel: 12
retries: 2
regions:
  - us-east-1
  - eu-west-1
format: yaml
`,
			wantTTL:      24 * time.Hour,
			wantTimeout:  45 * time.Second,
			wantParallel: 12,
			wantRegions:  []string{"us-east-1", "eu-west-1"},
			wantFormat:   "yaml",
		},
		{
			name:          "empty config uses defaults",
			configContent: "",
			wantTTL:       DefaultCacheTTL,
			wantTimeout:   DefaultTimeout,
			wantParallel:  DefaultParallel(),
			wantRegions:   []string{},
			wantFormat:    "text",
		},
		{
			name:          "bare number ttl is seconds",
			configContent: "cache-ttl: 3600\n",
			wantTTL:       time.Hour,
			wantTimeout:   DefaultTimeout,
			wantParallel:  DefaultParallel(),
			wantRegions:   []string{},
			wantFormat:    "text",
		},
		{
			name:          "environment overrides file",
			configContent: "cache-ttl: 24h\n",
			env:           map[string]string{"MULTIKUBE_CACHE_TTL": "31536000", "MULTIKUBE_TIMEOUT": "5s"},
			wantTTL:       365 * 24 * time.Hour,
			wantTimeout:   5 * time.Second,
			wantParallel:  DefaultParallel(),
			wantRegions:   []string{},
			wantFormat:    "text",
		},
		{
			name:          "unsupported format",
			configContent: "format: xml\n",
			wantErr:       true,
		},
		{
			name:          "negative parallel",
			configContent: "parallel: -1\n",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			content := tt.configContent + "state-dir: " + tmpDir + "\n"
			if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			manager := NewManager(viper.New(), configPath)
			cfg, err := manager.Load()

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, util.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cfg.CacheTTL != tt.wantTTL {
				t.Errorf("got cache ttl %v, want %v", cfg.CacheTTL, tt.wantTTL)
			}
			if cfg.Timeout != tt.wantTimeout {
				t.Errorf("got timeout %v, want %v", cfg.Timeout, tt.wantTimeout)
			}
			if cfg.Parallel != tt.wantParallel {
				t.Errorf("got parallel %d, want %d", cfg.Parallel, tt.wantParallel)
			}
			if !reflect.DeepEqual(cfg.Regions, tt.wantRegions) {
				t.Errorf("got regions %v, want %v", cfg.Regions, tt.wantRegions)
			}
			if cfg.Format != tt.wantFormat {
				t.Errorf("got format %q, want %q", cfg.Format, tt.wantFormat)
			}
			if cfg.StateDir != tmpDir {
				t.Errorf("got state dir %q, want %q", cfg.StateDir, tmpDir)
			}
			if manager.ConfigFileUsed() != configPath {
				t.Errorf("got config file %q, want %q", manager.ConfigFileUsed(), configPath)
			}
		})
	}
}

func TestManager_LoadMissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("MULTIKUBE_STATE_DIR", tmpDir)

	manager := NewManager(viper.New(), filepath.Join(tmpDir, "missing.yaml"))
	cfg, err := manager.Load()
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if cfg.StateDir != tmpDir {
		t.Errorf("got state dir %q, want %q", cfg.StateDir, tmpDir)
	}
	if cfg.Kubectl != "kubectl" {
		t.Errorf("got kubectl %q, want kubectl", cfg.Kubectl)
	}
}

func TestPathsFor(t *testing.T) {
	p := PathsFor("/state")

	expected := Paths{
		Dir:          "/state",
		ClusterCache: "/state/clusters.yaml",
		Contexts:     "/state/contexts.yaml",
		Regions:      "/state/regions.yaml",
		Kubeconfigs:  "/state/kubeconfigs",
		Lock:         "/state/.lock",
	}
	if p != expected {
		t.Errorf("PathsFor() = %+v, want %+v", p, expected)
	}
}

func TestDefaultParallel(t *testing.T) {
	n := DefaultParallel()
	if n < minParallel || n > maxParallelCap {
		t.Errorf("DefaultParallel() = %d, want within [%d, %d]", n, minParallel, maxParallelCap)
	}
}
