package kubeconfig

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aryankumar/multikube/internal/discovery"
	"github.com/aryankumar/multikube/internal/util"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

const (
	fileSuffix = ".kubeconfig"

	execAPIVersion = "client.authentication.k8s.io/v1beta1"
)

// Store generates and caches one kubeconfig file per cluster
type Store struct {
	dir    string
	awsBin string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. awsBin is the CLI invoked by the
// credential plugin to mint tokens.
func NewStore(dir, awsBin string, logger *slog.Logger) *Store {
	if awsBin == "" {
		awsBin = "aws"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, awsBin: awsBin, logger: logger}
}

// Dir returns the directory holding generated kubeconfigs
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the material for desc lives
func (s *Store) Path(desc discovery.Descriptor) string {
	return filepath.Join(s.dir, fileName(desc))
}

func fileName(desc discovery.Descriptor) string {
	name := desc.Name
	if desc.Account != "" {
		name = desc.Account + "-" + desc.Name
	}
	return strings.ReplaceAll(name, string(filepath.Separator), "_") + fileSuffix
}

// Ensure returns a usable kubeconfig path for desc. Material that is missing,
// unreadable, or written before notBefore is regenerated.
func (s *Store) Ensure(desc discovery.Descriptor, notBefore time.Time) (string, error) {
	path := s.Path(desc)

	if reason := s.stale(path, notBefore); reason != "" {
		s.logger.Debug("generating kubeconfig", "cluster", desc.Name, "path", path, "reason", reason)
		if err := s.generate(desc, path); err != nil {
			return "", util.WrapClusterError(desc.Name, fmt.Errorf("failed to generate kubeconfig: %w", err))
		}
	}

	return path, nil
}

func (s *Store) stale(path string, notBefore time.Time) string {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "missing"
		}
		return "unreadable"
	}
	if info.ModTime().Before(notBefore) {
		return "older than cluster cache"
	}

	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return "corrupt"
	}
	if _, ok := cfg.Contexts[cfg.CurrentContext]; !ok {
		return "no current context"
	}
	return ""
}

// Build returns the kubeconfig for desc without writing it
func (s *Store) Build(desc discovery.Descriptor) (*api.Config, error) {
	if desc.Endpoint == "" {
		return nil, fmt.Errorf("no API endpoint recorded for cluster %s, run with --renew-cache", desc.Name)
	}

	ca, err := base64.StdEncoding.DecodeString(desc.CAData)
	if err != nil {
		return nil, fmt.Errorf("invalid certificate authority data: %w", err)
	}

	name := desc.ARN
	if name == "" {
		name = desc.Name
	}

	cluster := api.NewCluster()
	cluster.Server = desc.Endpoint
	cluster.CertificateAuthorityData = ca

	args := []string{"--region", desc.Region, "eks", "get-token", "--cluster-name", desc.Name, "--output", "json"}
	user := api.NewAuthInfo()
	user.Exec = &api.ExecConfig{
		APIVersion:      execAPIVersion,
		Command:         s.awsBin,
		Args:            args,
		InteractiveMode: api.NeverExecInteractiveMode,
	}
	if desc.Profile != "" {
		user.Exec.Env = []api.ExecEnvVar{{Name: "AWS_PROFILE", Value: desc.Profile}}
	}

	context := api.NewContext()
	context.Cluster = name
	context.AuthInfo = name

	cfg := api.NewConfig()
	cfg.Clusters[name] = cluster
	cfg.AuthInfos[name] = user
	cfg.Contexts[name] = context
	cfg.CurrentContext = name

	return cfg, nil
}

func (s *Store) generate(desc discovery.Descriptor, path string) error {
	cfg, err := s.Build(desc)
	if err != nil {
		return err
	}

	data, err := clientcmd.Write(*cfg)
	if err != nil {
		return fmt.Errorf("failed to encode kubeconfig: %w", err)
	}

	return util.WriteFileAtomic(path, data, 0o600)
}

// Prune removes material for clusters not in keep
func (s *Store) Prune(keep []discovery.Descriptor) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", s.dir, err)
	}

	wanted := sets.New[string]()
	for _, d := range keep {
		wanted.Insert(fileName(d))
	}

	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) || wanted.Has(e.Name()) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("removed stale kubeconfig", "path", path)
	}

	return util.CombineErrors(errs...)
}

// RESTConfig builds a client configuration from a generated kubeconfig
func RESTConfig(path string) (*rest.Config, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig %s: %w", path, err)
	}
	return cfg, nil
}
