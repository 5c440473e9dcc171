package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aryankumar/multikube/internal/cache"
	"github.com/aryankumar/multikube/internal/config"
	"github.com/aryankumar/multikube/internal/contexts"
	"github.com/aryankumar/multikube/internal/discovery"
	"github.com/aryankumar/multikube/internal/kubeconfig"
	"github.com/aryankumar/multikube/internal/output"
	"github.com/aryankumar/multikube/internal/prompt"
	"github.com/aryankumar/multikube/internal/util"
	"github.com/spf13/viper"
)

// app is one resolved invocation: configuration plus the stores it operates on
type app struct {
	env    *Environment
	opts   *options
	cfg    *config.Config
	paths  config.Paths
	logger *slog.Logger

	cache       *cache.Cache
	contexts    *contexts.Store
	regions     *config.RegionStore
	kubeconfigs *kubeconfig.Store
	prompter    *prompt.Prompter
	formatter   output.Formatter
}

func newApp(v *viper.Viper, env *Environment, opts *options) (*app, error) {
	mgr := config.NewManager(v, opts.configFile)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

	logger := setupLogging(env.Stderr, opts.verbose, cfg.NoColor)
	if used := mgr.ConfigFileUsed(); used != "" {
		logger.Debug("loaded configuration", "file", used)
	}

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	paths := mgr.Paths()
	a := &app{
		env:         env,
		opts:        opts,
		cfg:         cfg,
		paths:       paths,
		logger:      logger,
		contexts:    contexts.NewStore(paths.Contexts, logger),
		regions:     config.NewRegionStore(paths.Regions),
		kubeconfigs: kubeconfig.NewStore(paths.Kubeconfigs, cfg.AWS, logger),
		prompter:    prompt.New(env.Stdin, env.Stderr),
		formatter: output.NewFormatter(format,
			output.WithNoColor(cfg.NoColor),
			output.WithErrOut(env.Stderr),
		),
	}

	provider := env.Provider
	if provider == nil {
		provider = discovery.NewEKSProvider(logger)
	}
	discoverer := discovery.NewDiscoverer(provider, logger, discovery.WithParallelism(cfg.Parallel))
	a.cache = cache.New(paths.ClusterCache, paths.Lock, cfg.CacheTTL, discoverer, logger,
		cache.WithPruner(a.kubeconfigs))

	return a, nil
}

// scope resolves the (profiles, regions) to scan, asking for regions when
// none are configured or stored
func (a *app) scope() ([]string, []string, error) {
	profiles, err := a.cfg.ResolveProfiles()
	if err != nil {
		return nil, nil, err
	}

	regions, err := a.resolveRegions()
	if err != nil {
		return nil, nil, err
	}
	return profiles, regions, nil
}

func (a *app) resolveRegions() ([]string, error) {
	if len(a.cfg.Regions) > 0 {
		return a.cfg.Regions, nil
	}

	regions, err := a.regions.Load()
	if err != nil {
		if !errors.Is(err, util.ErrCacheCorrupt) {
			return nil, err
		}
		a.logger.Warn("region file corrupt, asking again", "path", a.regions.Path(), "error", err)
	}
	if len(regions) > 0 {
		return regions, nil
	}

	if !a.prompter.Interactive() {
		return nil, fmt.Errorf("%w: set --regions or MULTIKUBE_REGIONS", util.ErrNoRegions)
	}
	for {
		answer, err := a.prompter.Input("AWS regions to scan (comma separated, e.g. us-east-1,eu-west-1)")
		if err != nil {
			return nil, err
		}
		if regions = config.ParseRegionList(answer); len(regions) > 0 {
			break
		}
	}

	if err := a.regions.Save(regions); err != nil {
		return nil, err
	}
	a.logger.Info("regions saved", "path", a.regions.Path(), "regions", regions)
	return regions, nil
}

// snapshot returns the cluster inventory, rediscovering when stale or forced
func (a *app) snapshot(ctx context.Context, force bool) (*cache.Snapshot, error) {
	return a.cache.Get(ctx, force, a.scope)
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
