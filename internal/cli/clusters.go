package cli

import (
	"context"
	"fmt"

	"github.com/aryankumar/multikube/internal/cluster"
	"github.com/aryankumar/multikube/internal/discovery"
)

// initCache rediscovers every cluster, optionally refreshing SSO sessions first
func (a *app) initCache(ctx context.Context) error {
	profiles, regions, err := a.scope()
	if err != nil {
		return err
	}

	if a.opts.ssoLogin {
		login := a.env.SSOLogin
		if login == nil {
			login = func(ctx context.Context, awsBin, profile string) error {
				return discovery.SSOLogin(ctx, awsBin, profile, a.env.Stdin, a.env.Stderr, a.env.Stderr)
			}
		}
		for _, profile := range profiles {
			if err := login(ctx, a.cfg.AWS, profile); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn("sso login failed, continuing", "profile", profile, "error", err)
			}
		}
	}

	snap, err := a.cache.Rebuild(ctx, profiles, regions)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.env.Stdout, "Cluster cache initialized: %d clusters across %d profiles and %d regions\n",
		snap.Len(), len(profiles), len(regions))
	return nil
}

func (a *app) listClusters(ctx context.Context) error {
	snap, err := a.snapshot(ctx, a.opts.renew)
	if err != nil {
		return err
	}
	return a.formatter.Format(a.env.Stdout, snap.Entries())
}

// checkHealth probes the API server of every selected cluster
func (a *app) checkHealth(ctx context.Context) error {
	snap, err := a.snapshot(ctx, a.opts.renew)
	if err != nil {
		return err
	}

	targets, err := a.targets(snap)
	if err != nil {
		return err
	}

	unlock, err := a.cache.RLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	factory := a.env.Clients
	if factory == nil {
		factory = cluster.MaterializedClients(a.kubeconfigs, snap.DiscoveredAt, a.logger)
	}

	results := cluster.NewProber(factory, a.cfg.Parallel, a.cfg.Timeout, a.logger).Probe(ctx, targets)
	if err := a.formatter.Format(a.env.Stdout, results); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	return cluster.Unhealthy(results)
}
