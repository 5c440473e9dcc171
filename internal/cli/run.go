package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aryankumar/multikube/internal/aggregate"
	"github.com/aryankumar/multikube/internal/cache"
	"github.com/aryankumar/multikube/internal/executor"
	"github.com/aryankumar/multikube/internal/util"
)

// run fans args out to every selected cluster and renders the merged report
func (a *app) run(ctx context.Context, args []string) error {
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

	if a.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RunTimeout)
		defer cancel()
	}

	runner := a.env.Runner
	if runner == nil {
		runner = executor.NewExecRunner(a.cfg.Kubectl)
	}

	dispatcher := executor.NewDispatcher(runner, a.kubeconfigs, a.logger,
		executor.WithWorkers(a.cfg.Parallel),
		executor.WithTimeout(a.cfg.Timeout),
		executor.WithRetries(a.cfg.Retries, a.cfg.RetryBackoff),
		executor.WithNotBefore(snap.DiscoveredAt),
	)

	results := dispatcher.Dispatch(ctx, targets, args)

	mode := aggregate.Classify(args)
	report := aggregate.New(a.logger).Aggregate(mode, results)

	if err := a.formatter.Format(a.env.Stdout, report); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}

	if report.RowCount() == 0 && len(report.Lines) == 0 && !report.HasFailures() {
		a.logger.Info("no output returned", "clusters", len(targets))
	}

	if report.HasFailures() {
		return fmt.Errorf("%w: %d of %d clusters", util.ErrPartialFailure, report.Summary.Failed, report.Summary.Total)
	}
	return nil
}

// targets resolves the selected clusters: --clusters when given, otherwise
// the matches of the active context, in sorted key order
func (a *app) targets(snap *cache.Snapshot) ([]executor.Target, error) {
	var keys []string

	if len(a.opts.clusters) > 0 {
		var missing []string
		seen := make(map[string]bool)
		for _, raw := range a.opts.clusters {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			key, ok := lookupKey(snap, raw)
			if !ok {
				missing = append(missing, raw)
				continue
			}
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w in cache: %s", util.ErrClusterNotFound, strings.Join(missing, ", "))
		}
	} else {
		name, err := a.activeContext()
		if err != nil {
			return nil, err
		}
		keys, err = a.contexts.Resolve(name, snap.Names())
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			pattern, _ := a.contexts.Pattern(name)
			return nil, fmt.Errorf("context %q (pattern %q) matched none of %d cached clusters: %w",
				name, pattern, snap.Len(), util.ErrNoTargets)
		}
		a.logger.Debug("context resolved", "context", name, "clusters", len(keys))
	}

	if len(keys) == 0 {
		return nil, util.ErrNoTargets
	}

	targets := make([]executor.Target, 0, len(keys))
	for _, key := range keys {
		desc, _ := snap.Lookup(key)
		targets = append(targets, executor.Target{Name: key, Descriptor: desc})
	}
	return targets, nil
}

// lookupKey finds the cache key for a user-supplied name or ARN
func lookupKey(snap *cache.Snapshot, raw string) (string, bool) {
	short := util.ShortClusterName(raw)
	if _, ok := snap.Lookup(short); ok {
		return short, true
	}
	if account := util.AccountFromARN(raw); account != "" {
		key := short + "@" + account
		if _, ok := snap.Lookup(key); ok {
			return key, true
		}
	}
	return "", false
}
