package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aryankumar/multikube/internal/util"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/sets"
)

// defaultQueryParallelism bounds concurrent cloud API queries
const defaultQueryParallelism = 8

// Result is the outcome of a discovery pass
type Result struct {
	// Clusters is the deduplicated descriptor list, sorted by name then account
	Clusters []Descriptor

	// Failures lists the (profile, region) queries that failed and were skipped
	Failures []*Error

	// Queried is the number of (profile, region) pairs scanned
	Queried int
}

// Discoverer scans every (profile, region) pair through a Provider
type Discoverer struct {
	provider Provider
	parallel int
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Discoverer
type Option func(*Discoverer)

// WithParallelism sets how many pairs are queried at once
func WithParallelism(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.parallel = n
		}
	}
}

// WithClock overrides the discovery timestamp source
func WithClock(now func() time.Time) Option {
	return func(d *Discoverer) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDiscoverer creates a discoverer over provider
func NewDiscoverer(provider Provider, logger *slog.Logger, opts ...Option) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Discoverer{
		provider: provider,
		parallel: defaultQueryParallelism,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover queries every (profile, region) pair. A failed pair is logged and
// skipped; finding zero clusters is a valid result. Discover returns an error
// only when the context is cancelled or when every pair failed, since either
// would otherwise be mistaken for a complete, empty inventory.
func (d *Discoverer) Discover(ctx context.Context, profiles, regions []string) (*Result, error) {
	type pair struct{ profile, region string }

	pairs := make([]pair, 0, len(profiles)*len(regions))
	for _, p := range profiles {
		for _, r := range regions {
			pairs = append(pairs, pair{profile: p, region: r})
		}
	}

	result := &Result{Queried: len(pairs)}
	if len(pairs) == 0 {
		return result, nil
	}

	d.logger.Info("discovering clusters", "profiles", len(profiles), "regions", len(regions))

	found := make([][]Descriptor, len(pairs))
	failed := make([]*Error, len(pairs))

	g := new(errgroup.Group)
	g.SetLimit(d.parallel)

	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if ctx.Err() != nil {
				failed[i] = &Error{Profile: p.profile, Region: p.region, Err: ctx.Err()}
				return nil
			}

			clusters, err := d.provider.ListClusters(ctx, p.profile, p.region)
			if err != nil {
				d.logger.Error("failed to list clusters, skipping",
					"profile", p.profile,
					"region", p.region,
					"error", err)
				failed[i] = &Error{Profile: p.profile, Region: p.region, Err: err}
				return nil
			}

			d.logger.Debug("listed clusters",
				"profile", p.profile,
				"region", p.region,
				"count", len(clusters))
			found[i] = clusters
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovery interrupted: %w", err)
	}

	errs := &util.MultiError{}
	for _, f := range failed {
		if f != nil {
			result.Failures = append(result.Failures, f)
			errs.Add(f)
		}
	}
	if len(result.Failures) == len(pairs) {
		return nil, fmt.Errorf("all %d discovery queries failed: %w", len(pairs), errs)
	}

	now := d.now().UTC()
	seen := sets.New[string]()
	for i := range pairs {
		for _, c := range found[i] {
			if c.Name == "" || seen.Has(c.Key()) {
				continue
			}
			seen.Insert(c.Key())
			if c.DiscoveredAt.IsZero() {
				c.DiscoveredAt = now
			}
			result.Clusters = append(result.Clusters, c)
		}
	}

	sort.SliceStable(result.Clusters, func(i, j int) bool {
		a, b := result.Clusters[i], result.Clusters[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Account < b.Account
	})

	d.logger.Info("discovery completed",
		"clusters", len(result.Clusters),
		"queries", len(pairs),
		"failed_queries", len(result.Failures))

	return result, nil
}
