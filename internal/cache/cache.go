package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aryankumar/multikube/internal/discovery"
	"github.com/aryankumar/multikube/internal/util"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const lockRetryDelay = 100 * time.Millisecond

// Discoverer produces a fresh cluster inventory
type Discoverer interface {
	Discover(ctx context.Context, profiles, regions []string) (*discovery.Result, error)
}

// Pruner drops derived per-cluster material for clusters no longer cached
type Pruner interface {
	Prune(keep []discovery.Descriptor) error
}

// ScopeFunc supplies the (profiles, regions) to scan. It is only called when a
// rebuild is needed, so interactive region prompts never run on a cache hit.
type ScopeFunc func() (profiles, regions []string, err error)

// Cache persists discovered cluster descriptors with a time-to-live
type Cache struct {
	path       string
	lock       *flock.Flock
	ttl        time.Duration
	discoverer Discoverer
	pruner     Pruner
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the time source used for freshness checks
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithPruner removes stale kubeconfig material after each rebuild
func WithPruner(p Pruner) Option {
	return func(c *Cache) {
		c.pruner = p
	}
}

// New creates a cache stored at path, locked through lockPath
func New(path, lockPath string, ttl time.Duration, discoverer Discoverer, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		path:       path,
		lock:       flock.New(lockPath),
		ttl:        ttl,
		discoverer: discoverer,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the cache file location
func (c *Cache) Path() string {
	return c.path
}

// TTL returns the configured time-to-live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Load reads the persisted cache. A missing, unreadable or corrupt file is
// treated as absent and reported as not fresh.
func (c *Cache) Load() (*Snapshot, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("cluster cache unreadable, treating as absent", "path", c.path, "error", err)
		}
		return nil, false
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil || snap.DiscoveredAt.IsZero() {
		if err == nil {
			err = errors.New("missing discoveredAt")
		}
		c.logger.Warn("cluster cache corrupt, treating as absent",
			"path", c.path,
			"error", fmt.Errorf("%w: %v", util.ErrCacheCorrupt, err))
		return nil, false
	}
	if snap.Clusters == nil {
		snap.Clusters = make(map[string]discovery.Descriptor)
	}

	return &snap, snap.Fresh(c.now(), c.ttl)
}

// Rebuild runs discovery and atomically replaces the cache with the result,
// discarding prior content. Rebuild holds the exclusive lock, so concurrent
// runs holding the shared lock never see kubeconfig material pruned under them.
func (c *Cache) Rebuild(ctx context.Context, profiles, regions []string) (*Snapshot, error) {
	unlock, err := c.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if len(profiles) == 0 {
		return nil, util.ErrNoProfiles
	}
	if len(regions) == 0 {
		return nil, util.ErrNoRegions
	}

	result, err := c.discoverer.Discover(ctx, profiles, regions)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild cluster cache: %w", err)
	}

	snap := NewSnapshot(result.Clusters, c.now())

	data, err := yaml.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cluster cache: %w", err)
	}
	if err := util.WriteFileAtomic(c.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write cluster cache: %w", err)
	}

	if c.pruner != nil {
		if err := c.pruner.Prune(snap.Descriptors()); err != nil {
			c.logger.Warn("failed to prune kubeconfig material", "error", err)
		}
	}

	c.logger.Info("cluster cache rebuilt",
		"path", c.path,
		"clusters", snap.Len(),
		"failed_queries", len(result.Failures))

	return snap, nil
}

// Get returns the cached snapshot when fresh and not forced, rebuilding otherwise
func (c *Cache) Get(ctx context.Context, force bool, scope ScopeFunc) (*Snapshot, error) {
	if !force {
		if snap, fresh := c.Load(); fresh {
			c.logger.Debug("using cached clusters",
				"clusters", snap.Len(),
				"discovered_at", snap.DiscoveredAt)
			return snap, nil
		}
		c.logger.Info("cluster cache missing or stale, rediscovering", "ttl", c.ttl)
	}

	profiles, regions, err := scope()
	if err != nil {
		return nil, err
	}
	return c.Rebuild(ctx, profiles, regions)
}

// RLock takes the shared lock held while commands run against cached clusters
func (c *Cache) RLock(ctx context.Context) (func(), error) {
	return c.acquire(ctx, true)
}

func (c *Cache) acquire(ctx context.Context, shared bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(c.lock.Path()), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = c.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = c.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", c.lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s", c.lock.Path())
	}

	return func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release cache lock", "error", err)
		}
	}, nil
}
