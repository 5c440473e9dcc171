package cache

import (
	"sort"
	"time"

	"github.com/aryankumar/multikube/internal/discovery"
)

// Snapshot is one complete discovery pass as persisted on disk.
// It is either entirely fresh or entirely replaced; entries are never refreshed individually.
type Snapshot struct {
	// DiscoveredAt is when the whole snapshot was produced
	DiscoveredAt time.Time `yaml:"discoveredAt" json:"discoveredAt"`

	// Clusters maps the cluster key to its descriptor. The key is the cluster
	// name, or name@account when several accounts share that name.
	Clusters map[string]discovery.Descriptor `yaml:"clusters" json:"clusters"`
}

// NewSnapshot builds a snapshot from a discovery result
func NewSnapshot(clusters []discovery.Descriptor, discoveredAt time.Time) *Snapshot {
	counts := make(map[string]int, len(clusters))
	for _, c := range clusters {
		counts[c.Name]++
	}

	s := &Snapshot{
		DiscoveredAt: discoveredAt.UTC(),
		Clusters:     make(map[string]discovery.Descriptor, len(clusters)),
	}
	for _, c := range clusters {
		key := c.Name
		if counts[c.Name] > 1 {
			key = c.Key()
		}
		s.Clusters[key] = c
	}
	return s
}

// Fresh reports whether the snapshot is younger than ttl at now
func (s *Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	if s == nil || s.DiscoveredAt.IsZero() {
		return false
	}
	return now.Sub(s.DiscoveredAt) < ttl
}

// Names returns the cluster keys in sorted order
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Clusters))
	for name := range s.Clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the descriptor stored under key
func (s *Snapshot) Lookup(key string) (discovery.Descriptor, bool) {
	if s == nil {
		return discovery.Descriptor{}, false
	}
	d, ok := s.Clusters[key]
	return d, ok
}

// Descriptors returns the stored descriptors in sorted key order
func (s *Snapshot) Descriptors() []discovery.Descriptor {
	names := s.Names()
	out := make([]discovery.Descriptor, 0, len(names))
	for _, n := range names {
		out = append(out, s.Clusters[n])
	}
	return out
}

// Len returns the number of cached clusters
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Clusters)
}

// Entry is one cached cluster as shown in listings
type Entry struct {
	Key      string `json:"key" yaml:"key"`
	Account  string `json:"account" yaml:"account"`
	Profile  string `json:"profile" yaml:"profile"`
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Entries returns the cached clusters in sorted key order
func (s *Snapshot) Entries() []Entry {
	names := s.Names()
	out := make([]Entry, 0, len(names))
	for _, n := range names {
		d := s.Clusters[n]
		out = append(out, Entry{Key: n, Account: d.Account, Profile: d.Profile, Region: d.Region, Endpoint: d.Endpoint})
	}
	return out
}
