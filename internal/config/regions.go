package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/aryankumar/multikube/internal/util"
	"gopkg.in/yaml.v3"
)

// regionFile is the on-disk layout of the region list
type regionFile struct {
	Regions []string `yaml:"regions"`
}

// RegionStore persists the list of regions scanned during discovery
type RegionStore struct {
	path string
}

// NewRegionStore creates a region store backed by path
func NewRegionStore(path string) *RegionStore {
	return &RegionStore{path: path}
}

// Path returns the backing file
func (s *RegionStore) Path() string {
	return s.path
}

// Load returns the stored regions. A missing file yields no regions; a corrupt
// file yields no regions and an error wrapping util.ErrCacheCorrupt.
func (s *RegionStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read region file: %w", err)
	}

	var file regionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", util.ErrCacheCorrupt, s.path, err)
	}
	return trimList(file.Regions), nil
}

// Save replaces the stored region list
func (s *RegionStore) Save(regions []string) error {
	regions = trimList(regions)
	if len(regions) == 0 {
		return util.ErrNoRegions
	}

	data, err := yaml.Marshal(regionFile{Regions: regions})
	if err != nil {
		return fmt.Errorf("failed to encode regions: %w", err)
	}
	if err := util.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save regions: %w", err)
	}
	return nil
}

// ParseRegionList splits user input such as "us-east-1, eu-west-1"
func ParseRegionList(input string) []string {
	return trimList([]string{input})
}
