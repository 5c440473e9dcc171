package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aryankumar/multikube/internal/util"
	"gopkg.in/ini.v1"
)

const profileSectionPrefix = "profile "

// AWSConfigPath resolves the shared AWS config file: explicit path, then
// AWS_CONFIG_FILE, then ~/.aws/config.
func AWSConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return util.ExpandPath(explicit)
	}
	if env := os.Getenv("AWS_CONFIG_FILE"); env != "" {
		return util.ExpandPath(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".aws", "config"), nil
}

// LoadAWSProfiles returns the named profiles ("[profile NAME]" sections) of the
// shared AWS config file, sorted. A missing file yields no profiles.
func LoadAWSProfiles(path string) ([]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", util.ErrCacheCorrupt, path, err)
	}

	profiles := make([]string, 0)
	for _, section := range file.Sections() {
		name := section.Name()
		if !strings.HasPrefix(name, profileSectionPrefix) {
			continue
		}
		if profile := strings.TrimSpace(strings.TrimPrefix(name, profileSectionPrefix)); profile != "" {
			profiles = append(profiles, profile)
		}
	}
	sort.Strings(profiles)

	return profiles, nil
}

// ResolveProfiles returns the configured profile override, or the profiles of the AWS config file
func (c *Config) ResolveProfiles() ([]string, error) {
	if len(c.Profiles) > 0 {
		return c.Profiles, nil
	}

	path, err := AWSConfigPath(c.AWSConfigFile)
	if err != nil {
		return nil, err
	}
	profiles, err := LoadAWSProfiles(path)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w in %s", util.ErrNoProfiles, path)
	}
	return profiles, nil
}
