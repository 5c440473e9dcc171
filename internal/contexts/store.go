package contexts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/aryankumar/multikube/internal/util"
	"gopkg.in/yaml.v3"
)

// UnknownContextError reports a context name absent from the store
type UnknownContextError struct {
	Name      string
	Available []string
}

func (e *UnknownContextError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown context %q: no contexts stored", e.Name)
	}
	return fmt.Sprintf("unknown context %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Is lets callers match with errors.Is(err, util.ErrNoContext)
func (e *UnknownContextError) Is(target error) bool {
	return target == util.ErrNoContext
}

// document is the on-disk layout of the context store
type document struct {
	Default  string            `yaml:"default,omitempty"`
	Contexts map[string]string `yaml:"contexts"`
}

// Store persists named cluster-selection patterns and the default context
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by the file at path
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file location
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() document {
	doc := document{Contexts: make(map[string]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("context store unreadable, treating as empty", "path", s.path, "error", err)
		}
		return doc
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("context store corrupt, treating as empty",
			"path", s.path,
			"error", fmt.Errorf("%w: %v", util.ErrCacheCorrupt, err))
		return document{Contexts: make(map[string]string)}
	}
	if doc.Contexts == nil {
		doc.Contexts = make(map[string]string)
	}
	if _, ok := doc.Contexts[doc.Default]; !ok {
		doc.Default = ""
	}
	return doc
}

func (s *Store) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode context store: %w", err)
	}
	if err := util.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write context store: %w", err)
	}
	return nil
}

// Save stores pattern under name, replacing any previous pattern
func (s *Store) Save(name, pattern string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: context name must not be empty", util.ErrInvalidConfig)
	}
	if _, err := compile(pattern); err != nil {
		return err
	}

	doc := s.load()
	doc.Contexts[name] = pattern
	if err := s.write(doc); err != nil {
		return err
	}

	s.logger.Debug("context saved", "name", name, "pattern", pattern)
	return nil
}

// Pattern returns the pattern stored under name
func (s *Store) Pattern(name string) (string, error) {
	doc := s.load()
	pattern, ok := doc.Contexts[name]
	if !ok {
		return "", &UnknownContextError{Name: name, Available: sortedKeys(doc.Contexts)}
	}
	return pattern, nil
}

// Resolve applies the pattern stored under name to names
func (s *Store) Resolve(name string, names []string) ([]string, error) {
	pattern, err := s.Pattern(name)
	if err != nil {
		return nil, err
	}
	return Match(pattern, names)
}

// ListNames returns every stored context name, sorted
func (s *Store) ListNames() []string {
	return sortedKeys(s.load().Contexts)
}

// Entry is one stored context as shown in listings
type Entry struct {
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Default bool   `json:"default" yaml:"default"`
}

// Entries returns every stored context sorted by name
func (s *Store) Entries() []Entry {
	doc := s.load()
	out := make([]Entry, 0, len(doc.Contexts))
	for _, name := range sortedKeys(doc.Contexts) {
		out = append(out, Entry{Name: name, Pattern: doc.Contexts[name], Default: name == doc.Default})
	}
	return out
}

// Default returns the default context name, or "" when unset
func (s *Store) Default() string {
	return s.load().Default
}

// SetDefault marks an existing context as the default
func (s *Store) SetDefault(name string) error {
	doc := s.load()
	if _, ok := doc.Contexts[name]; !ok {
		return &UnknownContextError{Name: name, Available: sortedKeys(doc.Contexts)}
	}
	doc.Default = name
	return s.write(doc)
}

// Delete removes a context. Deleting the default context clears the default.
func (s *Store) Delete(name string) error {
	doc := s.load()
	if _, ok := doc.Contexts[name]; !ok {
		return &UnknownContextError{Name: name, Available: sortedKeys(doc.Contexts)}
	}
	delete(doc.Contexts, name)
	if doc.Default == name {
		doc.Default = ""
	}
	return s.write(doc)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
