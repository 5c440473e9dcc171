package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for the multikube CLI
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClusterNotFound indicates a cluster was not found in the cache
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrDiscovery indicates a cloud discovery query failed
	ErrDiscovery = errors.New("cluster discovery failed")

	// ErrCacheCorrupt indicates a persisted state file could not be parsed
	ErrCacheCorrupt = errors.New("cache file is corrupt")

	// ErrNoProfiles indicates no cloud profiles are configured
	ErrNoProfiles = errors.New("no AWS profiles configured")

	// ErrNoRegions indicates no regions are configured
	ErrNoRegions = errors.New("no regions configured")

	// ErrNoContext indicates no cluster context could be selected
	ErrNoContext = errors.New("no cluster context selected")

	// ErrNoTargets indicates the selection matched no cached clusters
	ErrNoTargets = errors.New("no matching clusters")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")

	// ErrPartialFailure indicates at least one cluster invocation failed
	ErrPartialFailure = errors.New("command failed on one or more clusters")
)

// ClusterError wraps an error with cluster context
type ClusterError struct {
	ClusterName string
	Err         error
}

// Error implements the error interface
func (e *ClusterError) Error() string {
	return fmt.Sprintf("cluster %q: %v", e.ClusterName, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *ClusterError) Unwrap() error {
	return e.Err
}

// WrapClusterError wraps an error with cluster context
func WrapClusterError(clusterName string, err error) error {
	if err == nil {
		return nil
	}
	return &ClusterError{
		ClusterName: clusterName,
		Err:         err,
	}
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 {
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Len returns the number of collected errors
func (m *MultiError) Len() int {
	return len(m.Errors)
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError creates a new MultiError from a slice of errors
// It filters out nil errors
func NewMultiError(errors []error) *MultiError {
	m := &MultiError{
		Errors: make([]error, 0, len(errors)),
	}
	for _, err := range errors {
		if err != nil {
			m.Errors = append(m.Errors, err)
		}
	}
	return m
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClusterNotFound) || errors.Is(err, ErrNoTargets)
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrPartialFailure):
		return err.Error()
	case IsTimeout(err):
		return "Operation timed out. Increase the limit with --timeout or --run-timeout."
	case IsCancelled(err):
		return "Operation was cancelled."
	case errors.Is(err, ErrNoProfiles):
		return "No AWS profiles found. Add [profile ...] sections to ~/.aws/config or set 'profiles' in the multikube config."
	case errors.Is(err, ErrNoRegions):
		return "No regions configured. Set 'regions' in the multikube config or answer the region prompt."
	case errors.Is(err, ErrNoContext):
		return err.Error() + ". Store one with --store-context PATTERN --name NAME, then select it with --set-context NAME."
	case IsNotFound(err):
		return err.Error() + ". Refresh the cluster cache with --renew-cache if clusters were added recently."
	case errors.Is(err, ErrInvalidConfig):
		return err.Error() + ". Check your config file and command-line flags."
	default:
		return err.Error()
	}
}

// CombineErrors combines multiple errors into a single error
// Returns nil if all errors are nil
func CombineErrors(errors ...error) error {
	m := NewMultiError(errors)
	return m.ErrorOrNil()
}
