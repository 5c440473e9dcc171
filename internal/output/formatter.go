package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aryankumar/multikube/internal/util"
)

// Format represents the output format type
type Format string

const (
	// FormatText renders merged tables kubectl-style and stream output line by line
	FormatText Format = "text"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name; the empty string means text
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json or yaml)", util.ErrInvalidConfig, s)
	}
}

// Formatter writes a result document to w
type Formatter interface {
	Format(w io.Writer, data interface{}) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// ErrOut receives warnings and stderr passthrough in text format
	ErrOut io.Writer
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithErrOut sets the writer for warnings
func WithErrOut(w io.Writer) Option {
	return func(o *Options) {
		o.ErrOut = w
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{ErrOut: os.Stderr}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON, FormatYAML:
		return NewDocumentFormatter(format, options)
	default:
		return NewTableFormatter(options)
	}
}
