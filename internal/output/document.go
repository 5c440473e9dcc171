package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DocumentFormatter writes data as a single JSON or YAML document. Field names
// come from the json and yaml struct tags of the rendered types.
type DocumentFormatter struct {
	format  Format
	options *Options
}

// NewDocumentFormatter creates a formatter for FormatJSON or FormatYAML
func NewDocumentFormatter(format Format, opts *Options) *DocumentFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &DocumentFormatter{format: format, options: opts}
}

// Format encodes data with two-space indentation
func (f *DocumentFormatter) Format(w io.Writer, data interface{}) error {
	switch f.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("document formatter does not support format %q", f.format)
	}
}
