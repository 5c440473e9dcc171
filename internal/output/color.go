package output

import (
	"fmt"
	"io"
	"os"

	"github.com/aryankumar/multikube/internal/cluster"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme provides color functions for different output elements
type ColorScheme struct {
	// ClusterName colors cluster prefixes and cluster columns
	ClusterName func(format string, a ...interface{}) string

	Success func(format string, a ...interface{}) string
	Error   func(format string, a ...interface{}) string
	Warning func(format string, a ...interface{}) string

	// Header colors table headers
	Header func(format string, a ...interface{}) string

	Duration func(format string, a ...interface{}) string

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a new color scheme.
// Colors are disabled for non-TTY outputs or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !isTTY(w) {
		return &ColorScheme{
			ClusterName: fmt.Sprintf,
			Success:     fmt.Sprintf,
			Error:       fmt.Sprintf,
			Warning:     fmt.Sprintf,
			Header:      fmt.Sprintf,
			Duration:    fmt.Sprintf,
			Disabled:    true,
		}
	}

	return &ColorScheme{
		ClusterName: color.New(color.FgCyan, color.Bold).Sprintf,
		Success:     color.New(color.FgGreen).Sprintf,
		Error:       color.New(color.FgRed, color.Bold).Sprintf,
		Warning:     color.New(color.FgYellow).Sprintf,
		Header:      color.New(color.FgWhite, color.Bold).Sprintf,
		Duration:    color.New(color.FgBlue).Sprintf,
		Disabled:    false,
	}
}

// isTTY checks if the writer is a terminal
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StateColor picks the color for a cluster health state: green when healthy,
// yellow when the API answered but nodes are not all ready, red otherwise
func (cs *ColorScheme) StateColor(state cluster.State) func(format string, a ...interface{}) string {
	switch state {
	case cluster.StateHealthy:
		return cs.Success
	case cluster.StateDegraded:
		return cs.Warning
	default:
		return cs.Error
	}
}
