package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aryankumar/multikube/internal/aggregate"
	"github.com/aryankumar/multikube/internal/cache"
	"github.com/aryankumar/multikube/internal/cluster"
	"github.com/aryankumar/multikube/internal/contexts"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter renders human-readable text: kubectl-style tables for
// tabular data and prefixed lines for stream output
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	if opts.ErrOut == nil {
		opts.ErrOut = io.Discard
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format renders data according to its type
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *aggregate.Report:
		return f.formatReport(w, v)
	case []cluster.Health:
		return f.formatHealth(w, v)
	case []cache.Entry:
		return f.formatClusters(w, v)
	case []contexts.Entry:
		return f.formatContexts(w, v)
	case []string:
		for _, line := range v {
			fmt.Fprintln(w, line)
		}
		return nil
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// formatReport writes the merged output to w. Warnings and passthrough stderr
// go to ErrOut; failure diagnostics stay on w so they survive a pipe.
func (f *TableFormatter) formatReport(w io.Writer, r *aggregate.Report) error {
	colors := NewColorScheme(w, f.options.NoColor)
	errColors := NewColorScheme(f.options.ErrOut, f.options.NoColor)

	for _, warning := range r.Warnings() {
		fmt.Fprintln(f.options.ErrOut, errColors.Warning("warning: %s", warning))
	}

	if r.Mode == aggregate.ModeTabular {
		for i, t := range r.Tables {
			if i > 0 {
				fmt.Fprintln(w)
			}
			table := f.createTable(w)
			f.setHeader(table, t.Header, colors)
			for _, row := range t.Rows {
				out := make([]string, len(row))
				copy(out, row)
				out[0] = colors.ClusterName("%s", out[0])
				table.Append(out)
			}
			table.Render()
		}
		for _, d := range r.Diagnostics {
			fmt.Fprintln(w, colors.Error("%s", d))
		}
	} else {
		for _, line := range r.Lines {
			if line.Diagnostic {
				fmt.Fprintln(w, colors.Error("%s", line.String()))
				continue
			}
			fmt.Fprintf(w, "%s %s\n", colors.ClusterName("%s:", line.Cluster), line.Text)
		}
	}

	for _, line := range r.Stderr {
		fmt.Fprintln(f.options.ErrOut, line)
	}

	if r.HasFailures() {
		fmt.Fprintf(f.options.ErrOut, "\n%s\n", f.summary(r.Summary, errColors))
	}
	return nil
}

func (f *TableFormatter) summary(s aggregate.Summary, colors *ColorScheme) string {
	failed := fmt.Sprintf("%d failed", s.Failed)
	if s.Failed > 0 {
		failed = colors.Error("%s", failed)
	}
	return fmt.Sprintf("Summary: %s, %s of %d clusters",
		colors.Success("%d succeeded", s.Succeeded), failed, s.Total)
}

func (f *TableFormatter) formatHealth(w io.Writer, results []cluster.Health) error {
	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)
	f.setHeader(table, []string{"CLUSTER", "STATUS", "VERSION", "NODES", "DURATION", "ERROR"}, colors)

	for _, h := range results {
		nodes := "-"
		if h.Nodes >= 0 {
			nodes = fmt.Sprintf("%d/%d", h.ReadyNodes, h.Nodes)
		}
		version := h.Version
		if version == "" {
			version = "-"
		}
		table.Append([]string{
			colors.ClusterName("%s", h.Cluster),
			colors.StateColor(h.State)("%s", h.State),
			version,
			nodes,
			colors.Duration("%s", h.Duration.Round(time.Millisecond)),
			h.Error,
		})
	}

	table.Render()
	return nil
}

func (f *TableFormatter) formatClusters(w io.Writer, entries []cache.Entry) error {
	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)
	f.setHeader(table, []string{"CLUSTER", "ACCOUNT", "REGION", "PROFILE"}, colors)

	for _, e := range entries {
		table.Append([]string{colors.ClusterName("%s", e.Key), e.Account, e.Region, e.Profile})
	}

	table.Render()
	return nil
}

func (f *TableFormatter) formatContexts(w io.Writer, entries []contexts.Entry) error {
	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)
	f.setHeader(table, []string{"DEFAULT", "NAME", "PATTERN"}, colors)

	for _, e := range entries {
		mark := ""
		if e.Default {
			mark = "*"
		}
		table.Append([]string{mark, e.Name, strconv.Quote(e.Pattern)})
	}

	table.Render()
	return nil
}

func (f *TableFormatter) setHeader(table *tablewriter.Table, headers []string, colors *ColorScheme) {
	if colors.Disabled {
		table.SetHeader(headers)
		return
	}
	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = colors.Header("%s", h)
	}
	table.SetHeader(colored)
}

// createTable creates a new table with kubectl-style configuration
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("   ")
	table.SetNoWhiteSpace(true)

	return table
}
