package aggregate

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryankumar/multikube/internal/executor"
)

// ClusterColumn is the column prepended to every merged row
const ClusterColumn = "CLUSTER"

// ClusterStatus is one cluster's outcome as shown in a report
type ClusterStatus struct {
	Cluster  string          `json:"cluster" yaml:"cluster"`
	Status   executor.Status `json:"status" yaml:"status"`
	ExitCode int             `json:"exitCode" yaml:"exitCode"`
	Duration time.Duration   `json:"duration" yaml:"duration"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Mismatch records a cluster whose table header differs from the header
// chosen for the merged table. It degrades rendering, never the run.
type Mismatch struct {
	Cluster   string   `json:"cluster" yaml:"cluster"`
	Header    []string `json:"header" yaml:"header"`
	Projected bool     `json:"projected" yaml:"projected"`
	Dropped   int      `json:"dropped" yaml:"dropped"`
}

func (m Mismatch) String() string {
	if m.Projected {
		return fmt.Sprintf("%s: extra columns in header [%s], showing common columns only",
			m.Cluster, strings.Join(m.Header, ", "))
	}
	return fmt.Sprintf("%s: header [%s] does not match other clusters, %d rows dropped",
		m.Cluster, strings.Join(m.Header, ", "), m.Dropped)
}

// Line is one line of stream output attributed to a cluster
type Line struct {
	Cluster    string `json:"cluster" yaml:"cluster"`
	Text       string `json:"text" yaml:"text"`
	Diagnostic bool   `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

// String renders the line as "<cluster>: <text>"
func (l Line) String() string {
	return l.Cluster + ": " + l.Text
}

// Table is one merged table. The first column is always CLUSTER.
type Table struct {
	// Kind is the resource type kubectl prefixed names with ("pod" for
	// "pod/web-1"), or empty for a single unprefixed table
	Kind   string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Header []string   `json:"header" yaml:"header"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// Summary counts cluster outcomes
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Report is the merged view of one dispatch
type Report struct {
	Mode Mode `json:"mode" yaml:"mode"`

	// Tables holds the merged tables in tabular mode, one per resource kind
	// when kubectl printed several
	Tables []Table `json:"tables,omitempty" yaml:"tables,omitempty"`

	// Lines holds output in stream mode, diagnostics inline
	Lines []Line `json:"lines,omitempty" yaml:"lines,omitempty"`

	// Stderr holds prefixed stderr lines of clusters that did not fail
	Stderr []string `json:"stderr,omitempty" yaml:"stderr,omitempty"`

	Mismatches  []Mismatch      `json:"mismatches,omitempty" yaml:"mismatches,omitempty"`
	Diagnostics []string        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Clusters    []ClusterStatus `json:"clusters" yaml:"clusters"`
	Summary     Summary         `json:"summary" yaml:"summary"`
}

// Warnings returns human-readable mismatch warnings
func (r *Report) Warnings() []string {
	out := make([]string, len(r.Mismatches))
	for i, m := range r.Mismatches {
		out[i] = m.String()
	}
	return out
}

// HasFailures reports whether any cluster failed
func (r *Report) HasFailures() bool {
	return r.Summary.Failed > 0
}

// Diagnostic formats the line shown for a failed cluster
func Diagnostic(res executor.ExecutionResult) string {
	return res.Cluster + ": ERROR " + res.Summary()
}

// RowCount returns the number of merged rows across all tables
func (r *Report) RowCount() int {
	n := 0
	for _, t := range r.Tables {
		n += len(t.Rows)
	}
	return n
}

// LineStrings renders stream lines as "<cluster>: <text>"
func (r *Report) LineStrings() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.String()
	}
	return out
}

// Aggregator merges dispatch results
type Aggregator struct {
	logger *slog.Logger
}

// New creates an aggregator
func New(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate merges results, in the order given, using mode
func (a *Aggregator) Aggregate(mode Mode, results []executor.ExecutionResult) *Report {
	r := &Report{Mode: mode, Clusters: make([]ClusterStatus, len(results))}

	for i, res := range results {
		st := ClusterStatus{
			Cluster:  res.Cluster,
			Status:   res.Status,
			ExitCode: res.ExitCode,
			Duration: res.Duration,
		}
		r.Summary.Total++
		if res.OK() {
			r.Summary.Succeeded++
		} else {
			r.Summary.Failed++
			st.Error = res.Summary()
			r.Diagnostics = append(r.Diagnostics, Diagnostic(res))
		}
		r.Clusters[i] = st

		if res.OK() {
			for _, line := range splitLines(string(res.Stderr)) {
				r.Stderr = append(r.Stderr, res.Cluster+": "+line)
			}
		}
	}

	if mode == ModeTabular {
		a.mergeTables(r, results)
	} else {
		mergeStreams(r, results)
	}

	return r
}

// mergeStreams emits each cluster's lines in target order. Clusters that
// produced nothing are skipped; a failed cluster emits its diagnostic line
// instead of whatever partial output it wrote.
func mergeStreams(r *Report, results []executor.ExecutionResult) {
	for _, res := range results {
		if !res.OK() {
			r.Lines = append(r.Lines, Line{Cluster: res.Cluster, Text: "ERROR " + res.Summary(), Diagnostic: true})
			continue
		}
		out := strings.TrimSuffix(string(res.Stdout), "\n")
		if out == "" {
			continue
		}
		for _, line := range strings.Split(out, "\n") {
			r.Lines = append(r.Lines, Line{Cluster: res.Cluster, Text: strings.TrimRight(line, "\r")})
		}
	}
}

type clusterTable struct {
	cluster string
	table   *table
}

// section collects the blocks of one resource kind across clusters
type section struct {
	kind   string
	blocks []clusterTable
}

// mergeTables splits every cluster's output into blocks, one per resource
// kind, and merges each kind into its own table. Sections appear in the
// order their kind was first seen.
func (a *Aggregator) mergeTables(r *Report, results []executor.ExecutionResult) {
	var sections []*section
	byKind := make(map[string]*section)
	for _, res := range results {
		// Killed processes may have been cut off mid-row.
		if !res.OK() && res.Status != executor.StatusFailed {
			continue
		}
		for i, t := range parseTables(string(res.Stdout)) {
			kind := t.kind(i)
			sec, ok := byKind[kind]
			if !ok {
				sec = &section{kind: kind}
				byKind[kind] = sec
				sections = append(sections, sec)
			}
			sec.blocks = append(sec.blocks, clusterTable{cluster: res.Cluster, table: t})
		}
	}

	for _, sec := range sections {
		t := a.mergeSection(r, sec.blocks)
		if !strings.HasPrefix(sec.kind, "#") {
			t.Kind = sec.kind
		}
		r.Tables = append(r.Tables, t)
	}
}

// mergeSection joins the blocks of one kind under the most common header.
// Ties go to the header seen first in target order. Blocks whose header
// contains all of the chosen columns are projected onto them; others are
// dropped with a warning.
func (a *Aggregator) mergeSection(r *Report, blocks []clusterTable) Table {
	counts := make(map[string]int)
	var chosen []string
	best := 0
	for _, ct := range blocks {
		key := strings.Join(ct.table.header, "\x00")
		counts[key]++
		if counts[key] > best {
			best = counts[key]
			chosen = ct.table.header
		}
	}

	out := Table{Header: append([]string{ClusterColumn}, chosen...)}

	for _, ct := range blocks {
		idx, exact := project(ct.table.header, chosen)
		if idx == nil {
			m := Mismatch{Cluster: ct.cluster, Header: ct.table.header, Dropped: len(ct.table.rows)}
			a.logger.Warn("table header mismatch", "cluster", ct.cluster, "dropped_rows", m.Dropped)
			r.Mismatches = append(r.Mismatches, m)
			continue
		}
		if !exact {
			a.logger.Debug("projecting table onto common header", "cluster", ct.cluster)
			r.Mismatches = append(r.Mismatches, Mismatch{Cluster: ct.cluster, Header: ct.table.header, Projected: true})
		}

		for _, row := range ct.table.rows {
			merged := make([]string, 0, len(chosen)+1)
			merged = append(merged, ct.cluster)
			for _, j := range idx {
				merged = append(merged, row[j])
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// project maps each wanted column to its index in header. It returns nil when
// header lacks a wanted column; exact is true when header equals wanted.
func project(header, wanted []string) (idx []int, exact bool) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	idx = make([]int, len(wanted))
	for i, w := range wanted {
		j, ok := pos[w]
		if !ok {
			return nil, false
		}
		idx[i] = j
	}

	exact = len(header) == len(wanted)
	for i := range idx {
		if idx[i] != i {
			exact = false
		}
	}
	return idx, exact
}
