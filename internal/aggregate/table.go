package aggregate

import (
	"strconv"
	"strings"
	"unicode"
)

// table is one cluster's column-aligned output
type table struct {
	header []string
	rows   [][]string
}

// parseTables splits output into blank-line separated blocks, as kubectl
// prints when several resource types are requested, and parses each block as
// its own table.
func parseTables(out string) []*table {
	var tables []*table
	var block []string
	flush := func() {
		if t := parseTable(block); t != nil {
			tables = append(tables, t)
		}
		block = nil
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r \t")
		if line == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()
	return tables
}

// parseTable reads one kubectl-style block: a header line whose columns are
// separated by two or more spaces, followed by rows aligned to the header's
// column offsets. Cells may contain single spaces. Offsets are counted in
// runes to match how the output was aligned.
func parseTable(lines []string) *table {
	if len(lines) == 0 {
		return nil
	}

	header := []rune(lines[0])
	starts := columnStarts(header)
	if len(starts) == 0 {
		return nil
	}

	t := &table{header: slice(header, starts)}
	for _, line := range lines[1:] {
		t.rows = append(t.rows, slice([]rune(line), starts))
	}
	return t
}

// kind names the resource type of a block: "pod" when kubectl printed names
// as "pod/web-1", otherwise the block's position in the output
func (t *table) kind(index int) string {
	if len(t.rows) > 0 && len(t.rows[0]) > 0 {
		if k, _, ok := strings.Cut(t.rows[0][0], "/"); ok && k != "" {
			return k
		}
	}
	return "#" + strconv.Itoa(index)
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r \t")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// columnStarts returns the rune offsets where header columns begin
func columnStarts(header []rune) []int {
	var starts []int
	spaces := 0
	for i, r := range header {
		if unicode.IsSpace(r) {
			spaces++
			continue
		}
		if len(starts) == 0 || spaces >= 2 {
			starts = append(starts, i)
		}
		spaces = 0
	}
	return starts
}

func slice(line []rune, starts []int) []string {
	cells := make([]string, len(starts))
	for i, start := range starts {
		if start >= len(line) {
			break
		}
		end := len(line)
		if i+1 < len(starts) && starts[i+1] < end {
			end = starts[i+1]
		}
		cells[i] = strings.TrimSpace(string(line[start:end]))
	}
	return cells
}
