// Markdown table flattening.
//
// Policy documents often express entitlements as markdown tables, which
// tokenize badly as a single blob. FlattenTables rewrites each table row
// into a standalone fact line so the passage splitter can treat it as its
// own retrievable unit.
package search

import (
	"bufio"
	"bytes"
	"strings"
)

// FlattenTables returns content with markdown table rows rewritten as
// standalone facts, one per passage. Content without tables is returned
// unchanged.
func FlattenTables(content []byte) []byte {
	var b strings.Builder
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	wroteBlank := true // start true to avoid a leading blank
	sawTable := false

	writeFact := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		b.WriteString(s)
		b.WriteString("\n\n")
		wroteBlank = true
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if !wroteBlank {
				b.WriteByte('\n')
				wroteBlank = true
			}
			continue
		}

		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
			sawTable = true
			cells := splitTableRow(line)
			if len(cells) == 0 {
				continue
			}
			writeFact(strings.Join(cells, " "))
			continue
		}

		wroteBlank = false
		writeFact(line)
	}
	if sc.Err() != nil || !sawTable {
		return content
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	return []byte(out)
}

// splitTableRow extracts non-empty cells from "| a | b |" rows, returning
// nil for separator rows like "| --- | :--: |".
func splitTableRow(line string) []string {
	raw := strings.Trim(line, "|")
	cols := strings.Split(raw, "|")

	allSep := true
	cells := make([]string, 0, len(cols))
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		if cell != "" {
			cells = append(cells, cell)
		}
		tmp := strings.ReplaceAll(cell, ":", "")
		tmp = strings.ReplaceAll(tmp, "-", "")
		if strings.TrimSpace(tmp) != "" {
			allSep = false
		}
	}
	if allSep || len(cells) == 0 {
		return nil
	}
	return cells
}
