package audit

import (
	"fmt"
	"io"
	"strings"
)

// RenderTable writes rows as a left-aligned text table with a "-+-" rule
// under the header and after the last row.
func RenderTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i := range header {
			if i < len(r) && len(r[i]) > widths[i] {
				widths[i] = len(r[i])
			}
		}
	}

	line := func(cells []string) string {
		out := make([]string, len(header))
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			out[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		return strings.Join(out, " | ")
	}
	rules := make([]string, len(widths))
	for i, n := range widths {
		rules[i] = strings.Repeat("-", n)
	}
	rule := strings.Join(rules, "-+-")

	var b strings.Builder
	b.WriteString(line(header) + "\n")
	b.WriteString(rule + "\n")
	for _, r := range rows {
		b.WriteString(line(r) + "\n")
	}
	b.WriteString(rule + "\n")
	_, err := fmt.Fprint(w, b.String())
	return err
}
