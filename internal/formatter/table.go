// Package formatter renders audit reports and rewrite listings as markdown.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table renders a header and rows as an aligned markdown table.
// Column widths use display width so accented and wide characters line up.
func Table(header []string, rows [][]string) []string {
	table := make([][]string, 0, len(rows)+1)
	table = append(table, header)
	table = append(table, rows...)

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	for _, row := range table {
		for i, cell := range row {
			width := runewidth.StringWidth(escapeCell(cell))
			if width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// "---" is the shortest separator markdown accepts
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table)+1)
	result = append(result, renderRow(header, colWidths))

	var sep strings.Builder

	sep.WriteString("|")

	for _, w := range colWidths {
		sep.WriteString(" " + strings.Repeat("-", w) + " |")
	}

	result = append(result, sep.String())

	for _, row := range rows {
		result = append(result, renderRow(row, colWidths))
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = escapeCell(row[j])
		}

		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(content, width))
		sb.WriteString(" |")
	}

	return sb.String()
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}
