package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"osmclean/internal/audit"
	"osmclean/internal/normalizer"
)

var keyClassOrder = []audit.KeyClass{
	audit.KeyLower,
	audit.KeyLowerColon,
	audit.KeyLowerMultiColon,
	audit.KeyOther,
}

// RenderReport renders an audit report as a markdown document.
func RenderReport(report *audit.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Audit report\n\nRun: %s\nElements: %d\n\n", report.RunID, report.Elements)

	sb.WriteString("## Tag keys\n\n")

	rows := make([][]string, 0, len(keyClassOrder))
	for _, class := range keyClassOrder {
		rows = append(rows, []string{string(class), strconv.Itoa(report.Keys.Counts[class])})
	}

	writeLines(&sb, Table([]string{"class", "count"}, rows))

	if other := report.Keys.Other(); len(other) > 0 {
		sb.WriteString("\n## Other keys\n\n")

		for _, k := range other {
			fmt.Fprintf(&sb, "- `%s`\n", k)
		}
	}

	sb.WriteString("\n## Findings\n\n")

	if len(report.Findings) == 0 {
		sb.WriteString("No findings.\n")

		return sb.String()
	}

	rows = make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		detail := ""
		if f.Err != nil {
			detail = f.Err.Error()
		}

		rows = append(rows, []string{f.Element, f.Attribute, f.Value, string(f.Kind), f.Char, detail})
	}

	writeLines(&sb, Table([]string{"element", "attribute", "value", "finding", "char", "detail"}, rows))

	return sb.String()
}

// RenderChanges renders the tags a rewrite altered.
func RenderChanges(changes []normalizer.Change) string {
	if len(changes) == 0 {
		return "No changes.\n"
	}

	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{c.Element, c.ID, c.Before.Key, c.Before.Value, c.After.Key, c.After.Value})
	}

	var sb strings.Builder

	writeLines(&sb, Table([]string{"element", "id", "key", "value", "new key", "new value"}, rows))

	return sb.String()
}

func writeLines(sb *strings.Builder, lines []string) {
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}
