package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates a new table.
func NewTable(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, Row(cells))
}

// Render returns the full table as a string. Cells are padded by hand so
// styled output keeps exact column widths.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)

	var headers, divider []string
	for _, col := range t.Columns {
		headers = append(headers, headerStyle.Render(pad(col.Title, col.Width)))
		divider = append(divider, StyleMeta.Render(strings.Repeat("-", col.Width)))
	}
	sb.WriteString(strings.Join(headers, " ") + "\n")
	sb.WriteString(strings.Join(divider, " ") + "\n")

	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells[j] = cellStyle.Render(pad(val, col.Width))
		}
		sb.WriteString(strings.Join(cells, " ") + "\n")
	}
	return sb.String()
}

// pad left-aligns s within exactly width runes, truncating with an ellipsis.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n == width {
		return s
	}
	if n > width {
		if width <= 1 {
			return string([]rune(s)[:width])
		}
		return string([]rune(s)[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-n)
}

// KeyValueBlock renders key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-16s", p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(sb.String())
}
