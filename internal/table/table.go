// Package table renders rows of text as a bordered table. Cell widths ignore
// ANSI escape sequences so colored cells stay aligned.
package table

import (
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Alignment controls how a cell is padded to its column width.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// displayWidth returns the number of terminal columns s occupies.
func displayWidth(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

// Table accumulates a header and rows and writes them on Render.
type Table struct {
	w           io.Writer
	header      []string
	headerAlign []Alignment
	columnAlign []Alignment
	rows        [][]string
}

// NewTable returns an empty table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithHeaderAlignment sets the alignment of each header cell.
func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

// WithColumnAlignment sets the alignment of each body column.
func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.columnAlign = align
	return t
}

// WithRows appends rows to the body.
func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

// Append appends one row to the body.
func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) widths() []int {
	n := len(t.header)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}
	widths := make([]int, n)
	measure := func(row []string) {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func pad(s string, width int, align Alignment) string {
	gap := width - displayWidth(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

func alignAt(align []Alignment, i int) Alignment {
	if i < len(align) {
		return align[i]
	}
	return AlignLeft
}

func (t *Table) line(sb *strings.Builder, row []string, widths []int, align []Alignment) {
	sb.WriteString("|")
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		sb.WriteString(" ")
		sb.WriteString(pad(cell, w, alignAt(align, i)))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func separator(sb *strings.Builder, widths []int) {
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
}

// Render writes the table.
func (t *Table) Render() {
	widths := t.widths()
	var sb strings.Builder
	separator(&sb, widths)
	if len(t.header) > 0 {
		t.line(&sb, t.header, widths, t.headerAlign)
		separator(&sb, widths)
	}
	for _, row := range t.rows {
		t.line(&sb, row, widths, t.columnAlign)
	}
	separator(&sb, widths)
	io.WriteString(t.w, sb.String())
}
