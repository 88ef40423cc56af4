package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette (Flexoki Dark), shared with the TUI's default theme.
var (
	ColorBorder  = lipgloss.Color("#282726")
	ColorTextDim = lipgloss.Color("#575653")
	ColorText    = lipgloss.Color("#FFFCF0")
	ColorAccent  = lipgloss.Color("#3AA99F")
	ColorGreen   = lipgloss.Color("#879A39")
	ColorOrange  = lipgloss.Color("#DA702C")
	ColorRed     = lipgloss.Color("#D14D41")
	ColorBlue    = lipgloss.Color("#4385BE")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	okStyle     = lipgloss.NewStyle().Foreground(ColorGreen)
	infoStyle   = lipgloss.NewStyle().Foreground(ColorBlue)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
	errStyle    = lipgloss.NewStyle().Foreground(ColorRed)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
	// Styles overrides the style of cells whose text matches a key.
	Styles map[string]lipgloss.Style
}

// separatorRow marks a horizontal rule between data rows.
const separatorRow = "---"

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table. The first column is left-aligned,
// the rest are right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}
	widths := t.columnWidths()

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	b.WriteString(rule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(t.line(widths, t.Headers, func(string) lipgloss.Style { return headerStyle }))
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == separatorRow {
			b.WriteString(rule(widths, "├", "┼", "┤"))
			continue
		}
		b.WriteString(t.line(widths, row, t.cellStyle))
	}
	b.WriteString(rule(widths, "╰", "┴", "╯"))

	return b.String()
}

func (t Table) columnWidths() []int {
	n := len(t.Headers)
	if n == 0 {
		n = len(t.Rows[0])
	}
	widths := make([]int, n)
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	grow := func(cells []string) {
		for i, c := range cells {
			if i < n {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	grow(t.Headers)
	for _, row := range t.Rows {
		grow(row)
	}
	return widths
}

func (t Table) cellStyle(cell string) lipgloss.Style {
	if st, ok := t.Styles[cell]; ok {
		return st
	}
	return valueStyle
}

func (t Table) line(widths []int, cells []string, style func(string) lipgloss.Style) string {
	var b strings.Builder
	bar := dimStyle.Render("│")
	b.WriteString(bar)
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		padded := padLeft(cell, w)
		if i == 0 {
			padded = padRight(cell, w)
		}
		b.WriteString(style(cell).Render(" " + padded + " "))
		b.WriteString(bar)
	}
	b.WriteString("\n")
	return b.String()
}

func rule(widths []int, left, mid, right string) string {
	segs := make([]string, len(widths))
	for i, w := range widths {
		segs[i] = strings.Repeat("─", w+2)
	}
	return dimStyle.Render(left+strings.Join(segs, mid)+right) + "\n"
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline draws values as unicode blocks scaled to the largest one.
func RenderSparkline(values []float64) string {
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	top := len(sparkBlocks) - 1
	for _, v := range values {
		idx := min(max(int(v/peak*float64(top)), 0), top)
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func padRight(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}
