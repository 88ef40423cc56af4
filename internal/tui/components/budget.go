package components

import (
	"fmt"

	"github.com/theirongolddev/rfcst/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// BudgetShare returns realized/total clamped to [0, 1] for the bar, and the
// unclamped ratio for the label. A non-positive total yields 0, 0.
func BudgetShare(realized, total float64) (bar, ratio float64) {
	if total <= 0 {
		return 0, 0
	}
	ratio = realized / total
	bar = ratio
	if bar < 0 {
		bar = 0
	}
	if bar > 1 {
		bar = 1
	}
	return bar, ratio
}

// ColorForShare returns green/yellow/orange/red by budget consumption.
// Anything at or above the whole budget is red.
func ColorForShare(ratio float64) lipgloss.Color {
	t := theme.Active
	switch {
	case ratio >= 1:
		return t.Red
	case ratio >= 0.9:
		return t.Orange
	case ratio >= 0.7:
		return t.Yellow
	default:
		return t.Green
	}
}

// BudgetBar renders a labeled bar of how much of the annual budget the
// realized year-to-date consumption has used.
func BudgetBar(label string, realized, total float64, labelW, barWidth int) string {
	t := theme.Active

	share, ratio := BudgetShare(realized, total)
	color := ColorForShare(ratio)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	pct := "  n/a"
	if total > 0 {
		pct = fmt.Sprintf("%4.0f%%", ratio*100)
	}

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		spaceStyle.Render(" ") +
		bar.ViewAs(share) +
		spaceStyle.Render(" ") +
		pctStyle.Render(pct)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
