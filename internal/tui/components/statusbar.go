package components

import (
	"fmt"
	"time"

	"github.com/theirongolddev/rfcst/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left and
// the last recompute time on the right. A non-empty message replaces the
// hints.
func RenderStatusBar(width int, message string, elapsed time.Duration, recomputing bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " ? help  [ ] month  n notices  p plant  q quit"
	if message != "" {
		left = " " + message
	}

	right := ""
	switch {
	case recomputing:
		right = "recomputing… "
	case elapsed > 0:
		right = fmt.Sprintf("computed in %s ", elapsed.Round(time.Microsecond))
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	bar := left + fmt.Sprintf("%*s", padding, "") + right
	return style.Render(bar)
}
