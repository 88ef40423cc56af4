package components

import (
	"strconv"
	"strings"

	"github.com/theirongolddev/rfcst/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// MaxShortcutTabs is the number of tabs reachable with digit keys.
const MaxShortcutTabs = 9

// tabLabel returns the visible text of a tab. The first nine tabs carry
// their digit shortcut while inactive.
func tabLabel(name string, idx int, active bool) string {
	if active || idx >= MaxShortcutTabs {
		return name
	}
	return name + "[" + strconv.Itoa(idx+1) + "]"
}

// TabVisualWidth returns the rendered width of one tab, padding included.
func TabVisualWidth(name string, idx int, active bool) int {
	return lipgloss.Width(tabLabel(name, idx, active)) + 2
}

// RenderTabBar renders one row of tabs. Tabs are separated by a single
// column so hitboxes can be derived from TabVisualWidth.
func RenderTabBar(names []string, activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)

	sepStyle := lipgloss.NewStyle().Background(t.Surface)

	parts := make([]string, 0, len(names))
	for i, name := range names {
		label := tabLabel(name, i, i == activeIdx)
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, inactiveStyle.Render(label))
		}
	}

	row := strings.Join(parts, sepStyle.Render(" "))
	return lipgloss.NewStyle().Background(t.Surface).Width(width).MaxWidth(width).Render(row)
}

// TabIdxByKey returns the tab index for a digit key press, or -1.
func TabIdxByKey(key string, count int) int {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return -1
	}
	idx := int(key[0] - '1')
	if idx >= count {
		return -1
	}
	return idx
}
