// Package tui provides the interactive Bubble Tea reforecast viewer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/rfcst/internal/cli"
	"github.com/theirongolddev/rfcst/internal/logging"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/present"
	"github.com/theirongolddev/rfcst/internal/reforecast"
	"github.com/theirongolddev/rfcst/internal/store"
	"github.com/theirongolddev/rfcst/internal/tui/components"
	"github.com/theirongolddev/rfcst/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Catalog resolves plants by ID.
type Catalog interface {
	Plants() []model.Plant
	Plant(id string) (model.Plant, error)
}

// Options configures the viewer.
type Options struct {
	Store   store.Store
	Catalog Catalog
	// PlantID selects the plant; empty opens the picker first.
	PlantID string
	// Month overrides the stored reforecast month; -1 keeps it.
	Month int
	// DefaultMonth and Formats shape inputs for plants never saved.
	DefaultMonth int
	Formats      int
	Workers      int
	Log          *logging.Logger
	// OnPick is called after the picker completes, e.g. to remember the plant.
	OnPick func(plantID string)
}

// ReportMsg is sent when a reforecast run finishes.
type ReportMsg struct {
	Plant   model.Plant
	Inputs  model.PlantInputs
	Report  model.Report
	Elapsed time.Duration
	Err     error
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	plant   model.Plant
	inputs  model.PlantInputs
	report  model.Report
	doc     present.Document
	err     error
	elapsed time.Duration
	loaded  bool

	recomputing bool

	// UI state
	width       int
	height      int
	activeTab   int
	showHelp    bool
	showNotices bool
	scroll      int

	// Plant/month picker (huh form)
	setupForm *huh.Form
	setupVals *setupValues

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 180
	minContentHeight = 5
	budgetBarWidth   = 24
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		opts:        opts,
		showNotices: true,
		spinner:     sp,
		setupVals:   &setupValues{PlantID: opts.PlantID, Month: opts.DefaultMonth},
	}
	if opts.PlantID == "" {
		a.setupForm = newSetupForm(opts.Catalog.Plants(), a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion, a.spinner.Tick}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	} else {
		cmds = append(cmds, a.loadCmd(a.opts.PlantID, a.opts.Month))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case ReportMsg:
		a.recomputing = false
		a.loaded = true
		a.elapsed = msg.Elapsed
		a.err = msg.Err
		a.plant = msg.Plant
		a.inputs = msg.Inputs
		if msg.Err == nil {
			a.report = msg.Report
			a.doc = present.Build(msg.Plant, msg.Report)
			if a.activeTab >= len(a.doc.Tabs()) {
				a.activeTab = 0
			}
		}
		a.scroll = 0
		return a, nil

	case spinner.TickMsg:
		if a.loaded && !a.recomputing {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.scroll > 0 {
				a.scroll--
			}
		case tea.MouseButtonWheelDown:
			a.scroll++
		case tea.MouseButtonLeft:
			// Tab bar is the first line.
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
					a.scroll = 0
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if !a.loaded {
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		tabs := len(a.doc.Tabs())
		switch key {
		case "q":
			return a, tea.Quit
		case "left", "h", "shift+tab":
			if tabs > 0 {
				a.activeTab = (a.activeTab - 1 + tabs) % tabs
				a.scroll = 0
			}
			return a, nil
		case "right", "l", "tab":
			if tabs > 0 {
				a.activeTab = (a.activeTab + 1) % tabs
				a.scroll = 0
			}
			return a, nil
		case "j", "down":
			a.scroll++
			return a, nil
		case "k", "up":
			if a.scroll > 0 {
				a.scroll--
			}
			return a, nil
		case "g":
			a.scroll = 0
			return a, nil
		case "n":
			a.showNotices = !a.showNotices
			return a, nil
		case "[":
			return a.stepMonth(-1)
		case "]":
			return a.stepMonth(1)
		case "r":
			if a.plant.ID == "" {
				return a, nil
			}
			a.recomputing = true
			return a, tea.Batch(a.loadCmd(a.plant.ID, a.inputs.ReforecastMonth), a.spinner.Tick)
		case "p":
			a.setupVals = &setupValues{PlantID: a.plant.ID, Month: a.inputs.ReforecastMonth}
			a.setupForm = newSetupForm(a.opts.Catalog.Plants(), a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}

		if idx := components.TabIdxByKey(key, tabs); idx >= 0 {
			a.activeTab = idx
			a.scroll = 0
		}
		return a, nil
	}

	// Forward unhandled messages to the picker (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

// stepMonth moves the reforecast month by delta and recomputes from the
// inputs already in memory. Stepping past either end of the year is a no-op.
func (a App) stepMonth(delta int) (tea.Model, tea.Cmd) {
	if a.err != nil || a.recomputing || a.plant.ID == "" {
		return a, nil
	}
	month := a.inputs.ReforecastMonth + delta
	if month < 0 || month >= model.MonthsPerYear {
		return a, nil
	}
	a.recomputing = true
	return a, tea.Batch(a.runCmd(a.plant, a.inputs, month), a.spinner.Tick)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		vals := *a.setupVals
		a.setupForm = nil
		a.loaded = false
		a.activeTab = 0
		if a.opts.OnPick != nil {
			a.opts.OnPick(vals.PlantID)
		}
		return a, tea.Batch(a.loadCmd(vals.PlantID, vals.Month), a.spinner.Tick)

	case huh.StateAborted:
		a.setupForm = nil
		if !a.loaded && a.plant.ID == "" {
			return a, tea.Quit
		}
		return a, nil
	}

	return a, cmd
}

// loadCmd reads the plant's inputs from the store and runs the reforecast.
// month < 0 keeps the stored month.
func (a App) loadCmd(plantID string, month int) tea.Cmd {
	opts := a.opts
	return func() tea.Msg {
		start := time.Now()
		plant, err := opts.Catalog.Plant(plantID)
		if err != nil {
			return ReportMsg{Err: err, Elapsed: time.Since(start)}
		}
		in, err := store.LoadOrDefault(context.Background(), opts.Store, plant, opts.DefaultMonth, opts.Formats)
		if err != nil {
			return ReportMsg{Plant: plant, Err: err, Elapsed: time.Since(start)}
		}
		if month >= 0 {
			in.ReforecastMonth = month
		}
		return run(plant, in, opts, start)
	}
}

// runCmd recomputes in-memory inputs at another reforecast month.
func (a App) runCmd(plant model.Plant, in model.PlantInputs, month int) tea.Cmd {
	opts := a.opts
	in.ReforecastMonth = month
	return func() tea.Msg {
		return run(plant, in, opts, time.Now())
	}
}

func run(plant model.Plant, in model.PlantInputs, opts Options, start time.Time) ReportMsg {
	msg := ReportMsg{Plant: plant, Inputs: in}
	if err := reforecast.Validate(plant, in); err != nil {
		msg.Err = err
		msg.Elapsed = time.Since(start)
		return msg
	}
	msg.Report = reforecast.Run(plant, in, reforecast.Options{Logger: opts.Log, Workers: opts.Workers})
	msg.Elapsed = time.Since(start)
	return msg
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  rfcst needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ rfcst"))
	b.WriteString(subtitleStyle.Render(" · Plant reforecast"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Computing targets..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"1-9", "Jump to tab"},
			{"← → / tab", "Previous / Next tab"},
			{"j k", "Scroll"},
			{"g", "Back to top"},
		}},
		{"Reforecast", []struct{ key, desc string }{
			{"[ ]", "Previous / Next reforecast month"},
			{"r", "Reload inputs from the store"},
			{"p", "Pick another plant"},
			{"n", "Toggle notices panel"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + context row
	header := components.RenderTabBar(a.tabNames(), a.activeTab, w) + "\n" + a.renderContextRow(w)

	// 2. Status bar
	message := ""
	if a.err != nil {
		message = "inputs need attention: press p to pick another plant, r to reload"
	}
	statusBar := components.RenderStatusBar(w, message, a.elapsed, a.recomputing)

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	if a.err != nil {
		content = a.renderError(cw)
	} else {
		content = a.renderTab(cw)
	}
	content = scrollLines(content, a.scroll)

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)

	// 6. Fill each line to full width with background
	content = fillLinesWithBackground(content, cw, t.Background)

	// 7. Center when the terminal is wider than the content
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) tabNames() []string {
	tabs := a.doc.Tabs()
	names := make([]string, len(tabs))
	for i, v := range tabs {
		names[i] = v.Title
	}
	return names
}

func (a App) renderContextRow(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	row := dim.Render(" ")
	if a.plant.ID != "" {
		row += accent.Render(a.plant.ID) + dim.Render(" · "+string(a.plant.Kind))
	}
	if a.err == nil && a.doc.Month != "" {
		row += dim.Render(" │ reforecast @ ") + accent.Render(a.doc.Month)
		row += dim.Render(" │ " + periodLabel(a.doc.YTD, "YTD") + " │ " + periodLabel(a.doc.Future, "future"))
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(w).MaxWidth(w).Render(row)
}

func periodLabel(months []string, name string) string {
	switch len(months) {
	case 0:
		return "no " + name + " months"
	case 1:
		return name + " " + months[0]
	default:
		return fmt.Sprintf("%s %s–%s", name, months[0], months[len(months)-1])
	}
}

func (a App) renderTab(cw int) string {
	tabs := a.doc.Tabs()
	if len(tabs) == 0 {
		return ""
	}
	view := tabs[a.activeTab]

	var b strings.Builder
	b.WriteString(components.MetricCardRow(a.metrics(), cw))
	b.WriteString("\n")

	table := cli.RenderTable(cli.ViewTable(view))
	b.WriteString(lipgloss.NewStyle().MaxWidth(cw).Render(strings.TrimRight(table, "\n")))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Budget used year-to-date", a.renderBudget(cw), cw))
	if a.showNotices {
		b.WriteString("\n")
		b.WriteString(a.renderNotices(cw, view.Title))
	}
	return b.String()
}

func (a App) metrics() []components.Metric {
	t := theme.Active
	r := a.report

	blocked := len(r.NoticesOf(model.NoticeBlocked))
	suppressed := len(r.NoticesOf(model.NoticeSuppressed))
	severe := components.Metric{Label: "Blocked pairs", Value: fmt.Sprint(blocked), Color: t.Green}
	if blocked > 0 {
		severe.Color = t.Red
		severe.Note = fmt.Sprintf("%d KPI(s) withheld in General", suppressed)
	}

	return []components.Metric{
		{Label: "Reforecast month", Value: a.doc.Month, Note: fmt.Sprintf("%d formats", len(r.Formats))},
		{Label: "Realized months", Value: fmt.Sprintf("%d / %d", len(r.YTDMonths), model.MonthsPerYear)},
		{Label: "Future months", Value: fmt.Sprint(len(r.FutureMonths))},
		severe,
		{Label: "Notices", Value: fmt.Sprint(len(r.Notices)), Note: fmt.Sprintf("%d groups", len(a.doc.Notices))},
	}
}

// budgetLine is one KPI's realized and total budget in absolute units.
type budgetLine struct {
	kpi             string
	realized, total float64
	withheld        bool
}

func (a App) budgetLines() []budgetLine {
	if a.activeTab == 0 {
		lines := make([]budgetLine, 0, len(a.report.General))
		for _, c := range a.report.General {
			lines = append(lines, budgetLine{kpi: c.KPI, realized: c.RealizedYTD, total: c.TotalBudget, withheld: c.Suppressed})
		}
		return lines
	}
	i := a.activeTab - 1
	if i < 0 || i >= len(a.report.Formats) {
		return nil
	}
	kpis := a.report.Formats[i].KPIs
	lines := make([]budgetLine, 0, len(kpis))
	for _, d := range kpis {
		lines = append(lines, budgetLine{kpi: d.KPI, realized: d.RealizedYTD, total: d.TotalBudget})
	}
	return lines
}

func (a App) renderBudget(cw int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	lines := a.budgetLines()
	labelW := 0
	for _, l := range lines {
		if n := len([]rune(l.kpi)); n > labelW {
			labelW = n
		}
	}
	if limit := components.CardInnerWidth(cw) - budgetBarWidth - 8; labelW > limit {
		labelW = limit
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if l.withheld {
			b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
				Render(fmt.Sprintf("%-*s", labelW, l.kpi)))
			b.WriteString(dim.Render(" withheld: blocked in a format"))
			continue
		}
		b.WriteString(components.BudgetBar(l.kpi, l.realized, l.total, labelW, budgetBarWidth))
	}
	return b.String()
}

func (a App) renderNotices(cw int, scope string) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var lines []string
	for _, g := range a.doc.Notices {
		// Format tabs only show their own notices; General shows everything.
		if scope != present.GeneralTab && g.Scope != scope {
			continue
		}
		bullet := lipgloss.NewStyle().Foreground(t.NoticeColor(g.Kind)).Background(t.Surface).Render("● ")
		lines = append(lines, bullet+text.Render(g.Message()))
	}
	if len(lines) == 0 {
		lines = append(lines, dim.Render("No notices."))
	}
	lines = append(lines, dim.Render("* plan kept   † FY cap applied"))

	return components.FocusCard("Notices", strings.Join(lines, "\n"), cw)
}

func (a App) renderError(cw int) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	bad := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	var lines []string
	var verr *reforecast.ValidationError
	if errors.As(a.err, &verr) {
		lines = append(lines, text.Render(fmt.Sprintf("%d problem(s) in the inputs of %s:", len(verr.Problems), verr.PlantID)))
		for _, p := range verr.Problems {
			lines = append(lines, bad.Render("• "+p))
		}
	} else {
		lines = append(lines, bad.Render(a.err.Error()))
	}
	return components.FocusCard("Cannot compute", strings.Join(lines, "\n"), cw)
}

// ─── Helpers ────────────────────────────────────────────────────

func scrollLines(s string, offset int) string {
	if offset <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if offset >= len(lines) {
		offset = len(lines) - 1
	}
	return strings.Join(lines[offset:], "\n")
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	names := a.tabNames()
	for i, name := range names {
		tabW := components.TabVisualWidth(name, i, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(names)-1 {
			pos++ // separator
		}
	}
	return -1
}
