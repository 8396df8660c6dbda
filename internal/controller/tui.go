package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI with styled output and a Bubble Tea pager for long tables.
type TUI struct {
	output io.Writer
	mode   StartMode
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start prints the header for the selected mode.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mode = newStartConfig(options).mode
	p.println(headerStyle.Render("scadtest - " + p.mode.title()))

	return nil
}

// Close finalizes the UI.
func (p *TUI) Close(_ context.Context) {}

// DisplaySuite shows the suite table, paged when it does not fit.
func (p *TUI) DisplaySuite(ctx context.Context, cases []m.TestCase) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page("Suite", splitLines(renderSuiteTable(cases)))
}

// DisplayRunInfo shows how many tests run and on how many workers.
func (p *TUI) DisplayRunInfo(ctx context.Context, total int, threads int) {
	if ctx.Err() != nil {
		return
	}

	p.println(dimStyle.Render(fmt.Sprintf("  %d test(s), %d worker(s)", total, threads)))
}

// DisplayStartingTest shows that a test started.
func (p *TUI) DisplayStartingTest(ctx context.Context, tc m.TestCase) {
	if ctx.Err() != nil {
		return
	}

	p.println(dimStyle.Render(fmt.Sprintf("  ▶ %s  %s", tc.ID, tc.Target())))
}

// DisplayCompletedTest shows the outcome of a test and why it failed.
func (p *TUI) DisplayCompletedTest(ctx context.Context, report m.Report) {
	if ctx.Err() != nil {
		return
	}

	p.println(formatReportLine(report))

	if report.Error != "" {
		for _, line := range splitLines(report.Error) {
			p.println("      " + failStyle.UnsetBold().Render(line))
		}
	}

	if report.ScratchDir != "" {
		p.println(dimStyle.Render("      kept " + string(report.ScratchDir)))
	}
}

// DisplayReports shows the summary table, paged when it does not fit.
func (p *TUI) DisplayReports(ctx context.Context, reports []m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lines := splitLines(renderReportsTable(reports))

	rate := m.PassRate(reports) * 100

	summary := okStyle.Render(fmt.Sprintf("Pass rate: %.2f%%", rate))
	if rate < 100 {
		summary = failStyle.Render(fmt.Sprintf("Pass rate: %.2f%%", rate))
	}

	lines = append(lines, "", summary)

	return p.page("Results", lines)
}

// DisplayBatchResult shows the outcome of one batch render.
func (p *TUI) DisplayBatchResult(ctx context.Context, result m.BatchResult) {
	if ctx.Err() != nil {
		return
	}

	line := formatBatchResult(result)

	switch {
	case result.Err != nil:
		line = failStyle.Render(line)
	case result.Skipped:
		line = dimStyle.Render(line)
	default:
		line = okStyle.UnsetBold().Render(line)
	}

	p.println("  " + line)
}

// DisplayChange announces a rerun triggered by a file change.
func (p *TUI) DisplayChange(ctx context.Context, path m.Path) {
	if ctx.Err() != nil {
		return
	}

	p.println(warnStyle.Render(fmt.Sprintf("  ↻ %s changed", path)))
}

// DisplayText prints free-form command output.
func (p *TUI) DisplayText(ctx context.Context, text string) {
	if ctx.Err() != nil {
		return
	}

	p.println(strings.TrimRight(text, "\n"))
}

func (p *TUI) println(line string) {
	_, _ = fmt.Fprintln(p.output, line)
}

// page prints lines, or opens the pager when they exceed the terminal height.
func (p *TUI) page(title string, lines []string) error {
	model := newPagerModel(title, lines)

	if f, ok := p.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.width = width
			model.height = height
		}
	}

	if !model.needsPagination() {
		_, err := fmt.Fprint(p.output, strings.Join(lines, "\n")+"\n")
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

func formatReportLine(report m.Report) string {
	icon := okStyle.Render("✓")

	switch {
	case !report.Passed():
		icon = failStyle.Render("✗")
	case report.Updated:
		icon = warnStyle.Render("↺")
	}

	return fmt.Sprintf("  %s %s %s", icon, report.TestID, dimStyle.Render(formatDuration(report.Duration)))
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

type pagerKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

func defaultPagerKeys() pagerKeyMap {
	return pagerKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "u"), key.WithHelp("u", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "d"), key.WithHelp("d", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k pagerKeyMap) help() string {
	bindings := []key.Binding{k.Up, k.Down, k.PageDown, k.PageUp, k.Top, k.Bottom, k.Quit}
	parts := make([]string, 0, len(bindings))

	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}

	return strings.Join(parts, " | ")
}

// pagerModel is the Bubble Tea model scrolling through pre-rendered lines.
type pagerModel struct {
	title    string
	lines    []string
	keys     pagerKeyMap
	height   int
	width    int
	offset   int
	quitting bool
}

func newPagerModel(title string, lines []string) pagerModel {
	return pagerModel{
		title: title,
		lines: lines,
		keys:  defaultPagerKeys(),
	}
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.height = msg.Height
		pm.width = msg.Width
		pm.offset = min(pm.offset, pm.maxOffset())

		return pm, nil

	case tea.KeyMsg:
		return pm.handleKeyPress(msg)
	}

	return pm, nil
}

func (pm pagerModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, pm.keys.Quit):
		pm.quitting = true
		return pm, tea.Quit
	case key.Matches(msg, pm.keys.Down):
		pm.offset = min(pm.offset+1, pm.maxOffset())
	case key.Matches(msg, pm.keys.Up):
		pm.offset = max(pm.offset-1, 0)
	case key.Matches(msg, pm.keys.PageDown):
		pm.offset = min(pm.offset+pm.itemsPerPage(), pm.maxOffset())
	case key.Matches(msg, pm.keys.PageUp):
		pm.offset = max(pm.offset-pm.itemsPerPage(), 0)
	case key.Matches(msg, pm.keys.Top):
		pm.offset = 0
	case key.Matches(msg, pm.keys.Bottom):
		pm.offset = pm.maxOffset()
	}

	return pm, nil
}

// itemsPerPage leaves room for the boxed title and the footer.
func (pm pagerModel) itemsPerPage() int {
	if pm.height == 0 {
		return 10
	}

	const reserved = 6

	return max(pm.height-reserved, 1)
}

func (pm pagerModel) maxOffset() int {
	return max(len(pm.lines)-pm.itemsPerPage(), 0)
}

func (pm pagerModel) needsPagination() bool {
	return pm.height > 0 && len(pm.lines) > pm.itemsPerPage()
}

func (pm pagerModel) View() string {
	if pm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render(pm.title))
	b.WriteString("\n")

	end := min(pm.offset+pm.itemsPerPage(), len(pm.lines))
	for _, line := range pm.lines[pm.offset:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n  Lines %d-%d of %d\n", pm.offset+1, end, len(pm.lines))
	b.WriteString(dimStyle.Render("  " + pm.keys.help()))

	return b.String()
}
