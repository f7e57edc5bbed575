// Package statsui provides the Bubble Tea drill history interface.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/tuimemo/internal/model"
	"github.com/verte-zerg/tuimemo/internal/stats"
)

const (
	tabOverview = iota
	tabRuns
)

const (
	filterMode = iota
	filterLang
	filterSince
	filterLast
	filterWindow
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store  stats.RunLister
	cfg    model.HistoryConfig
	window int
	now    func() time.Time

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	runTable  table.Model

	width  int
	height int

	filtering    bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a history UI model.
func NewModel(st stats.RunLister, cfg model.HistoryConfig, window int) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		window:   max(1, window),
		now:      time.Now,
		tabs:     []string{"Overview", "Runs"},
		overview: viewport.New(0, 0),
		runTable: table.New(table.WithColumns(runColumns()), table.WithHeight(1)),
	}
	m.runTable.SetStyles(runTableStyles())
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h", "right", "l", "tab":
			m.toggleTab()
			return m, tea.ClearScreen
		case "=":
			m.window = nextWindow(m.window)
			m.renderContents()
			return m, nil
		case "-":
			m.window = prevWindow(m.window)
			m.renderContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabRuns {
				m.runTable.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRuns {
				m.runTable.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabRuns {
			m.runTable, cmd = m.runTable.Update(msg)
		} else {
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Mode (single/multi): "),
		newFilterInput("Lang: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Trend window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[filterMode].SetValue(m.cfg.Mode)
	m.filterInputs[filterLang].SetValue(m.cfg.Lang)
	if m.cfg.Since != nil {
		m.filterInputs[filterSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[filterSince].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[filterLast].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[filterLast].SetValue("")
	}
	m.filterInputs[filterWindow].SetValue(strconv.Itoa(m.window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if !m.filtering && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.runTable.SetWidth(m.width)
	m.runTable.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) toggleTab() {
	m.activeTab = (m.activeTab + 1) % len(m.tabs)
	if m.activeTab == tabRuns {
		m.runTable.Focus()
	} else {
		m.runTable.Blur()
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg, m.window)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
		m.overview.SetContent("Failed to load history.")
		m.runTable.SetRows(nil)
		return
	}
	m.errMsg = ""
	m.report = report
	m.runTable.SetRows(buildRunRows(report.Runs, m.now()))
	m.runTable.GotoBottom()
	m.renderContents()
}

func (m *Model) renderContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report.Runs, m.window, width))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	mode := orDefault(m.cfg.Mode, "any")
	lang := orDefault(m.cfg.Lang, "any")
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filters: mode=%s  lang=%s  since=%s  last=%s  window=%d", mode, lang, since, last, m.window)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filtering {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Filters: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.filtering {
		lines := []string{"Filters (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	if m.activeTab == tabRuns {
		if len(m.report.Runs) == 0 {
			return "No drills found."
		}
		return tableMutedStyle.Render(m.runTable.View())
	}
	return m.overview.View()
}

func renderOverview(runs []model.RunStats, window, width int) string {
	if len(runs) == 0 {
		return "No drills found."
	}
	var totalAcc, totalRate, bestAcc float64
	var segments int
	var duration int64
	for _, r := range runs {
		acc, rate := stats.RunMetrics(r.Matches, r.Mistakes, r.DurationMs)
		totalAcc += acc
		totalRate += rate
		bestAcc = max(bestAcc, acc)
		segments += r.Segments
		duration += r.DurationMs
	}
	count := float64(len(runs))
	cards := []string{
		metricCard("Drills", strconv.Itoa(len(runs))),
		metricCard("Segments", strconv.Itoa(segments)),
		metricCard("Practiced", (time.Duration(duration) * time.Millisecond).Round(time.Second).String()),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", totalAcc/count*100)),
		metricCard("Best Acc", fmt.Sprintf("%.1f%%", bestAcc*100)),
		metricCard("Reps/min", fmt.Sprintf("%.1f", totalRate/count)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	return strings.TrimRight(summary+"\n\n"+renderTrend(runs, window, width), "\n")
}

func renderTrend(runs []model.RunStats, window, width int) string {
	if len(runs) < 2 {
		return headerStyle.Render("Complete more drills to see an accuracy trend.")
	}
	accs := make([]float64, len(runs))
	for i, r := range runs {
		acc, _ := stats.RunMetrics(r.Matches, r.Mistakes, r.DurationMs)
		accs[i] = acc * 100
	}
	smoothed := stats.MovingAverage(accs, window)
	if limit := max(10, width-4); len(smoothed) > limit {
		smoothed = smoothed[len(smoothed)-limit:]
	}
	return fmt.Sprintf("%s\n[%s]\n%.1f%% -> %.1f%%",
		headerStyle.Render(fmt.Sprintf("Accuracy trend (window %d)", window)),
		stats.Sparkline(smoothed), smoothed[0], smoothed[len(smoothed)-1])
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Mode", Width: 6},
		{Title: "Lang", Width: 6},
		{Title: "Segments", Width: 8},
		{Title: "Reps", Width: 5},
		{Title: "Accuracy", Width: 9},
		{Title: "Duration", Width: 9},
	}
}

func buildRunRows(runs []model.RunStats, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		acc, _ := stats.RunMetrics(r.Matches, r.Mistakes, r.DurationMs)
		rows = append(rows, table.Row{
			humanize.RelTime(r.EndedAt, now, "ago", "from now"),
			r.Mode,
			r.Lang,
			strconv.Itoa(r.Segments),
			strconv.Itoa(r.Target),
			fmt.Sprintf("%.1f%%", acc*100),
			(time.Duration(r.DurationMs) * time.Millisecond).Round(time.Second).String(),
		})
	}
	return rows
}

func runTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filtering = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filtering = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	mode := strings.ToLower(strings.TrimSpace(m.filterInputs[filterMode].Value()))
	if mode != "" && mode != "single" && mode != "multi" {
		return fmt.Errorf("invalid mode (use single or multi)")
	}
	lang := strings.TrimSpace(m.filterInputs[filterLang].Value())

	var since *time.Time
	if raw := strings.TrimSpace(m.filterInputs[filterSince].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	last := 0
	if raw := strings.TrimSpace(m.filterInputs[filterLast].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	window := m.window
	if raw := strings.TrimSpace(m.filterInputs[filterWindow].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg = model.HistoryConfig{Mode: mode, Lang: lang, Since: since, Last: last}
	m.window = window
	return nil
}

func nextWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
