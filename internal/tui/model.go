// Package tui provides the Bubble Tea drill interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuimemo/internal/drill"
	"github.com/verte-zerg/tuimemo/internal/markup"
	"github.com/verte-zerg/tuimemo/internal/model"
	"github.com/verte-zerg/tuimemo/internal/segment"
	statsPkg "github.com/verte-zerg/tuimemo/internal/stats"
)

const hiddenNotice = "Text hidden - try to recall from memory"

// Speaker reads text aloud.
type Speaker interface {
	Speak(text, lang string) error
	Cancel()
}

// History records completed drills and loads previous ones.
type History interface {
	InsertRun(ctx context.Context, run model.RunStats) (int64, error)
	ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunStats, error)
}

type screen int

const (
	screenSetup screen = iota
	screenPractice
	screenEdit
)

type setupFocus int

const (
	focusText setupFocus = iota
	focusReps
)

type taskMsg struct {
	task drill.Task
}

// Model implements the Bubble Tea drill UI.
type Model struct {
	machine   *drill.Machine
	history   History
	speaker   Speaker
	autoStart bool

	width  int
	height int

	screen      screen
	focus       setupFocus
	showPreview bool
	errMsg      string

	text      textarea.Model
	reps      textinput.Model
	input     textarea.Model
	editor    textarea.Model
	editIndex int

	lastAcc float64
	hasLast bool

	allAcc      float64
	allMatches  int
	allMistakes int
	allRuns     int
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	targetBox    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	overlayBox = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))

	targetStyles = runStyles{
		literal: lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")),
		markup:  lipgloss.NewStyle().Foreground(lipgloss.Color("#69B1FF")).Italic(true),
		block:   lipgloss.NewStyle().Foreground(lipgloss.Color("#69B1FF")).Bold(true),
	}

	feedbackColors = map[drill.Feedback]lipgloss.Color{
		drill.FeedbackNone:       lipgloss.Color("#F0F0F0"),
		drill.FeedbackMatchSoFar: lipgloss.Color("#F0F0F0"),
		drill.FeedbackMismatch:   lipgloss.Color("#FF4D4F"),
		drill.FeedbackMatch:      lipgloss.Color("#52C41A"),
	}
)

// NewModel constructs a drill TUI model. When autoStart is set the drill
// begins with the machine's setup text as soon as the program starts.
func NewModel(machine *drill.Machine, history History, speaker Speaker, autoStart bool) *Model {
	m := &Model{
		machine:   machine,
		history:   history,
		speaker:   speaker,
		autoStart: autoStart,
		text:      newTextArea("Paste or type the text to memorize..."),
		reps:      textinput.New(),
		input:     newTextArea("Type the segment from memory..."),
		editor:    newTextArea(""),
	}
	m.reps.Prompt = "Repetitions: "
	m.reps.CharLimit = 4
	m.reps.Width = 6
	m.reps.SetValue(fmt.Sprintf("%d", machine.Target()))
	m.text.SetValue(machine.Text())
	m.loadFooterStats()
	return m
}

func newTextArea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	return ta
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.autoStart {
		return m.start()
	}
	return m.text.Focus()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case taskMsg:
		return m, m.fire(msg.task)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.speaker != nil {
				m.speaker.Cancel()
			}
			return m, tea.Quit
		}
		switch m.screen {
		case screenSetup:
			return m.updateSetup(msg)
		case screenEdit:
			return m.updateEdit(msg)
		default:
			return m.updatePractice(msg)
		}
	}
	return m, m.updateFocused(msg)
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch {
	case m.screen == screenSetup:
		content = m.renderSetup()
	case m.screen == screenEdit:
		content = m.renderEdit()
	case m.machine.Phase() == drill.PhaseAllComplete:
		content = m.renderAllComplete()
	case m.machine.Phase() == drill.PhaseSegmentComplete:
		content = m.renderSegmentComplete()
	default:
		content = m.renderPractice()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	content = lipgloss.NewStyle().Width(m.contentWidth()).Render(content)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return m, m.start()
	case "tab", "shift+tab":
		return m, m.toggleSetupFocus()
	case "ctrl+t":
		next := segment.ModeMulti
		if m.machine.Mode() == segment.ModeMulti {
			next = segment.ModeSingle
		}
		if err := m.machine.SetMode(next); err != nil {
			m.errMsg = err.Error()
		}
		return m, nil
	case "ctrl+o":
		m.showPreview = !m.showPreview
		return m, nil
	}
	var cmd tea.Cmd
	if m.focus == focusReps {
		m.reps, cmd = m.reps.Update(msg)
		if err := m.machine.SetTargetInput(m.reps.Value()); err != nil {
			m.errMsg = "Repetitions must be a whole number of at least 1."
		} else {
			m.errMsg = ""
		}
		return m, cmd
	}
	m.text, cmd = m.text.Update(msg)
	return m, cmd
}

func (m *Model) toggleSetupFocus() tea.Cmd {
	if m.focus == focusText {
		m.focus = focusReps
		m.text.Blur()
		return m.reps.Focus()
	}
	m.focus = focusText
	m.reps.Blur()
	return m.text.Focus()
}

func (m *Model) start() tea.Cmd {
	text := m.text.Value()
	if strings.TrimSpace(text) == "" {
		text = m.machine.Text()
	}
	eff, err := m.machine.Start(text)
	if err != nil {
		if errors.Is(err, drill.ErrEmptyInput) {
			m.errMsg = "Enter some text to memorize first."
		} else {
			m.errMsg = err.Error()
		}
		m.screen = screenSetup
		return m.text.Focus()
	}
	m.errMsg = ""
	m.screen = screenPractice
	m.text.Blur()
	m.reps.Blur()
	m.input.Reset()
	m.updateLayout()
	return tea.Batch(m.input.Focus(), m.apply(eff))
}

func (m *Model) updatePractice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	phase := m.machine.Phase()
	if phase == drill.PhaseAllComplete {
		switch msg.String() {
		case "enter", "esc":
			return m, m.reset()
		}
		return m, nil
	}
	switch msg.String() {
	case "esc":
		return m, m.reset()
	case "ctrl+l":
		if req := m.machine.Speak(); req != nil {
			m.speak(req)
		}
		return m, nil
	case "ctrl+e":
		return m, m.openEditor()
	case "ctrl+r":
		return m, m.after(m.machine.ToggleReveal())
	case "ctrl+p":
		if m.machine.Mode() == segment.ModeSingle {
			return m, m.after(m.machine.Previous())
		}
		return m, nil
	case "ctrl+n":
		if m.machine.Mode() == segment.ModeSingle {
			return m, m.after(m.machine.Next())
		}
		return m, nil
	}
	if phase != drill.PhaseActive {
		return m, nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	_, eff := m.machine.Submit(m.input.Value())
	m.styleInput()
	return m, tea.Batch(cmd, m.apply(eff))
}

func (m *Model) openEditor() tea.Cmd {
	seg, ok := m.machine.Current()
	if !ok {
		return nil
	}
	m.editIndex = m.machine.Index()
	m.editor.SetValue(seg.Text())
	m.editor.SetHeight(clampInt(len(seg.Lines)+1, 3, 12))
	m.errMsg = ""
	m.screen = screenEdit
	m.input.Blur()
	return m.editor.Focus()
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.closeEditor()
	case "ctrl+s":
		eff, err := m.machine.Edit(m.editIndex, m.editor.Value())
		if err != nil {
			if errors.Is(err, drill.ErrEmptyInput) {
				m.errMsg = "A segment cannot be empty."
				return m, nil
			}
			m.errMsg = err.Error()
			return m, nil
		}
		return m, tea.Batch(m.closeEditor(), m.apply(eff))
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) closeEditor() tea.Cmd {
	m.errMsg = ""
	m.editor.Blur()
	if m.machine.Phase() == drill.PhaseSetup {
		m.screen = screenSetup
		return m.text.Focus()
	}
	m.screen = screenPractice
	m.syncInput()
	m.updateLayout()
	return m.input.Focus()
}

func (m *Model) reset() tea.Cmd {
	if m.speaker != nil {
		m.speaker.Cancel()
	}
	m.machine.Reset()
	m.screen = screenSetup
	m.focus = focusText
	m.errMsg = ""
	m.input.Reset()
	m.input.Blur()
	m.text.SetValue(m.machine.Text())
	return m.text.Focus()
}

func (m *Model) fire(task drill.Task) tea.Cmd {
	ok, eff := m.machine.Fire(task)
	if !ok {
		return nil
	}
	if m.machine.Phase() == drill.PhaseAllComplete {
		m.recordRun()
	}
	if m.screen == screenPractice {
		m.updateLayout()
	}
	return m.after(eff)
}

// after syncs the input box with the machine and performs eff.
func (m *Model) after(eff drill.Effects) tea.Cmd {
	m.syncInput()
	return m.apply(eff)
}

func (m *Model) apply(eff drill.Effects) tea.Cmd {
	if eff.Speech != nil {
		m.speak(eff.Speech)
	}
	if len(eff.Tasks) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(eff.Tasks))
	for _, task := range eff.Tasks {
		cmds = append(cmds, scheduleTask(task))
	}
	return tea.Batch(cmds...)
}

func scheduleTask(task drill.Task) tea.Cmd {
	return tea.Tick(task.Delay, func(time.Time) tea.Msg {
		return taskMsg{task: task}
	})
}

func (m *Model) speak(req *drill.SpeechRequest) {
	if m.speaker == nil || strings.TrimSpace(req.Text) == "" {
		return
	}
	if err := m.speaker.Speak(req.Text, req.Lang); err != nil {
		logErrf("failed to speak: %v\n", err)
	}
}

func (m *Model) syncInput() {
	if m.input.Value() != m.machine.Input() {
		m.input.SetValue(m.machine.Input())
	}
	m.styleInput()
}

func (m *Model) styleInput() {
	color, ok := feedbackColors[m.machine.Feedback()]
	if !ok {
		color = feedbackColors[drill.FeedbackNone]
	}
	m.input.FocusedStyle.Text = lipgloss.NewStyle().Foreground(color)
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.screen == screenEdit:
		m.editor, cmd = m.editor.Update(msg)
	case m.screen == screenPractice:
		m.input, cmd = m.input.Update(msg)
	case m.focus == focusReps:
		m.reps, cmd = m.reps.Update(msg)
	default:
		m.text, cmd = m.text.Update(msg)
	}
	return cmd
}

func (m *Model) updateLayout() {
	width := m.contentWidth()
	m.text.SetWidth(width)
	m.text.SetHeight(clampInt(m.height/3, 3, 15))
	m.editor.SetWidth(width)
	m.input.SetWidth(width)
	lines := 1
	if seg, ok := m.machine.Current(); ok {
		lines = len(seg.Lines)
	}
	m.input.SetHeight(clampInt(lines+1, 2, 12))
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(1, int(float64(m.width)*0.70))
}

func (m *Model) renderSetup() string {
	lines := []string{
		titleStyle.Render("tuimemo"),
		headerStyle.Render("Enter the text to memorize. Use $...$ for inline markup and $$...$$ for block markup."),
		"",
		m.text.View(),
		"",
		fmt.Sprintf("Mode: %s (ctrl+t)   %s", m.machine.Mode(), m.reps.View()),
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	if m.showPreview {
		lines = append(lines, "", headerStyle.Render("Preview"), m.renderMarkupText(m.text.Value()))
	}
	lines = append(lines, "", footerStyle.Render("tab: switch field  ctrl+o: preview  ctrl+s: start  ctrl+c: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderPractice() string {
	lines := []string{headerStyle.Render(m.progressLabel()), ""}
	seg, _ := m.machine.Current()
	if m.machine.RevealShown() {
		lines = append(lines, targetBox.Render(m.renderMarkupText(seg.Text())))
	} else {
		lines = append(lines, targetBox.Render(noticeStyle.Render(hiddenNotice)))
	}
	lines = append(lines, "", m.input.View())
	if value := m.input.Value(); markup.HasMarkup(value) {
		lines = append(lines, "", headerStyle.Render("Preview"), m.renderMarkupText(value))
	}
	lines = append(lines, "", footerStyle.Render(m.practiceHelp()))
	return strings.Join(lines, "\n")
}

func (m *Model) practiceHelp() string {
	reveal := "ctrl+r: hide"
	if !m.machine.RevealShown() {
		reveal = "ctrl+r: show"
	}
	parts := []string{reveal, "ctrl+l: listen", "ctrl+e: edit"}
	if m.machine.Mode() == segment.ModeSingle {
		parts = append(parts, "ctrl+p/ctrl+n: prev/next")
	}
	parts = append(parts, "esc: new text", "ctrl+c: quit")
	return strings.Join(parts, "  ")
}

func (m *Model) progressLabel() string {
	rep := min(m.machine.Count()+1, m.machine.Target())
	return fmt.Sprintf("Segment %d/%d · Repetition %d/%d",
		m.machine.Index()+1, m.machine.Len(), rep, m.machine.Target())
}

func (m *Model) renderSegmentComplete() string {
	body := strings.Join([]string{
		successStyle.Render("Segment complete!"),
		"",
		m.renderMarkupText(m.machine.Overlay()),
	}, "\n")
	return overlayBox.Render(body)
}

func (m *Model) renderAllComplete() string {
	body := strings.Join([]string{
		successStyle.Render("Congratulations! You have memorized the whole text."),
		"",
		m.renderMarkupText(m.machine.Overlay()),
		"",
		footerStyle.Render("enter: start over  ctrl+c: quit"),
	}, "\n")
	return overlayBox.Render(body)
}

func (m *Model) renderEdit() string {
	lines := []string{
		headerStyle.Render(fmt.Sprintf("Editing segment %d/%d", m.editIndex+1, m.machine.Len())),
		"",
		m.editor.View(),
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	lines = append(lines, "", footerStyle.Render("ctrl+s: save  esc: cancel"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderMarkupText(text string) string {
	return wrapStyledRunes(buildMarkupRunes(text, targetStyles), m.contentWidth()-4)
}

func (m *Model) loadFooterStats() {
	if m.history == nil {
		return
	}
	runs, err := m.history.ListRuns(context.Background(), model.HistoryConfig{Lang: m.machine.Lang()})
	if err != nil {
		logErrf("failed to load drill history: %v\n", err)
		return
	}
	if len(runs) == 0 {
		return
	}
	last := runs[len(runs)-1]
	m.lastAcc, _ = statsPkg.RunMetrics(last.Matches, last.Mistakes, last.DurationMs)
	m.hasLast = true
	for _, r := range runs {
		m.allMatches += r.Matches
		m.allMistakes += r.Mistakes
	}
	m.allRuns = len(runs)
	m.recomputeAllTime()
}

func (m *Model) recomputeAllTime() {
	m.allAcc, _ = statsPkg.RunMetrics(m.allMatches, m.allMistakes, 0)
}

func (m *Model) recordRun() {
	run := m.machine.Summary()
	if m.history != nil {
		if _, err := m.history.InsertRun(context.Background(), run); err != nil {
			logErrf("failed to save drill: %v\n", err)
		}
	}
	m.lastAcc, _ = statsPkg.RunMetrics(run.Matches, run.Mistakes, run.DurationMs)
	m.hasLast = true
	m.allMatches += run.Matches
	m.allMistakes += run.Mistakes
	m.allRuns++
	m.recomputeAllTime()
}

func (m *Model) renderFooter() string {
	var segments []string
	if m.screen != screenSetup && m.machine.Len() > 0 {
		segments = append(segments, fmt.Sprintf("%s · %s", m.machine.Mode(), m.machine.Lang()))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastAcc*100))
	}
	if m.allRuns > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% over %d drills", m.allAcc*100, m.allRuns))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
