package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuimemo/internal/drill"
	"github.com/verte-zerg/tuimemo/internal/model"
	"github.com/verte-zerg/tuimemo/internal/segment"
)

type fakeSpeaker struct {
	spoken  []string
	cancels int
}

func (s *fakeSpeaker) Speak(text, _ string) error {
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *fakeSpeaker) Cancel() {
	s.cancels++
}

type fakeHistory struct {
	runs []model.RunStats
}

func (h *fakeHistory) InsertRun(_ context.Context, run model.RunStats) (int64, error) {
	h.runs = append(h.runs, run)
	return int64(len(h.runs)), nil
}

func (h *fakeHistory) ListRuns(_ context.Context, _ model.HistoryConfig) ([]model.RunStats, error) {
	return append([]model.RunStats(nil), h.runs...), nil
}

func newTestMachine(t *testing.T, autoSpeak bool) *drill.Machine {
	t.Helper()
	return newMachineWith(t, drill.Options{Target: 1, AutoSpeak: autoSpeak}, "alpha\nbeta")
}

func newMachineWith(t *testing.T, opts drill.Options, text string) *drill.Machine {
	t.Helper()
	machine, err := drill.New(opts)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if err := machine.SetText(text); err != nil {
		t.Fatalf("set text: %v", err)
	}
	return machine
}

func startModel(t *testing.T, machine *drill.Machine) (*Model, *fakeSpeaker, *fakeHistory) {
	t.Helper()
	speaker := &fakeSpeaker{}
	history := &fakeHistory{}
	m := NewModel(machine, history, speaker, true)
	m.Init()
	if m.screen != screenPractice {
		t.Fatalf("expected practice screen after autostart, got %v", m.screen)
	}
	return m, speaker, history
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(m *Model, key tea.KeyType) {
	m.Update(tea.KeyMsg{Type: key})
}

func fireCurrent(m *Model, kind drill.TaskKind) {
	m.Update(taskMsg{task: drill.Task{Kind: kind, Generation: m.machine.Generation()}})
}

func TestDrillRunsToCompletion(t *testing.T) {
	m, speaker, history := startModel(t, newTestMachine(t, true))
	if len(speaker.spoken) != 1 || speaker.spoken[0] != "alpha" {
		t.Fatalf("expected first segment to be spoken, got %v", speaker.spoken)
	}

	typeText(m, "alpha")
	if m.machine.Phase() != drill.PhaseSegmentComplete {
		t.Fatalf("expected segment complete, got %v", m.machine.Phase())
	}
	if !strings.Contains(m.View(), "Segment complete!") {
		t.Fatalf("expected segment overlay in view")
	}

	fireCurrent(m, drill.TaskAdvance)
	if m.machine.Index() != 1 || m.machine.Phase() != drill.PhaseActive {
		t.Fatalf("expected second segment, got index %d phase %v", m.machine.Index(), m.machine.Phase())
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared on advance, got %q", m.input.Value())
	}
	if got := speaker.spoken[len(speaker.spoken)-1]; got != "beta" {
		t.Fatalf("expected second segment spoken, got %q", got)
	}

	typeText(m, "beta")
	fireCurrent(m, drill.TaskAdvance)
	if m.machine.Phase() != drill.PhaseAllComplete {
		t.Fatalf("expected all complete, got %v", m.machine.Phase())
	}
	if !strings.Contains(m.View(), "Congratulations") {
		t.Fatalf("expected completion overlay")
	}
	if m.machine.Overlay() != "alpha\nbeta" {
		t.Fatalf("unexpected overlay text: %q", m.machine.Overlay())
	}
	if len(history.runs) != 1 || history.runs[0].Matches != 2 {
		t.Fatalf("expected one recorded run, got %+v", history.runs)
	}
	if !m.hasLast || m.allRuns != 1 {
		t.Fatalf("expected footer stats updated")
	}

	press(m, tea.KeyEnter)
	if m.screen != screenSetup || m.machine.Phase() != drill.PhaseSetup {
		t.Fatalf("expected setup after start over")
	}
	if m.text.Value() != "alpha\nbeta" {
		t.Fatalf("expected setup text kept, got %q", m.text.Value())
	}
}

func TestMatchClearsInputAfterTask(t *testing.T) {
	m, _, _ := startModel(t, newMachineWith(t, drill.Options{Target: 3}, "alpha\nbeta"))
	typeText(m, "alpha")
	if m.machine.Count() != 1 || m.input.Value() != "alpha" {
		t.Fatalf("expected counted match with input kept, got %d %q", m.machine.Count(), m.input.Value())
	}
	if !strings.Contains(m.progressLabel(), "Repetition 2/3") {
		t.Fatalf("unexpected progress label: %s", m.progressLabel())
	}
	fireCurrent(m, drill.TaskClearInput)
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared, got %q", m.input.Value())
	}
}

func TestKeysAfterMatchDoNotCountAgain(t *testing.T) {
	m, _, _ := startModel(t, newMachineWith(t, drill.Options{Target: 3}, "alpha"))
	typeText(m, "alpha")
	press(m, tea.KeyEnter)
	press(m, tea.KeyLeft)
	press(m, tea.KeyEnd)
	if m.machine.Count() != 1 || m.machine.Phase() != drill.PhaseActive {
		t.Fatalf("expected one counted match, got %d %v", m.machine.Count(), m.machine.Phase())
	}
	if got := m.machine.Summary(); got.Matches != 1 || got.Mistakes != 0 {
		t.Fatalf("unexpected run totals: %+v", got)
	}

	fireCurrent(m, drill.TaskClearInput)
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared, got %q", m.input.Value())
	}
	typeText(m, "alpha")
	if m.machine.Count() != 2 {
		t.Fatalf("expected second match after clear, got %d", m.machine.Count())
	}
}

func TestStaleTaskIsIgnored(t *testing.T) {
	m, _, _ := startModel(t, newMachineWith(t, drill.Options{Target: 3}, "alpha\nbeta"))
	typeText(m, "alpha")
	stale := drill.Task{Kind: drill.TaskClearInput, Generation: m.machine.Generation()}

	press(m, tea.KeyCtrlN)
	if m.machine.Index() != 1 {
		t.Fatalf("expected next segment, got %d", m.machine.Index())
	}
	typeText(m, "be")
	m.Update(taskMsg{task: stale})
	if m.input.Value() != "be" {
		t.Fatalf("expected stale task to leave input alone, got %q", m.input.Value())
	}
}

func TestMultiModeIgnoresNavigationKeys(t *testing.T) {
	machine := newMachineWith(t, drill.Options{Target: 2, Mode: segment.ModeMulti}, "a\nb\n\nc")
	m, _, _ := startModel(t, machine)
	press(m, tea.KeyCtrlN)
	if m.machine.Index() != 0 {
		t.Fatalf("expected navigation to be disabled in multi mode")
	}
	if strings.Contains(m.practiceHelp(), "prev/next") {
		t.Fatalf("expected no navigation help in multi mode")
	}
}

func TestRevealToggleShowsNotice(t *testing.T) {
	m, _, _ := startModel(t, newMachineWith(t, drill.Options{Target: 3}, "alpha"))
	press(m, tea.KeyCtrlR)
	if m.machine.RevealShown() {
		t.Fatalf("expected text hidden")
	}
	if !strings.Contains(m.View(), hiddenNotice) {
		t.Fatalf("expected hidden notice in view")
	}
	press(m, tea.KeyCtrlR)
	if strings.Contains(m.View(), hiddenNotice) {
		t.Fatalf("expected text shown again")
	}
}

func TestListenSpeaksCurrentSegment(t *testing.T) {
	machine := newMachineWith(t, drill.Options{Target: 3, Placeholder: "math"}, "The $x$ value")
	m, speaker, _ := startModel(t, machine)
	if len(speaker.spoken) != 0 {
		t.Fatalf("expected no automatic speech, got %v", speaker.spoken)
	}
	press(m, tea.KeyCtrlL)
	if len(speaker.spoken) != 1 || speaker.spoken[0] != "The math value" {
		t.Fatalf("unexpected speech: %v", speaker.spoken)
	}
}

func TestEditCurrentSegment(t *testing.T) {
	m, _, _ := startModel(t, newMachineWith(t, drill.Options{Target: 3}, "alpha\nbeta"))
	typeText(m, "alpha")

	press(m, tea.KeyCtrlE)
	if m.screen != screenEdit || m.editor.Value() != "alpha" {
		t.Fatalf("expected editor with segment text, got %v %q", m.screen, m.editor.Value())
	}
	m.editor.SetValue("omega")
	press(m, tea.KeyCtrlS)
	if m.screen != screenPractice {
		t.Fatalf("expected practice screen after save")
	}
	seg, _ := m.machine.Current()
	if seg.Text() != "omega" || m.machine.Count() != 0 {
		t.Fatalf("expected edited segment with reset count, got %q %d", seg.Text(), m.machine.Count())
	}
	if m.input.Value() != "" {
		t.Fatalf("expected typed input discarded, got %q", m.input.Value())
	}
}

func TestEditRejectsEmptySegment(t *testing.T) {
	m, _, _ := startModel(t, newMachineWith(t, drill.Options{Target: 3}, "alpha"))
	press(m, tea.KeyCtrlE)
	m.editor.SetValue("   ")
	press(m, tea.KeyCtrlS)
	if m.screen != screenEdit || m.errMsg == "" {
		t.Fatalf("expected editor to stay open with error")
	}
	press(m, tea.KeyEsc)
	seg, _ := m.machine.Current()
	if m.screen != screenPractice || seg.Text() != "alpha" {
		t.Fatalf("expected cancel to keep segment, got %q", seg.Text())
	}
}

func TestSetupRejectsEmptyText(t *testing.T) {
	machine := newMachineWith(t, drill.Options{Target: 3}, "")
	m := NewModel(machine, nil, nil, false)
	m.Init()
	press(m, tea.KeyCtrlS)
	if m.screen != screenSetup || m.errMsg == "" {
		t.Fatalf("expected setup error for empty text")
	}
	if machine.Phase() != drill.PhaseSetup {
		t.Fatalf("expected machine to stay in setup")
	}
}

func TestSetupRepetitionField(t *testing.T) {
	machine := newMachineWith(t, drill.Options{Target: 3}, "alpha")
	m := NewModel(machine, nil, nil, false)
	m.Init()
	press(m, tea.KeyTab)
	if m.focus != focusReps {
		t.Fatalf("expected repetitions field focused")
	}
	press(m, tea.KeyBackspace)
	if m.errMsg == "" || machine.Target() != 3 {
		t.Fatalf("expected invalid target to keep prior value, got %d", machine.Target())
	}
	typeText(m, "5")
	if m.errMsg != "" || machine.Target() != 5 {
		t.Fatalf("expected target 5, got %d (%s)", machine.Target(), m.errMsg)
	}
}

func TestSetupModeToggle(t *testing.T) {
	machine := newMachineWith(t, drill.Options{Target: 3}, "alpha")
	m := NewModel(machine, nil, nil, false)
	press(m, tea.KeyCtrlT)
	if machine.Mode() != segment.ModeMulti {
		t.Fatalf("expected multi mode, got %s", machine.Mode())
	}
	press(m, tea.KeyCtrlT)
	if machine.Mode() != segment.ModeSingle {
		t.Fatalf("expected single mode, got %s", machine.Mode())
	}
}

func TestEscapeReturnsToSetup(t *testing.T) {
	m, speaker, _ := startModel(t, newMachineWith(t, drill.Options{Target: 3}, "alpha"))
	press(m, tea.KeyEsc)
	if m.screen != screenSetup || m.machine.Phase() != drill.PhaseSetup {
		t.Fatalf("expected setup after escape")
	}
	if speaker.cancels == 0 {
		t.Fatalf("expected speech to be cancelled")
	}
}
