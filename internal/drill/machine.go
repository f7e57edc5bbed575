// Package drill implements the segment navigation and repetition state machine.
//
// A Machine starts in PhaseSetup, holding the text and options the user is
// configuring. Start partitions the text and enters PhaseActive on the first
// segment. Every correct submission increments the repetition count; reaching
// the target moves the machine to PhaseSegmentComplete and schedules an
// advance Task. Tasks are returned to the caller, which is responsible for
// delivering them back through Fire after Task.Delay. Each task carries the
// generation it was scheduled under and is dropped when the machine has moved
// on in the meantime.
package drill

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuimemo/internal/markup"
	"github.com/verte-zerg/tuimemo/internal/model"
	"github.com/verte-zerg/tuimemo/internal/segment"
)

// Session defaults.
const (
	// DefaultTarget is the repetition target used by the CLI.
	DefaultTarget = 10
	// DefaultLang is the speech language.
	DefaultLang = "en-US"
	// DefaultAdvanceDelay is the pause on a completed segment.
	DefaultAdvanceDelay = 2 * time.Second
	// DefaultClearDelay is how long a matched input stays on screen.
	DefaultClearDelay = 500 * time.Millisecond
)

// Phase is the coarse machine state.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseActive
	PhaseSegmentComplete
	PhaseAllComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseSegmentComplete:
		return "segment-complete"
	case PhaseAllComplete:
		return "all-complete"
	default:
		return "setup"
	}
}

// Feedback grades the latest submission against the current segment.
type Feedback int

const (
	FeedbackNone Feedback = iota
	FeedbackMatchSoFar
	FeedbackMismatch
	FeedbackMatch
)

// TaskKind identifies a delayed transition.
type TaskKind int

const (
	TaskAdvance TaskKind = iota + 1
	TaskClearInput
)

// Task is a transition to apply after Delay.
type Task struct {
	Kind       TaskKind
	Delay      time.Duration
	Generation uint64
}

// SpeechRequest asks the voice output to read Text in Lang.
type SpeechRequest struct {
	Text string
	Lang string
}

// Effects are the side effects a transition asks the caller to perform.
type Effects struct {
	Tasks  []Task
	Speech *SpeechRequest
}

// Options configure a Machine.
type Options struct {
	Mode         segment.Mode
	Target       int
	Lang         string
	AutoSpeak    bool
	Placeholder  string
	AdvanceDelay time.Duration
	ClearDelay   time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type speechKey struct {
	index int
	count int
	shown bool
}

// Machine owns a drill session. It is not safe for concurrent use.
type Machine struct {
	opts Options
	text string

	phase    Phase
	segments []segment.Segment
	index    int
	count    int

	revealShown bool
	autoHidden  bool

	input    string
	feedback Feedback
	overlay  string

	generation uint64

	lastSpoken speechKey
	hasSpoken  bool

	runID     string
	startedAt time.Time
	endedAt   time.Time
	matches   int
	mistakes  int
}

// New returns a Machine in PhaseSetup.
func New(opts Options) (*Machine, error) {
	if opts.Target < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRepetitionTarget, opts.Target)
	}
	if opts.Mode == "" {
		opts.Mode = segment.ModeSingle
	}
	if _, err := segment.ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Lang == "" {
		opts.Lang = DefaultLang
	}
	if opts.Placeholder == "" {
		opts.Placeholder = markup.DefaultPlaceholder
	}
	if opts.AdvanceDelay <= 0 {
		opts.AdvanceDelay = DefaultAdvanceDelay
	}
	if opts.ClearDelay <= 0 {
		opts.ClearDelay = DefaultClearDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{opts: opts, revealShown: true}, nil
}

// SetText replaces the setup text.
func (m *Machine) SetText(text string) error {
	if m.phase != PhaseSetup {
		return ErrSessionRunning
	}
	m.text = text
	return nil
}

// SetMode changes the segmentation mode used by the next Start.
func (m *Machine) SetMode(mode segment.Mode) error {
	if m.phase != PhaseSetup {
		return ErrSessionRunning
	}
	if _, err := segment.ParseMode(string(mode)); err != nil {
		return err
	}
	m.opts.Mode = mode
	return nil
}

// SetTarget changes the repetition target. Invalid values keep the prior target.
func (m *Machine) SetTarget(n int) error {
	if m.phase != PhaseSetup {
		return ErrSessionRunning
	}
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRepetitionTarget, n)
	}
	m.opts.Target = n
	return nil
}

// SetTargetInput parses raw user input as a repetition target.
func (m *Machine) SetTargetInput(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRepetitionTarget, raw)
	}
	return m.SetTarget(n)
}

// Start partitions text and enters the first segment. It returns
// ErrSessionRunning outside PhaseSetup. On error the machine is left untouched.
func (m *Machine) Start(text string) (Effects, error) {
	if m.phase != PhaseSetup {
		return Effects{}, ErrSessionRunning
	}
	segs, err := segment.Split(text, m.opts.Mode)
	if err != nil {
		return Effects{}, err
	}
	m.text = text
	m.segments = segs
	m.hasSpoken = false
	m.runID = uuid.NewString()
	m.startedAt = m.opts.Now()
	m.endedAt = time.Time{}
	m.matches = 0
	m.mistakes = 0
	m.enterActive(0)
	return m.effects(), nil
}

// Submit grades input against the current segment. It is a no-op outside
// PhaseActive and while a match is waiting for its clear task.
func (m *Machine) Submit(input string) (Feedback, Effects) {
	if m.phase != PhaseActive {
		return FeedbackNone, Effects{}
	}
	if m.feedback == FeedbackMatch {
		return FeedbackMatch, Effects{}
	}
	target := strings.TrimSpace(m.segments[m.index].Text())
	typed := strings.TrimSpace(input)
	m.input = input

	if typed != target {
		fb := FeedbackMismatch
		if strings.HasPrefix(target, typed) {
			fb = FeedbackMatchSoFar
		}
		if fb == FeedbackMismatch && m.feedback != FeedbackMismatch {
			m.mistakes++
		}
		m.feedback = fb
		return fb, Effects{}
	}

	m.feedback = FeedbackMatch
	m.count++
	m.matches++
	m.generation++
	m.applyAutoHide()

	if m.count >= m.opts.Target {
		m.phase = PhaseSegmentComplete
		m.overlay = m.segments[m.index].Text()
		return FeedbackMatch, Effects{Tasks: []Task{m.schedule(TaskAdvance, m.opts.AdvanceDelay)}}
	}
	eff := m.effects()
	eff.Tasks = append(eff.Tasks, m.schedule(TaskClearInput, m.opts.ClearDelay))
	return FeedbackMatch, eff
}

// Fire applies a scheduled task. Tasks from an older generation are dropped
// and Fire reports false.
func (m *Machine) Fire(task Task) (bool, Effects) {
	if task.Generation != m.generation {
		return false, Effects{}
	}
	switch task.Kind {
	case TaskAdvance:
		if m.phase != PhaseSegmentComplete {
			return false, Effects{}
		}
		if m.index >= len(m.segments)-1 {
			m.phase = PhaseAllComplete
			m.overlay = segment.JoinText(m.segments)
			m.endedAt = m.opts.Now()
			m.generation++
			return true, Effects{}
		}
		m.enterActive(m.index + 1)
		return true, m.effects()
	case TaskClearInput:
		if m.phase != PhaseActive {
			return false, Effects{}
		}
		m.input = ""
		m.feedback = FeedbackNone
		return true, m.effects()
	}
	return false, Effects{}
}

// Previous moves to the preceding segment. It does nothing at the first
// segment or outside PhaseActive.
func (m *Machine) Previous() Effects {
	return m.move(m.index - 1)
}

// Next moves to the following segment. It does nothing at the last segment
// or outside PhaseActive.
func (m *Machine) Next() Effects {
	return m.move(m.index + 1)
}

func (m *Machine) move(to int) Effects {
	if m.phase != PhaseActive || to < 0 || to >= len(m.segments) {
		return Effects{}
	}
	m.enterActive(to)
	return m.effects()
}

// Edit replaces the text of one segment in place. Editing the current segment
// restarts its repetitions, cancels pending tasks and discards typed input.
// Start and End keep pointing at the lines the segment came from.
func (m *Machine) Edit(index int, text string) (Effects, error) {
	if m.phase == PhaseSetup || m.phase == PhaseAllComplete {
		return Effects{}, ErrNotRunning
	}
	if index < 0 || index >= len(m.segments) {
		return Effects{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if strings.TrimSpace(text) == "" {
		return Effects{}, ErrEmptyInput
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	m.segments[index].Lines = lines
	if index == m.index {
		m.enterActive(index)
	}
	return m.effects(), nil
}

// Reset discards the session and returns to PhaseSetup. Setup text and
// options are kept.
func (m *Machine) Reset() {
	m.phase = PhaseSetup
	m.segments = nil
	m.index = 0
	m.count = 0
	m.revealShown = true
	m.autoHidden = false
	m.input = ""
	m.feedback = FeedbackNone
	m.overlay = ""
	m.hasSpoken = false
	m.generation++
}

// ToggleReveal flips target visibility while a segment is being practiced.
func (m *Machine) ToggleReveal() Effects {
	if m.phase != PhaseActive {
		return Effects{}
	}
	m.revealShown = !m.revealShown
	return m.effects()
}

// Speak returns a request to read the current segment, or nil when no
// segment is on screen.
func (m *Machine) Speak() *SpeechRequest {
	if m.phase != PhaseActive && m.phase != PhaseSegmentComplete {
		return nil
	}
	return m.speechRequest()
}

// Summary describes the current or last run.
func (m *Machine) Summary() model.RunStats {
	ended := m.endedAt
	if ended.IsZero() {
		ended = m.opts.Now()
	}
	return model.RunStats{
		RunID:      m.runID,
		StartedAt:  m.startedAt,
		EndedAt:    ended,
		Mode:       string(m.opts.Mode),
		Lang:       m.opts.Lang,
		Segments:   len(m.segments),
		Target:     m.opts.Target,
		Matches:    m.matches,
		Mistakes:   m.mistakes,
		DurationMs: ended.Sub(m.startedAt).Milliseconds(),
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Mode returns the segmentation mode.
func (m *Machine) Mode() segment.Mode {
	return m.opts.Mode
}

// Target returns the repetition target.
func (m *Machine) Target() int {
	return m.opts.Target
}

// Lang returns the speech language.
func (m *Machine) Lang() string {
	return m.opts.Lang
}

// Text returns the setup text.
func (m *Machine) Text() string {
	return m.text
}

// Len returns the number of session segments.
func (m *Machine) Len() int {
	return len(m.segments)
}

// Index returns the current segment index.
func (m *Machine) Index() int {
	return m.index
}

// Count returns the matches on the current segment.
func (m *Machine) Count() int {
	return m.count
}

// RevealShown reports whether the target text is visible.
func (m *Machine) RevealShown() bool {
	return m.revealShown
}

// Input returns the last submitted input.
func (m *Machine) Input() string {
	return m.input
}

// Feedback returns the grade of the last submission.
func (m *Machine) Feedback() Feedback {
	return m.feedback
}

// Generation identifies the current task generation.
func (m *Machine) Generation() uint64 {
	return m.generation
}

// Segments returns a copy of the session segments.
func (m *Machine) Segments() []segment.Segment {
	return append([]segment.Segment(nil), m.segments...)
}

// Overlay returns the text shown by PhaseSegmentComplete or PhaseAllComplete.
func (m *Machine) Overlay() string {
	if m.phase != PhaseSegmentComplete && m.phase != PhaseAllComplete {
		return ""
	}
	return m.overlay
}

// Current returns the segment being practiced.
func (m *Machine) Current() (segment.Segment, bool) {
	if m.phase == PhaseSetup || len(m.segments) == 0 {
		return segment.Segment{}, false
	}
	return m.segments[m.index], true
}

// HideThreshold is the repetition count that first hides the target text.
func HideThreshold(target int) int {
	return (target + 2) / 3
}

func (m *Machine) enterActive(index int) {
	m.phase = PhaseActive
	m.index = index
	m.count = 0
	m.revealShown = true
	m.autoHidden = false
	m.input = ""
	m.feedback = FeedbackNone
	m.overlay = ""
	m.generation++
}

// Auto-hide applies once per segment pass so a manual reveal sticks.
func (m *Machine) applyAutoHide() {
	if m.autoHidden || m.count < HideThreshold(m.opts.Target) {
		return
	}
	m.revealShown = false
	m.autoHidden = true
}

func (m *Machine) schedule(kind TaskKind, delay time.Duration) Task {
	return Task{Kind: kind, Delay: delay, Generation: m.generation}
}

func (m *Machine) effects() Effects {
	key := m.speechKey()
	if !shouldSpeak(m.opts.AutoSpeak, m.phase, m.input, key, m.lastSpoken, m.hasSpoken) {
		return Effects{}
	}
	m.lastSpoken = key
	m.hasSpoken = true
	return Effects{Speech: m.speechRequest()}
}

func (m *Machine) speechKey() speechKey {
	return speechKey{index: m.index, count: m.count, shown: m.revealShown}
}

// shouldSpeak fires once per distinct (segment, count, reveal) state entered
// with an empty input buffer.
func shouldSpeak(auto bool, phase Phase, input string, key, last speechKey, hasLast bool) bool {
	if !auto || phase != PhaseActive || input != "" {
		return false
	}
	return !hasLast || key != last
}

func (m *Machine) speechRequest() *SpeechRequest {
	return &SpeechRequest{
		Text: markup.SpeechText(m.segments[m.index].Text(), m.opts.Placeholder),
		Lang: m.opts.Lang,
	}
}
