package statsui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuimemo/internal/model"
)

type fakeLister struct {
	runs []model.RunStats
	err  error
	last model.HistoryConfig
}

func (f *fakeLister) ListRuns(_ context.Context, cfg model.HistoryConfig) ([]model.RunStats, error) {
	f.last = cfg
	if f.err != nil {
		return nil, f.err
	}
	return f.runs, nil
}

func sampleRuns(n int) []model.RunStats {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := make([]model.RunStats, n)
	for i := range runs {
		start := base.Add(time.Duration(i) * time.Hour)
		runs[i] = model.RunStats{
			RunID:      fmt.Sprintf("run-%d", i),
			StartedAt:  start,
			EndedAt:    start.Add(time.Minute),
			Mode:       "single",
			Lang:       "en-US",
			Segments:   3,
			Target:     4,
			Matches:    12,
			Mistakes:   i,
			DurationMs: 60000,
		}
	}
	return runs
}

func TestNewModelLoadsReport(t *testing.T) {
	lister := &fakeLister{runs: sampleRuns(3)}
	m := NewModel(lister, model.HistoryConfig{Lang: "en-US"}, 5)
	if len(m.report.Runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(m.report.Runs))
	}
	if lister.last.Lang != "en-US" {
		t.Fatalf("expected lang filter to be passed, got %+v", lister.last)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "Drills") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	if got := len(strings.Split(view, "\n")); got != 30 {
		t.Fatalf("expected view to fill 30 lines, got %d", got)
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	m := NewModel(&fakeLister{err: errors.New("db locked")}, model.HistoryConfig{}, 5)
	if m.errMsg != "db locked" {
		t.Fatalf("expected error message, got %q", m.errMsg)
	}
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if !strings.Contains(m.View(), "db locked") {
		t.Fatalf("expected error in footer")
	}
}

func TestRenderOverview(t *testing.T) {
	out := renderOverview(sampleRuns(4), 2, 100)
	for _, want := range []string{"Drills", "Segments", "Avg Acc", "Accuracy trend (window 2)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in overview:\n%s", want, out)
		}
	}
	if out := renderOverview(nil, 2, 100); out != "No drills found." {
		t.Fatalf("unexpected empty overview: %q", out)
	}
}

func TestBuildRunRows(t *testing.T) {
	runs := sampleRuns(1)
	rows := buildRunRows(runs, runs[0].EndedAt.Add(2*time.Hour))
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	row := rows[0]
	if row[0] != "2 hours ago" || row[5] != "100.0%" || row[6] != "1m0s" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestApplyFilter(t *testing.T) {
	m := NewModel(&fakeLister{}, model.HistoryConfig{}, 5)
	m.filterInputs[filterMode].SetValue("Multi")
	m.filterInputs[filterLang].SetValue("de-DE")
	m.filterInputs[filterSince].SetValue("2026-02-01")
	m.filterInputs[filterLast].SetValue("7")
	m.filterInputs[filterWindow].SetValue("3")
	if err := m.applyFilter(); err != nil {
		t.Fatalf("apply filter: %v", err)
	}
	if m.cfg.Mode != "multi" || m.cfg.Lang != "de-DE" || m.cfg.Last != 7 || m.window != 3 {
		t.Fatalf("unexpected filter: %+v window=%d", m.cfg, m.window)
	}
	if m.cfg.Since == nil || m.cfg.Since.Format("2006-01-02") != "2026-02-01" {
		t.Fatalf("unexpected since: %v", m.cfg.Since)
	}
}

func TestApplyFilterRejectsBadValues(t *testing.T) {
	cases := map[int]string{
		filterMode:   "both",
		filterSince:  "yesterday",
		filterLast:   "-1",
		filterWindow: "0",
	}
	for idx, value := range cases {
		m := NewModel(&fakeLister{}, model.HistoryConfig{}, 5)
		m.filterInputs[idx].SetValue(value)
		if err := m.applyFilter(); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestWindowSteps(t *testing.T) {
	if got := nextWindow(1); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := nextWindow(7); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := prevWindow(7); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := prevWindow(5); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestFitLines(t *testing.T) {
	out := fitLines("ab\ncd\nef", 3, 2)
	if out != "ab \ncd " {
		t.Fatalf("unexpected output: %q", out)
	}
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
