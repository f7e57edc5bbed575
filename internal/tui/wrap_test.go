package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

var plainStyles = runStyles{
	literal: lipgloss.NewStyle(),
	markup:  lipgloss.NewStyle(),
	block:   lipgloss.NewStyle(),
}

func TestBuildMarkupRunesStylesRuns(t *testing.T) {
	runes := buildMarkupRunes("a $x$ b", targetStyles)
	if len(runes) != 5 {
		t.Fatalf("expected 5 runes, got %d", len(runes))
	}
	if runes[0].s != targetStyles.literal.Render("a") {
		t.Fatalf("expected literal style for first rune")
	}
	if runes[2].s != targetStyles.markup.Render("x") {
		t.Fatalf("expected markup style for markup rune")
	}
	if !runes[1].isSpace || !runes[3].isSpace {
		t.Fatalf("expected spaces to be marked")
	}
}

func TestBuildMarkupRunesBlockLine(t *testing.T) {
	runes := buildMarkupRunes("intro\n$$y$$", targetStyles)
	if len(runes) != 7 {
		t.Fatalf("expected 7 runes, got %d", len(runes))
	}
	if !runes[5].isBreak {
		t.Fatalf("expected line break between lines")
	}
	if runes[6].s != targetStyles.block.Render("y") {
		t.Fatalf("expected block style for block run")
	}
}

func TestBuildMarkupRunesWideRune(t *testing.T) {
	runes := buildMarkupRunes("日a", plainStyles)
	if runes[0].width != 2 || runes[1].width != 1 {
		t.Fatalf("unexpected widths: %d %d", runes[0].width, runes[1].width)
	}
}

func TestWrapStyledRunesWrapsAtSpaces(t *testing.T) {
	runes := buildMarkupRunes("one two three", plainStyles)
	out := wrapStyledRunes(runes, 7)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "one two" || lines[1] != "three" {
		t.Fatalf("unexpected wrap: %q", lines)
	}
}

func TestWrapStyledRunesKeepsLineBreaks(t *testing.T) {
	runes := buildMarkupRunes("ab\ncd", plainStyles)
	if out := wrapStyledRunes(runes, 10); out != "ab\ncd" {
		t.Fatalf("unexpected output: %q", out)
	}
	if out := renderStyledRunes(runes); out != "ab\ncd" {
		t.Fatalf("unexpected unwrapped output: %q", out)
	}
}

func TestWrapStyledRunesSplitsLongWord(t *testing.T) {
	runes := buildMarkupRunes("abcdef", plainStyles)
	if out := wrapStyledRunes(runes, 4); out != "abcd\nef" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestWrapStyledRunesDropsMarkupDelimiters(t *testing.T) {
	runes := buildMarkupRunes("The $x^2$ value", plainStyles)
	if out := wrapStyledRunes(runes, 0); out != "The x^2 value" {
		t.Fatalf("unexpected output: %q", out)
	}
}
