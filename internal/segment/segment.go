// Package segment partitions drill text into practice segments.
package segment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when text has no non-blank lines.
var ErrEmptyInput = errors.New("text has no non-blank lines")

// Mode selects how text is partitioned.
type Mode string

const (
	// ModeSingle makes every non-blank line its own segment.
	ModeSingle Mode = "single"
	// ModeMulti groups lines into paragraphs separated by blank lines.
	ModeMulti Mode = "multi"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSingle:
		return ModeSingle, nil
	case ModeMulti:
		return ModeMulti, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected %q or %q)", s, ModeSingle, ModeMulti)
}

// Segment is a run of lines from the source text. Start and End are raw line
// indices into that text, End exclusive. They are not updated when Lines is
// replaced by an edit.
type Segment struct {
	Start int
	End   int
	Lines []string
}

// Text returns the segment lines joined with newlines.
func (s Segment) Text() string {
	return strings.Join(s.Lines, "\n")
}

// Split partitions text according to mode.
func Split(text string, mode Mode) ([]Segment, error) {
	lines := splitLines(text)
	filtered := 0
	for _, line := range lines {
		if !isBlank(line) {
			filtered++
		}
	}
	if filtered == 0 {
		return nil, ErrEmptyInput
	}

	switch mode {
	case ModeSingle:
		return splitSingle(lines, filtered), nil
	case ModeMulti:
		return splitMulti(lines), nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// Texts returns the text of every segment.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text()
	}
	return out
}

// JoinText joins all segment texts with a newline.
func JoinText(segments []Segment) string {
	return strings.Join(Texts(segments), "\n")
}

func splitSingle(lines []string, filtered int) []Segment {
	out := make([]Segment, 0, filtered)
	for i, line := range lines {
		if isBlank(line) {
			continue
		}
		out = append(out, Segment{Start: i, End: i + 1, Lines: []string{line}})
	}
	return out
}

// Paragraph boundaries come from the unfiltered lines.
func splitMulti(lines []string) []Segment {
	var out []Segment
	for i := 0; i < len(lines); {
		if isBlank(lines[i]) {
			i++
			continue
		}
		start := i
		for i < len(lines) && !isBlank(lines[i]) {
			i++
		}
		seg := make([]string, i-start)
		copy(seg, lines[start:i])
		out = append(out, Segment{Start: start, End: i, Lines: seg})
	}
	return out
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
