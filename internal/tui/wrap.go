package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuimemo/internal/markup"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
	isBreak bool
}

type runStyles struct {
	literal lipgloss.Style
	markup  lipgloss.Style
	block   lipgloss.Style
}

// buildMarkupRunes styles text rune by rune according to its markup runs.
// Lines are separated by break items.
func buildMarkupRunes(text string, styles runStyles) []styledRune {
	lines := markup.TokenizeText(text)
	out := make([]styledRune, 0, len(text)+len(lines))
	for i, runs := range lines {
		if i > 0 {
			out = append(out, styledRune{isBreak: true})
		}
		for _, run := range runs {
			style := styles.literal
			switch {
			case run.Kind == markup.KindMarkup && run.Block:
				style = styles.block
			case run.Kind == markup.KindMarkup:
				style = styles.markup
			}
			for _, r := range run.Content {
				out = append(out, styledRune{
					s:       style.Render(string(r)),
					width:   runewidth.RuneWidth(r),
					isSpace: r == ' ',
				})
			}
		}
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		if item.isBreak {
			b.WriteRune('\n')
			continue
		}
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if item.isBreak {
			out.WriteString(renderStyledRunes(line))
			out.WriteRune('\n')
			line = line[:0]
			lineWidth = 0
			lastSpaceIdx = -1
			i++
			continue
		}
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
