// Package markup splits text lines into literal and embedded-markup runs.
package markup

import "strings"

const (
	delim      = '$'
	blockDelim = "$$"
)

// DefaultPlaceholder replaces markup spans in speech text.
const DefaultPlaceholder = "formula"

// Kind tags a run as literal text or markup.
type Kind int

const (
	KindLiteral Kind = iota
	KindMarkup
)

func (k Kind) String() string {
	if k == KindMarkup {
		return "markup"
	}
	return "literal"
}

// Run is a contiguous piece of a line with a single kind.
type Run struct {
	Kind    Kind
	Content string
	// Block marks a whole-line $$...$$ display run.
	Block bool
}

// Tokenize splits a single line into ordered runs. Unmatched delimiters are
// tolerated: an unterminated $ flushes the tail as markup.
func Tokenize(line string) []Run {
	if line == "" {
		return nil
	}
	if isBlock(line) {
		return []Run{{Kind: KindMarkup, Content: line[2 : len(line)-2], Block: true}}
	}

	var runs []Run
	var buf strings.Builder
	inMarkup := false
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		kind := KindLiteral
		if inMarkup {
			kind = KindMarkup
		}
		runs = append(runs, Run{Kind: kind, Content: buf.String()})
		buf.Reset()
	}
	for _, r := range line {
		if r == delim {
			flush()
			inMarkup = !inMarkup
			continue
		}
		buf.WriteRune(r)
	}
	flush()
	return runs
}

// TokenizeText tokenizes every line of text. Empty lines yield empty run lists.
func TokenizeText(text string) [][]Run {
	lines := strings.Split(text, "\n")
	out := make([][]Run, len(lines))
	for i, line := range lines {
		out[i] = Tokenize(line)
	}
	return out
}

// Join reassembles runs into a line, reinserting delimiters around markup.
func Join(runs []Run) string {
	var b strings.Builder
	for _, run := range runs {
		switch {
		case run.Kind == KindMarkup && run.Block:
			b.WriteString(blockDelim)
			b.WriteString(run.Content)
			b.WriteString(blockDelim)
		case run.Kind == KindMarkup:
			b.WriteRune(delim)
			b.WriteString(run.Content)
			b.WriteRune(delim)
		default:
			b.WriteString(run.Content)
		}
	}
	return b.String()
}

// HasMarkup reports whether any line of text contains a markup run.
func HasMarkup(text string) bool {
	for _, runs := range TokenizeText(text) {
		for _, run := range runs {
			if run.Kind == KindMarkup {
				return true
			}
		}
	}
	return false
}

// SpeechText replaces every markup span with placeholder so the text can be
// read aloud. An empty placeholder falls back to DefaultPlaceholder.
func SpeechText(text, placeholder string) string {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	lines := TokenizeText(text)
	out := make([]string, len(lines))
	for i, runs := range lines {
		var b strings.Builder
		for _, run := range runs {
			if run.Kind == KindLiteral {
				b.WriteString(run.Content)
				continue
			}
			b.WriteString(placeholder)
		}
		out[i] = b.String()
	}
	return strings.Join(out, "\n")
}

func isBlock(line string) bool {
	return len(line) >= 4 && strings.HasPrefix(line, blockDelim) && strings.HasSuffix(line, blockDelim)
}
