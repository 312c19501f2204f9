package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// missedSpace stands in for a space typed wrong, which would otherwise be invisible.
const missedSpace = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes styles the text against the engine's per-position marks.
// Runes past the marks are pending; the word under the cursor is highlighted.
func buildStyledRunes(targetRunes []rune, marks []bool, cursorIndex int) []styledRune {
	wordStart, wordEnd := currentWord(targetRunes, cursorIndex)

	out := make([]styledRune, 0, len(targetRunes))
	for i, target := range targetRunes {
		shown := target
		style := pendingStyle
		switch {
		case i < len(marks) && marks[i]:
			style = correctStyle
		case i < len(marks):
			style = incorrectStyle
			if target == ' ' {
				shown = missedSpace
			}
		case i >= wordStart && i < wordEnd:
			style = currentWordStyle
		}
		if i == cursorIndex {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(shown)),
			width:   runewidth.RuneWidth(shown),
			isSpace: target == ' ',
		})
	}
	return out
}

// currentWord returns the [start,end) range of the word at the cursor. A
// cursor resting on a space selects the word after it. Without a cursor the
// first word is selected.
func currentWord(text []rune, cursor int) (int, int) {
	if cursor < 0 {
		cursor = 0
	}
	start := cursor
	for start < len(text) && text[start] == ' ' {
		start++
	}
	if start >= len(text) {
		return 0, 0
	}
	end := start
	for end < len(text) && text[end] != ' ' {
		end++
	}
	for start > 0 && text[start-1] != ' ' {
		start--
	}
	return start, end
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at spaces, dropping the space at the break.
// Words wider than the line are split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var (
		lines     []string
		line      []styledRune
		lineWidth int
	)
	flush := func() {
		for len(line) > 0 && line[len(line)-1].isSpace {
			line = line[:len(line)-1]
		}
		lines = append(lines, renderStyledRunes(line))
		line = line[:0]
		lineWidth = 0
	}

	for _, tok := range splitTokens(runes) {
		tokWidth := widthOf(tok)
		if tok[0].isSpace {
			if lineWidth+tokWidth > width {
				flush()
				continue
			}
			line = append(line, tok...)
			lineWidth += tokWidth
			continue
		}
		for len(tok) > 0 {
			if lineWidth+tokWidth <= width {
				line = append(line, tok...)
				lineWidth += tokWidth
				break
			}
			if lineWidth > 0 && tokWidth <= width {
				flush()
				continue
			}
			for len(tok) > 0 && lineWidth+tok[0].width <= width {
				line = append(line, tok[0])
				lineWidth += tok[0].width
				tokWidth -= tok[0].width
				tok = tok[1:]
			}
			if lineWidth == 0 {
				// Single rune wider than the line.
				line = append(line, tok[0])
				tokWidth -= tok[0].width
				tok = tok[1:]
			}
			flush()
		}
	}
	if len(line) > 0 || len(lines) == 0 {
		flush()
	}
	return strings.Join(lines, "\n")
}

// splitTokens groups runes into words, with every space as its own token.
func splitTokens(runes []styledRune) [][]styledRune {
	var tokens [][]styledRune
	start := 0
	for i, r := range runes {
		if !r.isSpace {
			continue
		}
		if start < i {
			tokens = append(tokens, runes[start:i])
		}
		tokens = append(tokens, runes[i:i+1])
		start = i + 1
	}
	if start < len(runes) {
		tokens = append(tokens, runes[start:])
	}
	return tokens
}

func widthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}
