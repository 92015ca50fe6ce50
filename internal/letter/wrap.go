package letter

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Line is one wrapped line of a prose block. The final line of a block is
// drawn left-aligned; every other line is justified to the full text width.
type Line struct {
	Words []string
	Last  bool
}

// Text reassembles the line with single spaces.
func (l Line) Text() string {
	return strings.Join(l.Words, " ")
}

// wrapWords splits text into greedily filled lines: words accumulate until the
// next word would push the measured width past maxWidth, then the line is
// flushed. A single word wider than maxWidth is emitted unbroken; overflow is
// accepted rather than breaking inside the word.
func wrapWords(face font.Face, text string, maxWidth fixed.Int26_6) []Line {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []Line
	current := []string{words[0]}
	width := font.MeasureString(face, words[0])
	space := font.MeasureString(face, " ")

	for _, word := range words[1:] {
		w := font.MeasureString(face, word)
		if width+space+w > maxWidth {
			lines = append(lines, Line{Words: current})
			current = []string{word}
			width = w
			continue
		}
		current = append(current, word)
		width += space + w
	}
	lines = append(lines, Line{Words: current, Last: true})
	return lines
}

// wordGaps computes per-gap advances that stretch a justified line to exactly
// maxWidth. The residual width is divided evenly across the gaps; any
// remainder (at most gaps-1 fixed-point units) is spread one unit at a time
// over the leading gaps so no line misses the target width by more than one
// unit.
func wordGaps(face font.Face, words []string, maxWidth fixed.Int26_6) []fixed.Int26_6 {
	if len(words) < 2 {
		return nil
	}

	var glyphs fixed.Int26_6
	for _, word := range words {
		glyphs += font.MeasureString(face, word)
	}

	residual := maxWidth - glyphs
	if residual < 0 {
		residual = 0
	}

	n := fixed.Int26_6(len(words) - 1)
	base := residual / n
	rem := residual % n

	gaps := make([]fixed.Int26_6, len(words)-1)
	for i := range gaps {
		gaps[i] = base
		if fixed.Int26_6(i) < rem {
			gaps[i]++
		}
	}
	return gaps
}
