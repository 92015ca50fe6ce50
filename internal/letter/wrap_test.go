package letter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func testFace(t *testing.T) font.Face {
	t.Helper()
	faces, err := loadTypefaces()
	require.NoError(t, err)
	face, err := newFace(faces.regular, 16)
	require.NoError(t, err)
	return face
}

func TestWrapWordsRespectsWidth(t *testing.T) {
	face := testFace(t)
	maxWidth := fixed.I(300)
	text := "Dengan hormat saya selaku orang tua wali murid memberitahukan bahwa anak saya tidak dapat mengikuti kegiatan pramuka pada hari ini"

	lines := wrapWords(face, text, maxWidth)
	require.NotEmpty(t, lines)

	for i, line := range lines {
		require.NotEmpty(t, line.Words)
		width := font.MeasureString(face, line.Text())
		if len(line.Words) > 1 {
			assert.LessOrEqual(t, width, maxWidth, "line %d too wide: %q", i, line.Text())
		}
	}
}

func TestWrapWordsPreservesEveryWord(t *testing.T) {
	face := testFace(t)
	text := "kata satu   dua  tiga\tempat\nlima"

	lines := wrapWords(face, text, fixed.I(120))

	var rejoined []string
	for _, line := range lines {
		rejoined = append(rejoined, line.Words...)
	}
	assert.Equal(t, strings.Fields(text), rejoined)
}

func TestWrapWordsMarksOnlyFinalLineLast(t *testing.T) {
	face := testFace(t)
	lines := wrapWords(face, "alpha beta gamma delta epsilon zeta eta theta", fixed.I(100))
	require.Greater(t, len(lines), 1)

	for i, line := range lines {
		assert.Equal(t, i == len(lines)-1, line.Last)
	}
}

func TestWrapWordsSingleOverlongWord(t *testing.T) {
	face := testFace(t)
	word := strings.Repeat("panjangsekali", 10)

	lines := wrapWords(face, word, fixed.I(50))
	require.Len(t, lines, 1)
	assert.Equal(t, []string{word}, lines[0].Words)
	assert.True(t, lines[0].Last)
}

func TestWrapWordsEmptyText(t *testing.T) {
	face := testFace(t)
	assert.Nil(t, wrapWords(face, "   ", fixed.I(100)))
}

func TestWordGapsFillExactWidth(t *testing.T) {
	face := testFace(t)
	words := []string{"saya", "tidak", "dapat", "mengikuti", "kegiatan"}
	maxWidth := fixed.I(400)

	gaps := wordGaps(face, words, maxWidth)
	require.Len(t, gaps, len(words)-1)

	total := fixed.Int26_6(0)
	for _, word := range words {
		total += font.MeasureString(face, word)
	}
	for _, gap := range gaps {
		total += gap
	}
	assert.Equal(t, maxWidth, total)
}

func TestWordGapsSpreadRemainderEvenly(t *testing.T) {
	face := testFace(t)
	words := []string{"a", "b", "c", "d", "e", "f", "g"}

	gaps := wordGaps(face, words, fixed.I(333))
	require.Len(t, gaps, 6)

	min, max := gaps[0], gaps[0]
	for _, gap := range gaps[1:] {
		if gap < min {
			min = gap
		}
		if gap > max {
			max = gap
		}
	}
	assert.LessOrEqual(t, max-min, fixed.Int26_6(1))
}

func TestWordGapsDegenerateCases(t *testing.T) {
	face := testFace(t)
	assert.Nil(t, wordGaps(face, nil, fixed.I(100)))
	assert.Nil(t, wordGaps(face, []string{"satu"}, fixed.I(100)))

	// Words wider than the target clamp the residual at zero.
	gaps := wordGaps(face, []string{"katapanjang", "katapanjang"}, fixed.I(1))
	require.Len(t, gaps, 1)
	assert.Equal(t, fixed.Int26_6(0), gaps[0])
}
