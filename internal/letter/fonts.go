package letter

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// typefaces is the lazily loaded font capability. Parsing the embedded
// typefaces happens once, on the first render; a parse failure is remembered
// and surfaced as a rendering failure on every subsequent call.
type typefaces struct {
	regular *opentype.Font
	bold    *opentype.Font
}

var (
	fontsOnce sync.Once
	fontsErr  error
	fonts     typefaces
)

func loadTypefaces() (*typefaces, error) {
	fontsOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontsErr = fmt.Errorf("parse regular typeface: %w", err)
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontsErr = fmt.Errorf("parse bold typeface: %w", err)
			return
		}
		fonts = typefaces{regular: regular, bold: bold}
	})
	if fontsErr != nil {
		return nil, fontsErr
	}
	return &fonts, nil
}

// newFace rasterizes a face at the given pixel size.
func newFace(f *opentype.Font, sizePx float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face: %w", err)
	}
	return face, nil
}
