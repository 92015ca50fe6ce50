package letter

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// A4 physical page size in millimetres. The raster fills the page exactly;
// margins are baked into the raster itself.
const (
	pdfPageWidthMM  = 210.0
	pdfPageHeightMM = 297.0
)

// PDFEncoder embeds a rendered letter raster into a single-page A4 document.
type PDFEncoder struct{}

// NewPDFEncoder constructs a PDFEncoder.
func NewPDFEncoder() *PDFEncoder {
	return &PDFEncoder{}
}

// Encode produces the PDF bytes for a rendered page.
func (e *PDFEncoder) Encode(img *image.RGBA) ([]byte, error) {
	payload, err := EncodeJPEG(img)
	if err != nil {
		return nil, err
	}
	jpg := bytes.NewReader(payload)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("letter", opts, jpg)
	pdf.ImageOptions("letter", 0, 0, pdfPageWidthMM, pdfPageHeightMM, false, opts, 0, "")

	out := &bytes.Buffer{}
	if err := pdf.Output(out); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}

// ExportFilename derives the deterministic download name from submitter name
// and class, collapsing whitespace runs to underscores.
func ExportFilename(nama, kelas string) string {
	compact := strings.Join(strings.Fields(nama), "_")
	return fmt.Sprintf("Surat_Ijin_Pramuka_%s_%s.pdf", compact, kelas)
}
