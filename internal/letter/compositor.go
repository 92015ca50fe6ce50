package letter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"time"

	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// Layout constants. The letter is laid out in a 794x1123 logical grid (A4 at
// CSS pixel density) and rasterized at pageWidth x pageHeight, roughly 200 DPI.
const (
	baseWidth  = 794.0
	baseHeight = 1123.0
	pageWidth  = 1654
	pageHeight = 2339

	bodyFontSize = 16.0
	lineHeight   = 26.0
	marginLeft   = 100.0
	marginRight  = 100.0
	indentOffset = 40.0
	dataOffset   = 60.0
	labelWidth   = 150.0

	watermarkWord     = "DIPORANI"
	watermarkFontSize = 72.0
	watermarkSpacingX = 280.0
	watermarkSpacingY = 200.0
	watermarkStartX   = -100.0
	watermarkStartY   = 100.0
	watermarkAngle    = -math.Pi / 8

	qrSide      = 110.0
	qrTop       = 120.0
	qrBorder    = 4.0
	jpegQuality = 80

	blankSignatory = "____________________"
)

const (
	subjectLabel  = "Perihal"
	subjectText   = ": Permohonan ijin tidak mengikuti kegiatan pramuka"
	reasonIntro   = "Dengan ini saya ingin memberitahukan bahwa saya tidak dapat mengikuti kegiatan pramuka dengan alasan sebagai berikut:"
	reasonClosing = "Demikian surat ijin saya sampaikan dengan sebenar-benarnya. Atas perhatiannya saya ucapkan terima kasih."
	qrCaption     = "Scan untuk verifikasi"
)

var recipientBlock = []string{
	"Kepada Yth.",
	"Kakak Dewan Ambalan",
	"SMA Negeri 1 Kasihan",
	"Di tempat",
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var (
	inkBlack     = color.NRGBA{0x00, 0x00, 0x00, 0xff}
	inkWatermark = color.NRGBA{0x7b, 0x5b, 0x46, 0x0d}
	inkQRBorder  = color.NRGBA{0x4c, 0xaf, 0x50, 0xff}
	paperWhite   = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

// Fields is the snapshot of record values a letter is composed from.
type Fields struct {
	Nama    string
	Absen   string
	Kelas   string
	Sangga  string
	PKKelas string
	Alasan  string
}

// Compositor turns a field snapshot into a letter raster and, on demand, a
// single-page PDF. Rendering is pure over (fields, izinID, clock): the only
// time-dependent output is the dateline.
type Compositor struct {
	origin string
	place  string
	now    func() time.Time
}

// NewCompositor constructs a Compositor. origin is the public base URL for
// verification QR payloads, place the town stamped into the dateline.
func NewCompositor(origin, place string) *Compositor {
	return &Compositor{origin: origin, place: place, now: time.Now}
}

// WithClock overrides the dateline clock. Intended for tests.
func (c *Compositor) WithClock(now func() time.Time) *Compositor {
	c.now = now
	return c
}

// page bundles the raster with its faces and logical-to-device scaling.
type page struct {
	img   *image.RGBA
	scale float64
	body  font.Face
	bold  font.Face
}

func (p *page) fx(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * p.scale * 64))
}

func (p *page) measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64 / p.scale
}

func (p *page) drawText(face font.Face, s string, x, y float64) {
	d := &font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(inkBlack),
		Face: face,
		Dot:  fixed.Point26_6{X: p.fx(x), Y: p.fx(y)},
	}
	d.DrawString(s)
}

func (p *page) drawTextRight(face font.Face, s string, right, y float64) {
	p.drawText(face, s, right-p.measure(face, s), y)
}

func (p *page) drawTextCentered(face font.Face, s string, centerX, y float64) {
	p.drawText(face, s, centerX-p.measure(face, s)/2, y)
}

// drawJustified draws one wrapped line. Lines marked Last, and single-word
// lines, are left-aligned; every other line is stretched to exactly maxWidth
// by widening the inter-word gaps.
func (p *page) drawJustified(face font.Face, line Line, x, y, maxWidth float64) {
	if line.Last || len(line.Words) < 2 {
		p.drawText(face, line.Text(), x, y)
		return
	}

	gaps := wordGaps(face, line.Words, p.fx(maxWidth))
	dot := fixed.Point26_6{X: p.fx(x), Y: p.fx(y)}
	for i, word := range line.Words {
		d := &font.Drawer{Dst: p.img, Src: image.NewUniform(inkBlack), Face: face, Dot: dot}
		d.DrawString(word)
		dot.X += font.MeasureString(face, word)
		if i < len(gaps) {
			dot.X += gaps[i]
		}
	}
}

// drawBlock wraps text into the given width, draws each line justified, and
// returns the y cursor after the block plus the requested trailing advance.
func (p *page) drawBlock(face font.Face, text string, x, y, maxWidth, trailing float64) float64 {
	lines := wrapWords(face, text, p.fx(maxWidth))
	for i, line := range lines {
		p.drawJustified(face, line, x, y, maxWidth)
		if i < len(lines)-1 {
			y += lineHeight
		}
	}
	if len(lines) > 0 {
		y += lineHeight * trailing
	}
	return y
}

// Render composes the full letter raster. When izinID is non-empty a
// verification QR code is embedded in the top-right inset.
func (c *Compositor) Render(f Fields, izinID string) (*image.RGBA, error) {
	tf, err := loadTypefaces()
	if err != nil {
		return nil, err
	}

	scale := float64(pageWidth) / baseWidth
	body, err := newFace(tf.regular, bodyFontSize*scale)
	if err != nil {
		return nil, err
	}
	bold, err := newFace(tf.bold, bodyFontSize*scale)
	if err != nil {
		return nil, err
	}
	wmFace, err := newFace(tf.bold, watermarkFontSize*scale)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, pageWidth, pageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(paperWhite), image.Point{}, draw.Src)

	p := &page{img: img, scale: scale, body: body, bold: bold}

	drawWatermark(p, wmFace)

	y := 80.0

	// Subject line and dateline.
	p.drawText(body, subjectLabel, marginLeft, y)
	p.drawText(body, subjectText, marginLeft+80, y)
	p.drawTextRight(body, fmt.Sprintf("%s, %s", c.place, formatLongDate(c.now())), baseWidth-marginRight, y)
	y += lineHeight * 1.8

	for _, line := range recipientBlock {
		p.drawText(body, line, marginLeft, y)
		y += lineHeight
	}
	y += lineHeight * 0.8

	p.drawText(body, "Dengan Hormat,", marginLeft, y)
	y += lineHeight * 1.4

	indent := marginLeft + indentOffset
	p.drawText(body, "Saya yang bertanda tangan di bawah ini:", indent, y)
	y += lineHeight * 1.4

	// Identity table: label / colon / value at fixed offsets.
	dataIndent := marginLeft + dataOffset
	rows := []struct{ label, value string }{
		{"Nama", f.Nama},
		{"Nomor Absen", f.Absen},
		{"Kelas", f.Kelas},
		{"Sangga", f.Sangga},
		{"Pembina Kelas", f.PKKelas},
	}
	for i, row := range rows {
		p.drawText(body, row.label, dataIndent, y)
		p.drawText(body, ":", dataIndent+labelWidth, y)
		p.drawText(body, row.value, dataIndent+labelWidth+20, y)
		if i == len(rows)-1 {
			y += lineHeight * 1.4
		} else {
			y += lineHeight
		}
	}

	maxWidth := baseWidth - marginLeft - marginRight - indentOffset
	y = p.drawBlock(body, reasonIntro, indent, y, maxWidth, 1.2)
	y = p.drawBlock(body, f.Alasan, indent, y, maxWidth, 1.6)
	y = p.drawBlock(body, reasonClosing, indent, y, maxWidth, 2.2)

	// Signature block.
	signatureY := y
	hormatX := baseWidth - marginRight - 80
	p.drawTextCentered(body, "Hormat Saya,", hormatX, signatureY)
	p.drawTextCentered(body, signatoryName(f.Nama), hormatX, signatureY+lineHeight*3.5)

	// Three-column acknowledgement grid.
	ackY := signatureY + lineHeight*6
	colSpacing := (baseWidth - marginLeft - marginRight) / 3
	cols := []struct {
		role string
		name string
	}{
		{"Pembina Kelas", f.PKKelas},
		{"Kamabigus", ""},
		{"Judat", ""},
	}
	for i, col := range cols {
		centerX := marginLeft + colSpacing*(float64(i)+0.5)
		p.drawTextCentered(body, "Mengetahui,", centerX, ackY)
		p.drawTextCentered(bold, col.role, centerX, ackY+lineHeight)
		p.drawTextCentered(body, signatoryName(col.name), centerX, ackY+lineHeight*4)
	}

	if izinID != "" {
		if err := drawQRInset(p, VerificationURL(c.origin, izinID)); err != nil {
			return nil, err
		}
	}

	return img, nil
}

// EncodeJPEG serializes a rendered page for preview delivery. Lossy output is
// accepted to bound payload size.
func EncodeJPEG(img *image.RGBA) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func signatoryName(name string) string {
	if name == "" {
		name = blankSignatory
	}
	return "( " + name + " )"
}

func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// drawWatermark tiles the rotated brand word across the full page at low
// opacity. Spacing, angle and opacity are fixed; content never affects them.
func drawWatermark(p *page, face font.Face) {
	width := font.MeasureString(face, watermarkWord)
	metrics := face.Metrics()
	tileW := width.Ceil()
	tileH := (metrics.Ascent + metrics.Descent).Ceil()
	if tileW <= 0 || tileH <= 0 {
		return
	}

	tile := image.NewRGBA(image.Rect(0, 0, tileW, tileH))
	d := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(inkWatermark),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(watermarkWord)

	rotated := rotateTile(tile, watermarkAngle)

	halfW := rotated.Bounds().Dx() / 2
	halfH := rotated.Bounds().Dy() / 2
	for y := watermarkStartY; y < baseHeight+100; y += watermarkSpacingY {
		for x := watermarkStartX; x < baseWidth+100; x += watermarkSpacingX {
			cx := int(math.Round(x * p.scale))
			cy := int(math.Round(y * p.scale))
			target := image.Rect(cx-halfW, cy-halfH, cx+halfW, cy+halfH)
			draw.Draw(p.img, target, rotated, rotated.Bounds().Min, draw.Over)
		}
	}
}

// rotateTile returns src rotated by angle into a bounding raster.
func rotateTile(src *image.RGBA, angle float64) *image.RGBA {
	sin, cos := math.Sincos(angle)
	w := float64(src.Bounds().Dx())
	h := float64(src.Bounds().Dy())

	dstW := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin)))
	dstH := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos)))
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))

	// Rotate about the tile centers.
	cx, cy := w/2, h/2
	dcx, dcy := float64(dstW)/2, float64(dstH)/2
	m := f64.Aff3{
		cos, -sin, dcx - (cos*cx - sin*cy),
		sin, cos, dcy - (sin*cx + cos*cy),
	}
	xdraw.ApproxBiLinear.Transform(dst, m, src, src.Bounds(), xdraw.Over, nil)
	return dst
}
