package letter

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	qrcode "github.com/skip2/go-qrcode"
)

// VerificationURL builds the public QR payload for a record identifier.
func VerificationURL(origin, izinID string) string {
	return origin + "/verify/" + izinID
}

// drawQRInset composites a verification QR code into the fixed top-right
// inset: a colored border frame, the code itself, and a caption underneath.
func drawQRInset(p *page, payload string) error {
	qr, err := qrcode.New(payload, qrcode.High)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	qr.DisableBorder = true

	side := int(math.Round(qrSide * p.scale))
	qrImg := qr.Image(side)

	left := baseWidth - marginRight - qrSide
	x0 := int(math.Round(left * p.scale))
	y0 := int(math.Round(qrTop * p.scale))
	border := int(math.Round(qrBorder * p.scale))

	frame := image.Rect(x0-border, y0-border, x0+side+border, y0+side+border)
	draw.Draw(p.img, frame, image.NewUniform(inkQRBorder), image.Point{}, draw.Src)
	draw.Draw(p.img, image.Rect(x0, y0, x0+side, y0+side), qrImg, qrImg.Bounds().Min, draw.Src)

	captionY := qrTop + qrSide + qrBorder + 14
	p.drawTextCentered(p.body, qrCaption, left+qrSide/2, captionY)
	return nil
}
