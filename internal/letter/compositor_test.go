package letter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	}
}

func sampleFields() Fields {
	return Fields{
		Nama:    "Ana Pratiwi",
		Absen:   "7",
		Kelas:   "X1",
		Sangga:  "Pendobrak",
		PKKelas: "Budi Santoso",
		Alasan:  "Sedang sakit demam dan harus istirahat di rumah sesuai anjuran dokter keluarga.",
	}
}

func TestRenderProducesFullPage(t *testing.T) {
	c := NewCompositor("https://example.org", "Kasihan").WithClock(fixedClock())

	img, err := c.Render(sampleFields(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, pageWidth, img.Bounds().Dx())
	assert.Equal(t, pageHeight, img.Bounds().Dy())
}

func TestRenderIsDeterministic(t *testing.T) {
	c := NewCompositor("https://example.org", "Kasihan").WithClock(fixedClock())

	first, err := c.Render(sampleFields(), "abc123")
	require.NoError(t, err)
	second, err := c.Render(sampleFields(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, first.Pix, second.Pix)
}

func TestRenderWithoutRecordSkipsQR(t *testing.T) {
	c := NewCompositor("https://example.org", "Kasihan").WithClock(fixedClock())

	withQR, err := c.Render(sampleFields(), "abc123")
	require.NoError(t, err)
	withoutQR, err := c.Render(sampleFields(), "")
	require.NoError(t, err)

	assert.NotEqual(t, withQR.Pix, withoutQR.Pix)
}

func TestRenderEmptyFieldsStillRenders(t *testing.T) {
	c := NewCompositor("https://example.org", "Kasihan").WithClock(fixedClock())

	img, err := c.Render(Fields{}, "")
	require.NoError(t, err)
	assert.Equal(t, pageWidth, img.Bounds().Dx())
}

func TestEncodeJPEGNonEmpty(t *testing.T) {
	c := NewCompositor("https://example.org", "Kasihan").WithClock(fixedClock())
	img, err := c.Render(sampleFields(), "")
	require.NoError(t, err)

	payload, err := EncodeJPEG(img)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	// JPEG SOI marker.
	assert.Equal(t, []byte{0xff, 0xd8}, payload[:2])
}

func TestVerificationURL(t *testing.T) {
	assert.Equal(t, "https://example.org/verify/abc123", VerificationURL("https://example.org", "abc123"))
}

func TestFormatLongDate(t *testing.T) {
	d := time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "5 Agustus 2026", formatLongDate(d))
}

func TestSignatoryName(t *testing.T) {
	assert.Equal(t, "( Ana )", signatoryName("Ana"))
	assert.Equal(t, "( "+blankSignatory+" )", signatoryName(""))
}

func TestPDFEncoderEncode(t *testing.T) {
	c := NewCompositor("https://example.org", "Kasihan").WithClock(fixedClock())
	img, err := c.Render(sampleFields(), "abc123")
	require.NoError(t, err)

	payload, err := NewPDFEncoder().Encode(img)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "Surat_Ijin_Pramuka_Ana_X1.pdf", ExportFilename("Ana", "X1"))
	assert.Equal(t, "Surat_Ijin_Pramuka_Ana_Dwi_Pratiwi_X3.pdf", ExportFilename("  Ana  Dwi Pratiwi ", "X3"))
}
