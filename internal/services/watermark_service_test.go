// internal/services/watermark_service_test.go
package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestApplyWatermarksImage(t *testing.T) {
	svc := NewWatermarkService()
	original := solidPNG(t, 100, 100)

	marked, err := svc.Apply(original, "image/png", "preview.png", "buyer-1 - architect - planmarket")
	require.NoError(t, err)

	assert.NotEqual(t, original, marked)
	assert.True(t, HasAttribution(marked))
	assert.False(t, HasAttribution(original))

	// The derivative still decodes, and the banding changed pixels.
	img, _, err := image.Decode(bytes.NewReader(marked))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())

	darkened := 0
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0xffff || g < 0xffff || b < 0xffff {
				darkened++
			}
		}
	}
	assert.Greater(t, darkened, 0)
}

func TestApplyWatermarksPDF(t *testing.T) {
	svc := NewWatermarkService()
	original := []byte("%PDF-1.4\n1 0 obj\nendobj\n%%EOF")

	marked, err := svc.Apply(original, "application/pdf", "plans.pdf", "buyer-1")
	require.NoError(t, err)

	// Payload is untouched, attribution trails it as a comment.
	assert.True(t, bytes.HasPrefix(marked, original))
	assert.True(t, HasAttribution(marked))
	assert.Contains(t, string(marked), "buyer-1")
}

func TestApplyWatermarksOtherFormats(t *testing.T) {
	svc := NewWatermarkService()
	original := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x01}

	marked, err := svc.Apply(original, "application/zip", "package.zip", "buyer-1")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(marked, original))
	assert.True(t, HasAttribution(marked))
}

func TestApplyRejectsCorruptImage(t *testing.T) {
	svc := NewWatermarkService()
	_, err := svc.Apply([]byte("not an image"), "image/png", "broken.png", "buyer-1")
	assert.Error(t, err)
}
