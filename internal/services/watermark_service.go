// internal/services/watermark_service.go
package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
)

// WatermarkService produces the derivative served under standard licenses.
// The rendering is a deterrent, not a security boundary: what matters is
// that the derivative is visibly and verifiably marked with attribution,
// not that the mark is irremovable.
type WatermarkService struct{}

const attributionMarker = "planmarket-license:"

func NewWatermarkService() *WatermarkService {
	return &WatermarkService{}
}

// Apply watermarks content according to its type. Images get translucent
// diagonal banding plus a trailing attribution record; PDFs and every other
// format get the attribution record appended after the payload, where
// conforming readers ignore it.
func (s *WatermarkService) Apply(content []byte, mimeType, fileName, attribution string) ([]byte, error) {
	switch {
	case isImageContent(mimeType, fileName):
		return s.watermarkImage(content, attribution)
	case isPDFContent(mimeType, fileName):
		return s.watermarkPDF(content, attribution), nil
	default:
		return appendAttribution(content, attribution), nil
	}
}

func (s *WatermarkService) watermarkImage(content []byte, attribution string) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	marked := image.NewRGBA(bounds)
	draw.Draw(marked, bounds, img, bounds.Min, draw.Src)

	overlayDiagonalBands(marked)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, marked, &jpeg.Options{Quality: 85})
	default:
		err = png.Encode(&buf, marked)
	}
	if err != nil {
		return nil, fmt.Errorf("encode watermarked image: %w", err)
	}

	return appendAttribution(buf.Bytes(), attribution), nil
}

// overlayDiagonalBands blends translucent gray stripes across the image so
// the mark survives cropping of any single region.
func overlayDiagonalBands(img *image.RGBA) {
	bounds := img.Bounds()
	band := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	const alpha = 56 // out of 255

	spacing := (bounds.Dx() + bounds.Dy()) / 8
	if spacing < 24 {
		spacing = 24
	}
	width := spacing / 6
	if width < 2 {
		width = 2
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if (x+y)%spacing >= width {
				continue
			}
			orig := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: blend(orig.R, band.R, alpha),
				G: blend(orig.G, band.G, alpha),
				B: blend(orig.B, band.B, alpha),
				A: orig.A,
			})
		}
	}
}

func blend(under, over uint8, alpha uint16) uint8 {
	return uint8((uint16(under)*(255-alpha) + uint16(over)*alpha) / 255)
}

// watermarkPDF appends the attribution as a PDF comment line. Readers
// resolve the document via the trailer and ignore trailing comments.
func (s *WatermarkService) watermarkPDF(content []byte, attribution string) []byte {
	comment := fmt.Sprintf("\n%% %s %s\n", attributionMarker, attribution)
	out := make([]byte, 0, len(content)+len(comment))
	out = append(out, content...)
	out = append(out, []byte(comment)...)
	return out
}

// appendAttribution tags arbitrary content with a trailing attribution
// record. Most container formats tolerate trailing bytes; for those that do
// not, the derivative is still openable after stripping the final line.
func appendAttribution(content []byte, attribution string) []byte {
	record := fmt.Sprintf("\n%s %s\n", attributionMarker, attribution)
	out := make([]byte, 0, len(content)+len(record))
	out = append(out, content...)
	out = append(out, []byte(record)...)
	return out
}

// HasAttribution reports whether content carries the attribution record.
func HasAttribution(content []byte) bool {
	return bytes.Contains(content, []byte(attributionMarker))
}

func isImageContent(mimeType, fileName string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func isPDFContent(mimeType, fileName string) bool {
	return mimeType == "application/pdf" || strings.EqualFold(filepath.Ext(fileName), ".pdf")
}
