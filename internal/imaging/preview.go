package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PreviewWidth is the width of the stack photo shown next to the results.
const PreviewWidth = 300

// PreviewResult is a PNG preview of an image, ready to embed in a page or a
// JSON response.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// DataURI returns the preview as a data: URI for an <img> src attribute.
func (p *PreviewResult) DataURI() string {
	return "data:" + p.MimeType + ";base64," + p.ImageBase64
}

// Thumbnail scales img to the given width, keeping aspect ratio, and encodes
// it as PNG. Images already narrower than width are encoded as is.
func Thumbnail(img image.Image, width int) (*PreviewResult, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid preview width %d", width)
	}

	out := img
	if img.Bounds().Dx() > width {
		out = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	data, err := EncodePNG(out)
	if err != nil {
		return nil, err
	}

	return &PreviewResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
