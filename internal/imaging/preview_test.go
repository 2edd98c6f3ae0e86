package imaging

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestThumbnail_ScalesDown(t *testing.T) {
	img := createInMemoryImage(1200, 800, color.RGBA{0, 0, 255, 255})

	result, err := Thumbnail(img, PreviewWidth)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if result.Width != 300 || result.Height != 200 {
		t.Errorf("dimensions: got %dx%d, want 300x200", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 300 {
		t.Errorf("decoded width: got %d, want 300", decoded.Bounds().Dx())
	}
}

func TestThumbnail_SmallImageUnchanged(t *testing.T) {
	img := createInMemoryImage(120, 90, color.White)

	result, err := Thumbnail(img, PreviewWidth)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if result.Width != 120 || result.Height != 90 {
		t.Errorf("dimensions: got %dx%d, want 120x90", result.Width, result.Height)
	}
}

func TestThumbnail_InvalidWidth(t *testing.T) {
	if _, err := Thumbnail(createInMemoryImage(10, 10, color.White), 0); err == nil {
		t.Error("Thumbnail should reject width 0")
	}
}

func TestPreviewResult_DataURI(t *testing.T) {
	result, err := Thumbnail(createInMemoryImage(10, 10, color.White), 50)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	uri := result.DataURI()
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected data URI prefix: %.40s", uri)
	}
	if !strings.HasSuffix(uri, result.ImageBase64) {
		t.Error("data URI does not end with the encoded image")
	}
}
