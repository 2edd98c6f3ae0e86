//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/stack-scanner/internal/imaging"
)

const backendName = "gosseract"

// Tesseract is an Engine backed by libtesseract through gosseract.
//
// A new gosseract client is created per call, so a Tesseract value is safe
// for concurrent use.
type Tesseract struct {
	cfg Config
}

// NewTesseract creates a Tesseract engine. No library calls are made until the
// first recognition.
func NewTesseract(cfg Config) *Tesseract {
	return &Tesseract{cfg: cfg.withDefaults()}
}

// ImageToText performs OCR on img and returns the recognized text.
//
// The image is handed to Tesseract as PNG bytes. ctx is checked before the
// engine starts; a recognition already running is not interrupted.
func (t *Tesseract) ImageToText(ctx context.Context, img image.Image, mode PageSegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailure, err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("%w: failed to set tessdata path: %v", ErrUnavailable, err)
		}
	}

	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return "", fmt.Errorf("%w: failed to set language: %v", ErrUnavailable, err)
	}

	if err := client.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return "", fmt.Errorf("%w: failed to set page segmentation mode: %v", ErrFailure, err)
	}

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: failed to set image: %v", ErrFailure, err)
	}

	text, err := client.Text()
	if err != nil {
		if isInitError(err.Error()) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", ErrFailure, err)
	}

	return text, nil
}

// Info returns information about OCR availability.
func (t *Tesseract) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	if version == "" {
		return Info{
			Available: false,
			Error:     "tesseract library did not report a version",
			Backend:   backendName,
			Language:  t.cfg.Language,
		}
	}

	return Info{
		Available: true,
		Version:   version,
		Backend:   backendName,
		Language:  t.cfg.Language,
	}
}
