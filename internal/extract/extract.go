// Package extract reads product codes from a photo of a card stack.
//
// Extraction is a fixed pipeline: normalize the image (grayscale, contrast),
// run OCR assuming one uniform block of text, then scan the text for codes,
// dropping duplicates and sorting the rest. Orientation must already be
// corrected by the caller; imaging.Decode does that when the upload is read.
package extract

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/stack-scanner/internal/codes"
	"github.com/ironsheep/stack-scanner/internal/imaging"
	"github.com/ironsheep/stack-scanner/internal/ocr"
)

// Extractor turns images into codes.
type Extractor struct {
	engine   ocr.Engine
	contrast float64
	mode     ocr.PageSegMode
	log      zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithContrast sets the contrast factor applied before OCR.
func WithContrast(factor float64) Option {
	return func(e *Extractor) { e.contrast = factor }
}

// WithPageSegMode overrides the OCR layout hint.
func WithPageSegMode(mode ocr.PageSegMode) Option {
	return func(e *Extractor) { e.mode = mode }
}

// WithLogger sets the logger used for per-scan debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) { e.log = log }
}

// New creates an Extractor that reads text with engine.
func New(engine ocr.Engine, opts ...Option) *Extractor {
	e := &Extractor{
		engine:   engine,
		contrast: imaging.DefaultContrast,
		mode:     ocr.SingleBlock,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText normalizes img and returns the raw OCR text.
func (e *Extractor) ExtractText(ctx context.Context, img image.Image) (string, error) {
	start := time.Now()
	clean := imaging.Normalize(img, e.contrast)

	text, err := e.engine.ImageToText(ctx, clean, e.mode)
	if err != nil {
		return "", fmt.Errorf("reading image text: %w", err)
	}

	e.log.Debug().
		Int("width", clean.Bounds().Dx()).
		Int("height", clean.Bounds().Dy()).
		Stringer("mode", e.mode).
		Int("text_len", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("ocr complete")

	return text, nil
}

// ExtractCodes returns every distinct code visible in img, sorted ascending.
//
// An image with no codes yields an empty, non-nil slice and no error. OCR
// failures are returned wrapped, so errors.Is(err, ocr.ErrUnavailable) and
// errors.Is(err, ocr.ErrFailure) keep working.
func (e *Extractor) ExtractCodes(ctx context.Context, img image.Image) ([]codes.Code, error) {
	text, err := e.ExtractText(ctx, img)
	if err != nil {
		return nil, err
	}

	found := codes.Scan(text)
	e.log.Debug().
		Int("count", len(found)).
		Strs("codes", codes.Strings(found)).
		Msg("pattern scan complete")
	return found, nil
}
