package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	// ErrUnavailable means the OCR engine could not be reached or initialised.
	ErrUnavailable = errors.New("ocr engine unavailable")

	// ErrFailure means the engine ran but could not recognise the image.
	ErrFailure = errors.New("ocr failed")
)

// PageSegMode is a layout hint passed to the engine. Values match Tesseract's
// --psm numbers.
type PageSegMode int

const (
	// Auto runs full automatic page segmentation.
	Auto PageSegMode = 3
	// SingleBlock assumes a single uniform block of text.
	SingleBlock PageSegMode = 6
	// SingleLine treats the image as a single text line.
	SingleLine PageSegMode = 7
	// SparseText finds as much text as possible in no particular order.
	SparseText PageSegMode = 11
)

func (m PageSegMode) String() string {
	switch m {
	case Auto:
		return "auto"
	case SingleBlock:
		return "single_block"
	case SingleLine:
		return "single_line"
	case SparseText:
		return "sparse_text"
	default:
		return fmt.Sprintf("psm_%d", int(m))
	}
}

// Engine converts an image into free-form text.
type Engine interface {
	// ImageToText recognises all text in img using the given layout hint.
	// Errors wrap ErrUnavailable or ErrFailure.
	ImageToText(ctx context.Context, img image.Image, mode PageSegMode) (string, error)

	// Info describes the backend for health checks.
	Info() Info
}

// Config holds Tesseract settings.
type Config struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix overrides the tessdata directory. Empty uses the default.
	TessdataPrefix string

	// Binary is the tesseract executable used by the non-CGO build.
	Binary string
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.Binary == "" {
		c.Binary = "tesseract"
	}
	return c
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
	Language  string `json:"language"`
}

// isInitError reports whether a Tesseract error message describes a failure to
// start the engine rather than to read the image.
func isInitError(msg string) bool {
	msg = strings.ToLower(msg)
	for _, s := range []string{"initialize", "tessdata", "traineddata", "could not load", "failed loading language"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
