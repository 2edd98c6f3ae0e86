//go:build !cgo

package ocr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ironsheep/stack-scanner/internal/imaging"
)

const backendName = "tesseract-cli"

// Tesseract is an Engine that runs the tesseract command-line program.
// It is safe for concurrent use.
type Tesseract struct {
	cfg Config
}

// NewTesseract creates a Tesseract engine. The binary is looked up on first use.
func NewTesseract(cfg Config) *Tesseract {
	return &Tesseract{cfg: cfg.withDefaults()}
}

// ImageToText pipes img as PNG into `tesseract stdin stdout` and returns the
// recognized text.
func (t *Tesseract) ImageToText(ctx context.Context, img image.Image, mode PageSegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailure, err)
	}

	args := []string{"stdin", "stdout", "-l", t.cfg.Language, "--psm", strconv.Itoa(int(mode))}
	if t.cfg.TessdataPrefix != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataPrefix)
	}

	cmd := exec.CommandContext(ctx, t.cfg.Binary, args...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if isInitError(msg) {
			return "", fmt.Errorf("%w: %s", ErrUnavailable, msg)
		}
		return "", fmt.Errorf("%w: %v: %s", ErrFailure, err, msg)
	}

	return stdout.String(), nil
}

// Info runs `tesseract --version` to report availability.
func (t *Tesseract) Info() Info {
	out, err := exec.Command(t.cfg.Binary, "--version").CombinedOutput()
	if err != nil {
		return Info{
			Available: false,
			Error:     err.Error(),
			Backend:   backendName,
			Language:  t.cfg.Language,
		}
	}

	// First line looks like "tesseract 5.3.0".
	version := ""
	if line, _, err := bufio.NewReader(bytes.NewReader(out)).ReadLine(); err == nil {
		version = strings.TrimSpace(strings.TrimPrefix(string(line), "tesseract"))
	}

	return Info{
		Available: true,
		Version:   version,
		Backend:   backendName,
		Language:  t.cfg.Language,
	}
}
