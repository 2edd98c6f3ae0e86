// Package ocrtest provides a scripted ocr.Engine for tests.
package ocrtest

import (
	"context"
	"image"
	"sync"

	"github.com/ironsheep/stack-scanner/internal/ocr"
)

// Engine returns fixed text or a fixed error and records every call.
type Engine struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []Call
}

// Call records one ImageToText invocation.
type Call struct {
	Bounds image.Rectangle
	Mode   ocr.PageSegMode
	Image  image.Image
}

// New returns an engine that recognises text in every image.
func New(text string) *Engine {
	return &Engine{text: text}
}

// Failing returns an engine whose every call fails with err.
func Failing(err error) *Engine {
	return &Engine{err: err}
}

// SetText changes the text returned by later calls and clears any error.
func (e *Engine) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text, e.err = text, nil
}

// SetError makes later calls fail with err.
func (e *Engine) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *Engine) ImageToText(ctx context.Context, img image.Image, mode ocr.PageSegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Bounds: img.Bounds(), Mode: mode, Image: img})
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

func (e *Engine) Info() ocr.Info {
	return ocr.Info{Available: true, Version: "test", Backend: "ocrtest", Language: "eng"}
}

// Calls returns a copy of the recorded calls.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}
