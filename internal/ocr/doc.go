// Package ocr provides the text recognition backend used to read card edges.
//
// The package defines the Engine interface the code extractor depends on and a
// Tesseract implementation of it. Two builds of Tesseract exist:
//
//   - With CGO enabled, the gosseract/v2 bindings call libtesseract directly.
//   - Without CGO, the `tesseract` command-line program is run with the image
//     on stdin.
//
// Both take the same Config and honour the same page segmentation hint.
//
// # Prerequisites
//
// Tesseract and its English language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//     (plus libtesseract-dev and libleptonica-dev for the CGO build)
//   - macOS: brew install tesseract
//
// Config.TessdataPrefix points at a non-standard tessdata directory.
//
// # Layout Hint
//
// A photo of a stack of cards is a column of short printed lines. SingleBlock
// (Tesseract page segmentation mode 6) tells the engine to assume one uniform
// block of text, which reads such stacks far better than automatic layout
// analysis or single-line mode.
//
// # Error Handling
//
// Failures are split so the UI can say why nothing was read:
//   - ErrUnavailable: the engine could not start (library, binary, or
//     language data missing or broken).
//   - ErrFailure: the engine started but recognition failed.
//
// Recognizing no text at all is not an error; the result is "".
package ocr
