package scanner

import (
	"errors"

	"github.com/ironsheep/stack-scanner/internal/collection"
	"github.com/ironsheep/stack-scanner/internal/imaging"
	"github.com/ironsheep/stack-scanner/internal/ocr"
)

// ErrEmptyBatch is returned by Save when there is nothing to save.
var ErrEmptyBatch = errors.New("batch is empty")

// Error kinds reported to clients.
const (
	KindOCRUnavailable        = "ocr_unavailable"
	KindOCRFailure            = "ocr_failure"
	KindSheetConnection       = "sheet_connection"
	KindSheetWrite            = "sheet_write"
	KindSheetRetriesExhausted = "sheet_retries_exhausted"
	KindEmptyBatch            = "empty_batch"
	KindBadImage              = "bad_image"
	KindInternal              = "internal"
)

// Kind maps err to a stable kind name. Retry exhaustion wins over the
// wrapped cause.
func Kind(err error) string {
	switch {
	case errors.Is(err, ocr.ErrUnavailable):
		return KindOCRUnavailable
	case errors.Is(err, ocr.ErrFailure):
		return KindOCRFailure
	case errors.Is(err, collection.ErrRetriesExhausted):
		return KindSheetRetriesExhausted
	case errors.Is(err, collection.ErrConnection):
		return KindSheetConnection
	case errors.Is(err, collection.ErrWrite):
		return KindSheetWrite
	case errors.Is(err, ErrEmptyBatch):
		return KindEmptyBatch
	case errors.Is(err, imaging.ErrDecode):
		return KindBadImage
	default:
		return KindInternal
	}
}

// Message returns the user-facing text for err. Collection failures carry
// the backend's own error text, so the user sees "quota" or "permission"
// rather than a generic failure.
func Message(err error) string {
	switch Kind(err) {
	case KindOCRUnavailable:
		return "Text recognition is not available. Install Tesseract and its English language data."
	case KindOCRFailure:
		return "Text recognition failed on this photo. Try another picture."
	case KindSheetConnection:
		return withCause("Could not connect to Google Sheet", err) +
			". Check the spreadsheet ID and credentials."
	case KindSheetWrite:
		return withCause("Cloud Error", err)
	case KindSheetRetriesExhausted:
		return withCause("Cloud Error", err) +
			". The sheet did not respond after retrying. Your batch is kept; try again."
	case KindEmptyBatch:
		return "Nothing to save. Scan a stack first."
	case KindBadImage:
		return "That file is not a supported image. Upload a JPG or PNG photo."
	default:
		return "Something went wrong."
	}
}

// Cause returns the backend error behind a collection failure, or "" when err
// does not carry one. For exhausted retries it is the last attempt's cause.
func Cause(err error) string {
	var cerr *collection.Error
	if errors.As(err, &cerr) && cerr.Err != nil {
		return cerr.Err.Error()
	}
	return ""
}

func withCause(prefix string, err error) string {
	if cause := Cause(err); cause != "" {
		return prefix + ": " + cause
	}
	return prefix
}
