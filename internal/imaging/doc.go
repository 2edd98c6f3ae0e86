// Package imaging prepares uploaded stack photos for OCR.
//
// A photo of card edges is usually taken at an angle, in uneven light, and
// often sideways. This package decodes the upload with its EXIF orientation
// applied, normalizes it for Tesseract, measures how well it is exposed, and
// produces a small preview for the UI.
//
// # Pipeline
//
// The steps used by the code extractor are:
//
//  1. Decode / Open: decode PNG, JPEG, GIF, BMP, TIFF or WebP and rotate
//     according to EXIF orientation so sideways photos read correctly.
//  2. Normalize: convert to grayscale, then stretch contrast around the
//     image's mean gray by a fixed factor (2.0 by default). Print and card
//     edge are close in tone on stacked cards.
//
// MeasureExposure and Thumbnail are used by the surfaces, not by OCR.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless and
// never modify their input image.
//
// # Error Handling
//
// Decode failures wrap ErrDecode so callers can tell a bad upload from an OCR
// or spreadsheet failure.
package imaging
