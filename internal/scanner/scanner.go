// Package scanner runs the scan and save actions of one user session.
//
// Scan reads codes from a photo, pairs each with its lookup link and stores
// them as the session's batch. Save hands the batch to the collection and
// clears it only when every row was written.
package scanner

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/stack-scanner/internal/codes"
	"github.com/ironsheep/stack-scanner/internal/collection"
	"github.com/ironsheep/stack-scanner/internal/imaging"
	"github.com/ironsheep/stack-scanner/internal/links"
	"github.com/ironsheep/stack-scanner/internal/session"
)

// NoCodesWarning is shown when a scan finds nothing.
const NoCodesWarning = "No codes found. Ensure text is horizontal and lit well."

// CodeExtractor reads codes from an image.
type CodeExtractor interface {
	ExtractCodes(ctx context.Context, img image.Image) ([]codes.Code, error)
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	// Records are the codes found by this scan with their links.
	Records []links.Record `json:"records"`

	// NoCodes is true when the photo yielded no codes; the batch was left
	// as it was.
	NoCodes bool `json:"no_codes"`

	// Warning is set together with NoCodes.
	Warning string `json:"warning,omitempty"`

	Exposure imaging.Exposure `json:"exposure"`

	// BatchSize is the number of records pending a save after the scan.
	BatchSize int `json:"batch_size"`
}

// Message returns the status line for the result.
func (r *ScanResult) Message() string {
	if r.NoCodes {
		return r.Warning
	}
	return fmt.Sprintf("Found %d Codes!", len(r.Records))
}

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	Saved      int `json:"saved"`
	LinkErrors int `json:"link_errors"`
}

// Message returns the success line shown to the user.
func (r *SaveResult) Message() string {
	return fmt.Sprintf("✅ Added %d cars to the sheet!", r.Saved)
}

// Service performs scans and saves.
type Service struct {
	extractor    CodeExtractor
	appender     collection.Appender
	merge        bool
	previewWidth int
	log          zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMerge makes scans add to the batch instead of replacing it.
func WithMerge(merge bool) Option {
	return func(s *Service) { s.merge = merge }
}

// WithPreviewWidth sets the width of the stored preview thumbnail.
func WithPreviewWidth(width int) Option {
	return func(s *Service) { s.previewWidth = width }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New creates a Service.
func New(extractor CodeExtractor, appender collection.Appender, opts ...Option) *Service {
	s := &Service{
		extractor:    extractor,
		appender:     appender,
		previewWidth: imaging.PreviewWidth,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MergesScans reports whether scans add to the batch rather than replace it.
func (s *Service) MergesScans() bool { return s.merge }

// Scan reads the codes in photo and stores them in the session's batch.
//
// The preview is updated even when recognition fails so the user sees what
// was uploaded. A scan with no codes, or a failed one, leaves the batch
// unchanged.
func (s *Service) Scan(ctx context.Context, sess *session.Session, photo *imaging.Photo, filename string) (*ScanResult, error) {
	var (
		result *ScanResult
		err    error
	)
	sess.Do(func(st *session.State) {
		result, err = s.scan(ctx, st, photo, filename)
	})

	log := s.log.With().Str("session", sess.ID).Str("filename", filename).Logger()
	if err != nil {
		log.Warn().Err(err).Str("kind", Kind(err)).Msg("scan failed")
		return nil, err
	}
	log.Info().
		Int("codes", len(result.Records)).
		Int("batch", result.BatchSize).
		Float64("lightness", result.Exposure.MeanLightness).
		Msg("scan complete")
	return result, nil
}

func (s *Service) scan(ctx context.Context, st *session.State, photo *imaging.Photo, filename string) (*ScanResult, error) {
	st.Preview = s.preview(photo, filename)

	found, err := s.extractor.ExtractCodes(ctx, photo.Image)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", filename, err)
	}

	result := &ScanResult{Exposure: imaging.MeasureExposure(photo.Image)}

	if len(found) == 0 {
		result.NoCodes = true
		result.Records = []links.Record{}
		result.Warning = NoCodesWarning
		if hint := result.Exposure.Hint(); hint != "" {
			result.Warning += " " + hint
		}
		result.BatchSize = st.Batch.Len()
		return result, nil
	}

	result.Records = links.NewRecords(found)
	if s.merge {
		st.Batch.Merge(result.Records)
	} else {
		st.Batch.Replace(result.Records)
	}
	result.BatchSize = st.Batch.Len()
	return result, nil
}

func (s *Service) preview(photo *imaging.Photo, filename string) *session.Preview {
	thumb, err := imaging.Thumbnail(photo.Image, s.previewWidth)
	if err != nil {
		s.log.Warn().Err(err).Msg("preview failed")
		return &session.Preview{Filename: filename}
	}
	return &session.Preview{
		Filename: filename,
		DataURI:  thumb.DataURI(),
		Width:    thumb.Width,
		Height:   thumb.Height,
	}
}

// Save appends the session's batch to the collection.
//
// On success the batch is cleared. On any error it is left exactly as it
// was so the user can retry.
func (s *Service) Save(ctx context.Context, sess *session.Session) (*SaveResult, error) {
	var (
		result *SaveResult
		err    error
	)
	start := time.Now()
	sess.Do(func(st *session.State) {
		result, err = s.save(ctx, st)
	})

	log := s.log.With().Str("session", sess.ID).Logger()
	if err != nil {
		log.Warn().Err(err).Str("kind", Kind(err)).Msg("save failed")
		return nil, err
	}
	log.Info().
		Int("rows", result.Saved).
		Int("link_errors", result.LinkErrors).
		Dur("elapsed", time.Since(start)).
		Msg("batch saved")
	return result, nil
}

func (s *Service) save(ctx context.Context, st *session.State) (*SaveResult, error) {
	records := st.Batch.All()
	if len(records) == 0 {
		return nil, ErrEmptyBatch
	}

	rows := collection.RowsFromRecords(records)
	if err := s.appender.AppendRows(ctx, rows); err != nil {
		return nil, fmt.Errorf("saving %d rows: %w", len(rows), err)
	}

	result := &SaveResult{Saved: len(rows)}
	for _, r := range rows {
		if !r.LinkOK() {
			result.LinkErrors++
		}
	}
	st.Batch.Clear()
	return result, nil
}

// Clear discards the session's batch without saving it.
func (s *Service) Clear(sess *session.Session) int {
	var n int
	sess.Do(func(st *session.State) {
		n = st.Batch.Len()
		st.Batch.Clear()
	})
	s.log.Debug().Str("session", sess.ID).Int("discarded", n).Msg("batch cleared")
	return n
}
