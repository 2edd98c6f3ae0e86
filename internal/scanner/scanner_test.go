package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/stack-scanner/internal/codes"
	"github.com/ironsheep/stack-scanner/internal/collection"
	"github.com/ironsheep/stack-scanner/internal/extract"
	"github.com/ironsheep/stack-scanner/internal/imaging"
	"github.com/ironsheep/stack-scanner/internal/links"
	"github.com/ironsheep/stack-scanner/internal/ocr"
	"github.com/ironsheep/stack-scanner/internal/ocr/ocrtest"
	"github.com/ironsheep/stack-scanner/internal/session"
)

const stackText = "JBC19-N7C5 random JBC19-N7C5 other HKJ88-X2Z1"

// fakeAppender records appended rows and fails with err when set.
type fakeAppender struct {
	mu   sync.Mutex
	err  error
	rows [][]collection.Row
}

func (f *fakeAppender) AppendRows(ctx context.Context, rows []collection.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, append([]collection.Row(nil), rows...))
	return nil
}

func grayPhoto(v uint8) *imaging.Photo {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return &imaging.Photo{Image: img, Format: "png"}
}

func newService(t *testing.T, engine ocr.Engine, app collection.Appender, opts ...Option) *Service {
	t.Helper()
	return New(extract.New(engine), app, opts...)
}

func TestScan_FindsCodes(t *testing.T) {
	svc := newService(t, ocrtest.New(stackText), &fakeAppender{})
	sess := session.New()

	res, err := svc.Scan(context.Background(), sess, grayPhoto(128), "stack.jpg")
	require.NoError(t, err)

	assert.False(t, res.NoCodes)
	assert.Equal(t, []links.Record{
		{Code: "HKJ88-X2Z1", Link: "https://collecthw.com/hw/search/SEtKODg="},
		{Code: "JBC19-N7C5", Link: "https://collecthw.com/hw/search/SkJDMTk="},
	}, res.Records)
	assert.Equal(t, "Found 2 Codes!", res.Message())
	assert.Equal(t, 2, res.BatchSize)
	assert.Equal(t, res.Records, sess.Records())

	p := sess.Preview()
	require.NotNil(t, p)
	assert.Equal(t, "stack.jpg", p.Filename)
	assert.Equal(t, imaging.PreviewWidth, p.Width)
	assert.True(t, strings.HasPrefix(p.DataURI, "data:image/png;base64,"))
}

func TestScan_ReplacesBatchByDefault(t *testing.T) {
	engine := ocrtest.New("AAAAA-0001 BBBBB-0002")
	svc := newService(t, engine, &fakeAppender{})
	sess := session.New()

	_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "one.jpg")
	require.NoError(t, err)

	engine.SetText("CCCCC-0003")
	res, err := svc.Scan(context.Background(), sess, grayPhoto(128), "two.jpg")
	require.NoError(t, err)

	assert.Equal(t, 1, res.BatchSize)
	assert.Equal(t, []codes.Code{"CCCCC-0003"}, recordCodes(sess.Records()))
}

func TestScan_MergeOption(t *testing.T) {
	engine := ocrtest.New("AAAAA-0001 BBBBB-0002")
	svc := newService(t, engine, &fakeAppender{}, WithMerge(true))
	sess := session.New()

	_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "one.jpg")
	require.NoError(t, err)

	engine.SetText("BBBBB-0002 CCCCC-0003")
	res, err := svc.Scan(context.Background(), sess, grayPhoto(128), "two.jpg")
	require.NoError(t, err)

	assert.Len(t, res.Records, 2)
	assert.Equal(t, 3, res.BatchSize)
	assert.Equal(t, []codes.Code{"AAAAA-0001", "BBBBB-0002", "CCCCC-0003"}, recordCodes(sess.Records()))
}

func TestScan_NoCodesLeavesBatch(t *testing.T) {
	engine := ocrtest.New("AAAAA-0001")
	svc := newService(t, engine, &fakeAppender{})
	sess := session.New()

	_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "one.jpg")
	require.NoError(t, err)

	engine.SetText("no codes here, just blur")
	res, err := svc.Scan(context.Background(), sess, grayPhoto(128), "two.jpg")
	require.NoError(t, err)

	assert.True(t, res.NoCodes)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Records)
	assert.Equal(t, NoCodesWarning, res.Warning)
	assert.Equal(t, NoCodesWarning, res.Message())
	assert.Equal(t, 1, res.BatchSize)
	assert.Equal(t, []codes.Code{"AAAAA-0001"}, recordCodes(sess.Records()))
}

func TestScan_NoCodesOnFreshSession(t *testing.T) {
	svc := newService(t, ocrtest.New(""), &fakeAppender{})
	sess := session.New()

	res, err := svc.Scan(context.Background(), sess, grayPhoto(128), "blank.png")
	require.NoError(t, err)

	assert.True(t, res.NoCodes)
	assert.Equal(t, 0, sess.Len())
}

func TestScan_NoCodesDarkPhotoAddsHint(t *testing.T) {
	svc := newService(t, ocrtest.New(""), &fakeAppender{})

	res, err := svc.Scan(context.Background(), session.New(), grayPhoto(10), "dark.jpg")
	require.NoError(t, err)

	assert.True(t, res.Exposure.Underexposed)
	assert.True(t, strings.HasPrefix(res.Warning, NoCodesWarning))
	assert.Contains(t, res.Warning, "dark")
}

func TestScan_OCRErrorsKeepBatch(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"unavailable", fmt.Errorf("%w: tesseract not found", ocr.ErrUnavailable), KindOCRUnavailable},
		{"failure", fmt.Errorf("%w: page layout", ocr.ErrFailure), KindOCRFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := ocrtest.New("AAAAA-0001")
			svc := newService(t, engine, &fakeAppender{})
			sess := session.New()

			_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "one.jpg")
			require.NoError(t, err)

			engine.SetError(tt.err)
			res, err := svc.Scan(context.Background(), sess, grayPhoto(128), "two.jpg")

			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.kind, Kind(err))
			assert.Equal(t, []codes.Code{"AAAAA-0001"}, recordCodes(sess.Records()))

			// The preview still shows the latest upload.
			require.NotNil(t, sess.Preview())
			assert.Equal(t, "two.jpg", sess.Preview().Filename)
		})
	}
}

func TestSave_ClearsBatchOnSuccess(t *testing.T) {
	app := &fakeAppender{}
	svc := newService(t, ocrtest.New(stackText), app)
	sess := session.New()

	_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "stack.jpg")
	require.NoError(t, err)

	res, err := svc.Save(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 0, res.LinkErrors)
	assert.Equal(t, "✅ Added 2 cars to the sheet!", res.Message())
	assert.Equal(t, 0, sess.Len())

	require.Len(t, app.rows, 1)
	assert.Equal(t, []collection.Row{
		{Code: "HKJ88-X2Z1", Link: "https://collecthw.com/hw/search/SEtKODg=", Status: collection.StatusUnverified},
		{Code: "JBC19-N7C5", Link: "https://collecthw.com/hw/search/SkJDMTk=", Status: collection.StatusUnverified},
	}, app.rows[0])
}

func TestSave_FailureKeepsBatch(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"connection", &collection.Error{Kind: collection.ErrConnection, Err: errors.New("dial tcp")}, KindSheetConnection},
		{"write", &collection.Error{Kind: collection.ErrWrite, Err: errors.New("quota")}, KindSheetWrite},
		{"retries", fmt.Errorf("%w: %w", collection.ErrRetriesExhausted, &collection.Error{Kind: collection.ErrWrite, Err: errors.New("503")}), KindSheetRetriesExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &fakeAppender{err: tt.err}
			svc := newService(t, ocrtest.New(stackText), app)
			sess := session.New()

			_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "stack.jpg")
			require.NoError(t, err)
			before := sess.Records()

			res, err := svc.Save(context.Background(), sess)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.kind, Kind(err))
			assert.Equal(t, before, sess.Records())
		})
	}
}

func TestSave_EmptyBatch(t *testing.T) {
	app := &fakeAppender{}
	svc := newService(t, ocrtest.New(""), app)

	_, err := svc.Save(context.Background(), session.New())
	assert.ErrorIs(t, err, ErrEmptyBatch)
	assert.Equal(t, KindEmptyBatch, Kind(err))
	assert.Empty(t, app.rows)
}

func TestSave_CountsLinkErrors(t *testing.T) {
	app := &fakeAppender{}
	svc := newService(t, ocrtest.New(""), app)
	sess := session.New()
	sess.Do(func(st *session.State) {
		st.Batch.Replace([]links.Record{
			links.NewRecord("AAAAA-0001"),
			{Code: "BBBBB-0002", Link: links.ErrorLink},
		})
	})

	res, err := svc.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.LinkErrors)
	assert.Equal(t, collection.StatusLinkError, app.rows[0][1].Status)
}

func TestScan_PreviewWidthOption(t *testing.T) {
	svc := newService(t, ocrtest.New(stackText), &fakeAppender{}, WithPreviewWidth(120))
	sess := session.New()

	_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "stack.jpg")
	require.NoError(t, err)

	p := sess.Preview()
	require.NotNil(t, p)
	assert.Equal(t, 120, p.Width)
	assert.Equal(t, 60, p.Height)
}

func TestClear(t *testing.T) {
	svc := newService(t, ocrtest.New(stackText), &fakeAppender{})
	sess := session.New()

	_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "stack.jpg")
	require.NoError(t, err)

	assert.Equal(t, 2, svc.Clear(sess))
	assert.Equal(t, 0, sess.Len())
}

func TestKindAndMessage(t *testing.T) {
	assert.Equal(t, KindBadImage, Kind(fmt.Errorf("upload: %w", imaging.ErrDecode)))
	assert.Equal(t, KindInternal, Kind(errors.New("other")))
	assert.Equal(t, KindInternal, Kind(nil))

	assert.Contains(t, Message(collection.ErrConnection), "Could not connect to Google Sheet")
	assert.Contains(t, Message(collection.ErrWrite), "Cloud Error")
}

func TestMessage_CarriesCollectionCause(t *testing.T) {
	denied := errors.New("googleapi: Error 403: The caller does not have permission")

	tests := []struct {
		name string
		err  error
		kind string
		want []string
	}{
		{
			name: "write",
			err:  &collection.Error{Kind: collection.ErrWrite, Err: denied},
			kind: KindSheetWrite,
			want: []string{"Cloud Error: googleapi: Error 403: The caller does not have permission"},
		},
		{
			name: "connection",
			err:  &collection.Error{Kind: collection.ErrConnection, Err: errors.New("no spreadsheet id configured")},
			kind: KindSheetConnection,
			want: []string{"Could not connect to Google Sheet: no spreadsheet id configured", "Check the spreadsheet ID"},
		},
		{
			name: "retries exhausted",
			err: fmt.Errorf("%w after %d attempts: %w", collection.ErrRetriesExhausted, 2,
				&collection.Error{Kind: collection.ErrWrite, Transient: true, Err: errors.New("Quota exceeded")}),
			kind: KindSheetRetriesExhausted,
			want: []string{"Cloud Error: Quota exceeded", "Your batch is kept"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, Kind(tt.err))
			msg := Message(tt.err)
			for _, w := range tt.want {
				assert.Contains(t, msg, w)
			}
		})
	}
}

func TestSave_FailureMessageNamesCause(t *testing.T) {
	app := &fakeAppender{err: &collection.Error{
		Kind: collection.ErrWrite,
		Err:  errors.New("googleapi: Error 403: The caller does not have permission"),
	}}
	svc := newService(t, ocrtest.New(stackText), app)
	sess := session.New()

	_, err := svc.Scan(context.Background(), sess, grayPhoto(128), "stack.jpg")
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), sess)
	require.Error(t, err)
	assert.Contains(t, Message(err), "The caller does not have permission")
	assert.Equal(t, 2, sess.Len())
}

func recordCodes(rs []links.Record) []codes.Code {
	out := make([]codes.Code, len(rs))
	for i, r := range rs {
		out[i] = r.Code
	}
	return out
}
