package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/stack-scanner/internal/codes"
	"github.com/ironsheep/stack-scanner/internal/ocr"
	"github.com/ironsheep/stack-scanner/internal/ocr/ocrtest"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{180, 60, 60, 255})
		}
	}
	return img
}

func TestExtractCodes_Scenario(t *testing.T) {
	engine := ocrtest.New("JBC19-N7C5 random JBC19-N7C5 other HKJ88-X2Z1")
	ex := New(engine)

	got, err := ex.ExtractCodes(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, []codes.Code{"HKJ88-X2Z1", "JBC19-N7C5"}, got)
}

func TestExtractCodes_LogsFoundCodes(t *testing.T) {
	var buf bytes.Buffer
	ex := New(ocrtest.New("JBC19-N7C5 HKJ88-X2Z1"), WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	_, err := ex.ExtractCodes(context.Background(), testImage())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"codes":["HKJ88-X2Z1","JBC19-N7C5"]`)
	assert.Contains(t, buf.String(), `"count":2`)
}

func TestExtractCodes_NoMatches(t *testing.T) {
	ex := New(ocrtest.New("blurry nothing"))

	got, err := ex.ExtractCodes(context.Background(), testImage())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractCodes_UsesSingleBlockOnNormalizedImage(t *testing.T) {
	engine := ocrtest.New("")
	ex := New(engine)

	_, err := ex.ExtractCodes(context.Background(), testImage())
	require.NoError(t, err)

	calls := engine.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ocr.SingleBlock, calls[0].Mode)
	assert.Equal(t, image.Rect(0, 0, 64, 32), calls[0].Bounds)

	// The engine sees a grayscale image.
	r, g, b, _ := calls[0].Image.At(10, 10).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestExtractCodes_Options(t *testing.T) {
	engine := ocrtest.New("")
	ex := New(engine, WithPageSegMode(ocr.SparseText), WithContrast(1.0))

	_, err := ex.ExtractCodes(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, ocr.SparseText, engine.Calls()[0].Mode)
}

func TestExtractCodes_PropagatesUnavailable(t *testing.T) {
	ex := New(ocrtest.Failing(ocr.ErrUnavailable))

	got, err := ex.ExtractCodes(context.Background(), testImage())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ocr.ErrUnavailable)
	assert.False(t, errors.Is(err, ocr.ErrFailure))
}

func TestExtractCodes_PropagatesFailure(t *testing.T) {
	ex := New(ocrtest.Failing(ocr.ErrFailure))

	_, err := ex.ExtractCodes(context.Background(), testImage())
	assert.ErrorIs(t, err, ocr.ErrFailure)
}

func TestExtractText_ReturnsRawText(t *testing.T) {
	ex := New(ocrtest.New("raw\nJBC19-N7C5\n"))

	text, err := ex.ExtractText(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, "raw\nJBC19-N7C5\n", text)
}
