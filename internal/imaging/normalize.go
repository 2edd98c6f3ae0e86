package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
)

// DefaultContrast is the contrast multiplier applied before OCR.
const DefaultContrast = 2.0

// Normalize converts img to grayscale and multiplies its contrast by factor.
//
// Contrast is stretched around the image's mean gray level: every pixel v
// becomes mean + factor*(v-mean), clamped to black and white. Pivoting on the
// mean keeps dark and washed-out photos from collapsing into a single tone.
// A factor of 1.0 leaves tones unchanged; factors <= 0 are treated as
// DefaultContrast.
//
// The input image is not modified.
func Normalize(img image.Image, factor float64) *image.RGBA {
	if factor <= 0 {
		factor = DefaultContrast
	}

	gray := imaging.Grayscale(img)
	mean := meanGray(gray)

	var lut [256]uint8
	for v := range lut {
		lut[v] = clampGray(mean + factor*(float64(v)-mean))
	}

	return adjust.Apply(gray, func(c color.RGBA) color.RGBA {
		y := lut[c.R]
		return color.RGBA{R: y, G: y, B: y, A: c.A}
	})
}

// meanGray returns the mean gray level of a grayscale image, rounded to a
// whole level. An empty image has mean 0.
func meanGray(gray *image.NRGBA) float64 {
	b := gray.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(row[x])
		}
	}
	return math.Round(float64(sum) / float64(n))
}

func clampGray(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
