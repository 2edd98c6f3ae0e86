package imaging

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Lightness bounds outside of which a photo is considered badly exposed.
// Values are CIE L* scaled to 0..1.
const (
	UnderexposedBelow = 0.25
	OverexposedAbove  = 0.90
)

// maxExposureSamples caps how many pixels MeasureExposure visits.
const maxExposureSamples = 40000

// Exposure summarizes how bright a photo is.
type Exposure struct {
	// MeanLightness is the average CIE L* of sampled pixels, 0 (black) to 1 (white).
	MeanLightness float64 `json:"mean_lightness"`

	// Underexposed is true when MeanLightness < UnderexposedBelow.
	Underexposed bool `json:"underexposed"`

	// Overexposed is true when MeanLightness > OverexposedAbove.
	Overexposed bool `json:"overexposed"`
}

// Hint returns a short user-facing suggestion, or "" when exposure looks fine.
func (e Exposure) Hint() string {
	switch {
	case e.Underexposed:
		return "The photo looks dark; try more light."
	case e.Overexposed:
		return "The photo looks washed out; avoid direct flash or glare."
	default:
		return ""
	}
}

// MeasureExposure estimates the perceptual brightness of img.
//
// Pixels are sampled on a regular grid so large photos cost the same as small
// ones. Fully transparent pixels are skipped. An empty image reports zero
// lightness and is flagged underexposed.
func MeasureExposure(img image.Image) Exposure {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	step := 1
	for (w/step)*(h/step) > maxExposureSamples {
		step++
	}

	var sum float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			sum += l
			n++
		}
	}

	var mean float64
	if n > 0 {
		mean = sum / float64(n)
	}

	return Exposure{
		MeanLightness: mean,
		Underexposed:  mean < UnderexposedBelow,
		Overexposed:   mean > OverexposedAbove,
	}
}
