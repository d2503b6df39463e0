// Package features extracts normalized pixel statistics from raw image
// bytes. It is a pure function of the input: identical bytes always yield
// identical feature sets.
package features

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/webp"

	"thumbscope/internal/domain/model"
	"thumbscope/internal/domain/scoring"
)

// Scaling constants mapping raw pixel statistics onto the 0-10 range.
const (
	contrastFullScale = 80.0  // stddev that maps to 10
	clarityFullScale  = 40.0  // mean gradient magnitude that maps to 10
	saturationScale   = 12.0  // mean saturation multiplier
	strongEdgeLevel   = 30.0  // gradient magnitude counted as a hard edge
	textBandScale     = 25.0  // strong-edge fraction multiplier in the text band
	focusRatioScale   = 5.0   // center/global gradient ratio multiplier

	idealAspect = 16.0 / 9.0

	// maxSampleGrid bounds per-axis samples so huge uploads cost the
	// same as a 1280x720 thumbnail.
	maxSampleGrid = 256
)

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithSampleGrid overrides the per-axis sampling bound.
func WithSampleGrid(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.sampleGrid = n
		}
	}
}

// Extractor computes a FeatureSet from image bytes.
type Extractor struct {
	sampleGrid int
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{sampleGrid: maxSampleGrid}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract decodes data and computes the feature set. The decoded image is
// returned alongside so callers can reuse it (perceptual hashing) without
// paying for a second decode. Decode failure returns ErrUndecodable.
func (e *Extractor) Extract(ctx context.Context, data []byte) (model.FeatureSet, image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return model.FeatureSet{}, nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if err := ctx.Err(); err != nil {
		return model.FeatureSet{}, nil, err
	}
	return e.analyze(img), img, nil
}

// analyze runs a single sampled pass over the pixels.
func (e *Extractor) analyze(img image.Image) model.FeatureSet {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		fs := model.NeutralFeatures()
		fs.Width, fs.Height = w, h
		return fs
	}

	step := 1
	if m := maxInt(w, h); m > e.sampleGrid {
		step = m / e.sampleGrid
	}

	var (
		n                   float64
		sumR, sumG, sumB    float64
		sqR, sqG, sqB       float64
		sumSat              float64
		gradSum, gradCount  float64
		centerGrad, centerN float64
		bandStrong, bandN   float64
	)

	cx0, cx1 := b.Min.X+w/4, b.Min.X+3*w/4
	cy0, cy1 := b.Min.Y+h/4, b.Min.Y+3*h/4
	textBandY := b.Min.Y + 2*h/3

	lum := func(x, y int) float64 {
		r, g, bl, _ := img.At(x, y).RGBA()
		return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
	}

	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r, g, bl := float64(r16>>8), float64(g16>>8), float64(b16>>8)

			n++
			sumR += r
			sumG += g
			sumB += bl
			sqR += r * r
			sqG += g * g
			sqB += bl * bl

			maxC := math.Max(r, math.Max(g, bl))
			minC := math.Min(r, math.Min(g, bl))
			if maxC > 0 {
				sumSat += (maxC - minC) / maxC
			}

			if x+step < b.Max.X && y+step < b.Max.Y {
				l := lum(x, y)
				grad := math.Abs(lum(x+step, y)-l) + math.Abs(lum(x, y+step)-l)
				gradSum += grad
				gradCount++

				if x >= cx0 && x < cx1 && y >= cy0 && y < cy1 {
					centerGrad += grad
					centerN++
				}
				if y >= textBandY {
					bandN++
					if grad > strongEdgeLevel {
						bandStrong++
					}
				}
			}
		}
	}

	brightness := (sumR + sumG + sumB) / (3 * n) / 255.0 * 10.0
	contrast := (stddev(sumR, sqR, n) + stddev(sumG, sqG, n) + stddev(sumB, sqB, n)) / 3.0 / contrastFullScale * 10.0

	meanGrad := 0.0
	if gradCount > 0 {
		meanGrad = gradSum / gradCount
	}
	clarity := meanGrad / clarityFullScale * 10.0

	focus := model.NeutralSubScore
	if centerN > 0 && meanGrad > 0 {
		focus = centerGrad / centerN / meanGrad * focusRatioScale
	}

	text := 0.0
	if bandN > 0 {
		text = bandStrong / bandN * textBandScale
	}

	emotional := sumSat / n * saturationScale

	return model.FeatureSet{
		Clarity:         scoring.Round1(scoring.Clamp10(clarity)),
		Contrast:        scoring.Round1(scoring.Clamp10(contrast)),
		TextReadability: scoring.Round1(scoring.Clamp10(text)),
		SubjectFocus:    scoring.Round1(scoring.Clamp10(focus)),
		EmotionalImpact: scoring.Round1(scoring.Clamp10(emotional)),
		Brightness:      scoring.Round1(scoring.Clamp10(brightness)),
		AspectRatioFit:  aspectFit(w, h),
		Width:           w,
		Height:          h,
	}
}

// aspectFit scores how close the frame is to 16:9 on a step curve.
func aspectFit(w, h int) float64 {
	aspect := float64(w) / math.Max(float64(h), 1)
	delta := math.Abs(aspect - idealAspect)
	switch {
	case delta < 0.1:
		return 9.5
	case delta < 0.3:
		return 8.0
	case delta < 0.6:
		return 6.0
	default:
		return scoring.Round1(math.Max(0, 6.0-(delta-0.6)*8.0))
	}
}

func stddev(sum, sumSq, n float64) float64 {
	mean := sum / n
	v := sumSq/n - mean*mean
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
