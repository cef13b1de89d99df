package cv

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	// DefaultScaleSteps is the number of scale factors tried per search
	DefaultScaleSteps = 20

	// preBlurSigma approximates a 3x3 Gaussian kernel, applied to both frame
	// and template before correlation to suppress compression noise
	preBlurSigma = 0.8

	// flatVariance is the per-pixel variance below which a window or a
	// template is treated as flat (correlation undefined, scored 0)
	flatVariance = 1e-6
)

// MatchResult is the bounding box of the best match and how it was found.
// A search without an acceptable match returns a nil *MatchResult.
type MatchResult struct {
	X, Y          int
	Width, Height int
	Scale         float64
	Confidence    float64
}

// Center returns the center of the match box
func (r *MatchResult) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Rect returns the match box as an image.Rectangle
func (r *MatchResult) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// MatchConfig configures template matching
type MatchConfig struct {
	Threshold float64 // minimum accepted confidence, inclusive
	MinScale  float64
	MaxScale  float64
	Steps     int // 0 means DefaultScaleSteps
}

// DefaultMatchConfig returns recommended settings
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Threshold: 0.75,
		MinScale:  0.75,
		MaxScale:  2.0,
		Steps:     DefaultScaleSteps,
	}
}

// Scales returns the scale grid for the config
func (c MatchConfig) Scales() ([]float64, error) {
	steps := c.Steps
	if steps == 0 {
		steps = DefaultScaleSteps
	}
	if c.MinScale <= 0 || c.MaxScale < c.MinScale || steps < 1 {
		return nil, fmt.Errorf("%w: [%v, %v] in %d steps", ErrInvalidScaleRange, c.MinScale, c.MaxScale, steps)
	}
	return Linspace(c.MinScale, c.MaxScale, steps), nil
}

// Linspace returns n evenly spaced values over [start, stop]. The last value
// is exactly stop.
func Linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}

	values := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	values[n-1] = stop
	return values
}

// meetsThreshold reports whether a confidence is accepted. The boundary is
// inclusive.
func meetsThreshold(confidence, threshold float64) bool {
	return confidence >= threshold
}

// FindTemplate searches frame for needle over the configured scale grid using
// normalized cross-correlation (mean-subtracted, summed over RGB). It returns
// nil when the best score is below the threshold or no scale fits the frame.
// Scales are compared in ascending order and only a strictly better score
// replaces the current best, so ties resolve to the smaller scale.
//
// Searching the same frame repeatedly is cheaper through Frame.Match, which
// keeps the frame transform between calls.
func FindTemplate(frame, needle image.Image, config MatchConfig) (*MatchResult, error) {
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrReadError)
	}
	if err := checkNeedle(needle); err != nil {
		return nil, err
	}

	scales, err := config.Scales()
	if err != nil {
		return nil, err
	}
	return search(newCorrelator(imaging.Blur(frame, preBlurSigma)), needle, scales, config.Threshold), nil
}

// Match is FindTemplate against the frame. The blurred frame spectra are
// built on first use and shared by later calls, including concurrent ones.
func (f *Frame) Match(needle image.Image, config MatchConfig) (*MatchResult, error) {
	if f == nil || f.Image == nil || f.Image.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrReadError)
	}
	if err := checkNeedle(needle); err != nil {
		return nil, err
	}

	scales, err := config.Scales()
	if err != nil {
		return nil, err
	}
	return search(f.correlator(), needle, scales, config.Threshold), nil
}

func (f *Frame) correlator() *correlator {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.corr == nil {
		f.corr = newCorrelator(imaging.Blur(f.Image, preBlurSigma))
	}
	return f.corr
}

func checkNeedle(needle image.Image) error {
	if needle == nil || needle.Bounds().Empty() {
		return fmt.Errorf("%w: empty template", ErrReadError)
	}
	return nil
}

func search(haystack *correlator, needle image.Image, scales []float64, threshold float64) *MatchResult {
	blurred := imaging.Blur(needle, preBlurSigma)
	needleW, needleH := blurred.Bounds().Dx(), blurred.Bounds().Dy()

	// A resized template larger than the frame cannot be placed anywhere
	var fits []float64
	var sizes []image.Point
	for _, scale := range scales {
		w := int(float64(needleW) * scale)
		h := int(float64(needleH) * scale)
		if w < 1 || h < 1 || w > haystack.width || h > haystack.height {
			continue
		}
		fits = append(fits, scale)
		sizes = append(sizes, image.Pt(w, h))
	}
	if len(fits) == 0 {
		return nil
	}

	placements := haystack.scoreAll(sizes, func(size image.Point) *image.NRGBA {
		return imaging.Resize(blurred, size.X, size.Y, imaging.Linear)
	})

	var best *MatchResult
	for i, p := range placements {
		if best == nil || p.score > best.Confidence {
			best = &MatchResult{
				X:          p.loc.X,
				Y:          p.loc.Y,
				Width:      sizes[i].X,
				Height:     sizes[i].Y,
				Scale:      fits[i],
				Confidence: p.score,
			}
		}
	}

	if !meetsThreshold(best.Confidence, threshold) {
		return nil
	}
	return best
}
