package cv

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// Frame is a screenshot captured at one instant. Its image is never modified
// after it is produced. Frames must not be copied once matched against.
type Frame struct {
	Image      *image.NRGBA
	CapturedAt time.Time
	Source     string

	mu   sync.Mutex
	corr *correlator // lazily built by Match
}

// NewFrame wraps an in-memory image as a frame
func NewFrame(img image.Image) *Frame {
	return &Frame{
		Image:      toNRGBA(img),
		CapturedAt: time.Now(),
		Source:     "memory",
	}
}

// LoadFrame decodes a screenshot file
func LoadFrame(path string) (*Frame, error) {
	img, err := openImage(path)
	if err != nil {
		return nil, err
	}
	return &Frame{Image: img, CapturedAt: time.Now(), Source: path}, nil
}

// Width returns the frame width in pixels
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// Template is a named reference image. Threshold, MinScale and MaxScale
// override the matcher defaults when non-zero.
type Template struct {
	Name      string
	Path      string
	Threshold float64
	MinScale  float64
	MaxScale  float64
	Image     *image.NRGBA
}

// LoadTemplate reads the template image for name from path
func LoadTemplate(name, path string) (*Template, error) {
	img, err := openImage(path)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	return &Template{Name: name, Path: path, Image: img}, nil
}

func openImage(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrReadError, path, err)
	}

	nrgba := toNRGBA(img)
	if nrgba.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: empty image", ErrReadError, path)
	}
	return nrgba, nil
}

// toNRGBA returns img as an NRGBA image whose bounds start at (0,0)
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
