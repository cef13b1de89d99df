package bot

import (
	"fmt"

	"jordanella.com/card-battle-go/internal/cv"
)

// CoordinateConfig holds coordinate translation parameters
type CoordinateConfig struct {
	SourceWidth  int // Reference screen the layout was measured on
	SourceHeight int
	TargetWidth  int // Device screen
	TargetHeight int
}

// DeviceProfile is a known emulator resolution
type DeviceProfile struct {
	Name   string
	Width  int
	Height int
}

// DeviceProfiles lists the resolutions the layout has been checked on
var DeviceProfiles = []DeviceProfile{
	{Name: "1080x2400", Width: 1080, Height: 2400},
	{Name: "720x1280", Width: 720, Height: 1280},
	{Name: "540x960", Width: 540, Height: 960},
}

// LookupProfile returns the profile with the given name
func LookupProfile(name string) (DeviceProfile, bool) {
	for _, p := range DeviceProfiles {
		if p.Name == name {
			return p, true
		}
	}
	return DeviceProfile{}, false
}

// CoordinateTranslator maps reference coordinates onto the device screen
type CoordinateTranslator struct {
	config CoordinateConfig
}

// NewCoordinateTranslator creates a new coordinate translator with the given configuration
func NewCoordinateTranslator(config CoordinateConfig) *CoordinateTranslator {
	return &CoordinateTranslator{
		config: config,
	}
}

// IdentityTranslator leaves coordinates unchanged
func IdentityTranslator() *CoordinateTranslator {
	return &CoordinateTranslator{}
}

// TranslateX translates an X coordinate from source to target coordinate system
func (ct *CoordinateTranslator) TranslateX(x int) int {
	if ct.config.SourceWidth == 0 || ct.config.TargetWidth == 0 {
		return x
	}
	return x * ct.config.TargetWidth / ct.config.SourceWidth
}

// TranslateY translates a Y coordinate from source to target coordinate system
func (ct *CoordinateTranslator) TranslateY(y int) int {
	if ct.config.SourceHeight == 0 || ct.config.TargetHeight == 0 {
		return y
	}
	return y * ct.config.TargetHeight / ct.config.SourceHeight
}

// TranslatePoint translates a point from source to target coordinate system
func (ct *CoordinateTranslator) TranslatePoint(p cv.Point) cv.Point {
	return cv.Point{X: ct.TranslateX(p.X), Y: ct.TranslateY(p.Y)}
}

// TranslateRegion translates an inclusive region
func (ct *CoordinateTranslator) TranslateRegion(r cv.Region) cv.Region {
	return cv.NewRegion(ct.TranslateX(r.X1), ct.TranslateY(r.Y1), ct.TranslateX(r.X2), ct.TranslateY(r.Y2))
}

// TranslateRadius scales a jitter radius by the smaller axis factor,
// keeping it at least 1 when it was non-zero
func (ct *CoordinateTranslator) TranslateRadius(r int) int {
	if r == 0 {
		return 0
	}
	sx, sy := ct.GetScaleFactors()
	scaled := int(float64(r) * min(sx, sy))
	return max(1, scaled)
}

// TranslateLayout scales every tap target of a layout
func (ct *CoordinateTranslator) TranslateLayout(l Layout) Layout {
	out := Layout{
		DropZone:    ct.TranslateRegion(l.DropZone),
		DeckMenu:    ct.TranslatePoint(l.DeckMenu),
		DeckConfirm: ct.TranslatePoint(l.DeckConfirm),
	}
	for _, p := range l.CardSlots {
		out.CardSlots = append(out.CardSlots, ct.TranslatePoint(p))
	}
	for _, p := range l.DeckSlots {
		out.DeckSlots = append(out.DeckSlots, ct.TranslatePoint(p))
	}
	return out
}

// GetScaleFactors returns the X and Y scale factors
func (ct *CoordinateTranslator) GetScaleFactors() (float64, float64) {
	scaleX := 1.0
	scaleY := 1.0

	if ct.config.SourceWidth != 0 && ct.config.TargetWidth != 0 {
		scaleX = float64(ct.config.TargetWidth) / float64(ct.config.SourceWidth)
	}
	if ct.config.SourceHeight != 0 && ct.config.TargetHeight != 0 {
		scaleY = float64(ct.config.TargetHeight) / float64(ct.config.SourceHeight)
	}

	return scaleX, scaleY
}

// GetConfig returns the current coordinate configuration
func (ct *CoordinateTranslator) GetConfig() CoordinateConfig {
	return ct.config
}

// Validate ensures the coordinate configuration is valid
func (ct *CoordinateTranslator) Validate() error {
	if ct.config.SourceWidth <= 0 {
		return fmt.Errorf("invalid SourceWidth: %d (must be > 0)", ct.config.SourceWidth)
	}
	if ct.config.SourceHeight <= 0 {
		return fmt.Errorf("invalid SourceHeight: %d (must be > 0)", ct.config.SourceHeight)
	}
	if ct.config.TargetWidth <= 0 {
		return fmt.Errorf("invalid TargetWidth: %d (must be > 0)", ct.config.TargetWidth)
	}
	if ct.config.TargetHeight <= 0 {
		return fmt.Errorf("invalid TargetHeight: %d (must be > 0)", ct.config.TargetHeight)
	}
	return nil
}

// String returns a string representation of the translator configuration
func (ct *CoordinateTranslator) String() string {
	scaleX, scaleY := ct.GetScaleFactors()
	return fmt.Sprintf("CoordinateTranslator{Source: %dx%d, Target: %dx%d, ScaleX: %.3f, ScaleY: %.3f}",
		ct.config.SourceWidth, ct.config.SourceHeight,
		ct.config.TargetWidth, ct.config.TargetHeight,
		scaleX, scaleY)
}
