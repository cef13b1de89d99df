package bot

import (
	"testing"

	"jordanella.com/card-battle-go/internal/cv"
)

func TestCoordinateTranslation(t *testing.T) {
	profile, ok := LookupProfile("1080x2400")
	if !ok {
		t.Fatal("profile 1080x2400 not found")
	}

	ct := NewCoordinateTranslator(CoordinateConfig{
		SourceWidth:  ReferenceWidth,
		SourceHeight: ReferenceHeight,
		TargetWidth:  profile.Width,
		TargetHeight: profile.Height,
	})
	if err := ct.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if got := ct.TranslatePoint(cv.Point{X: 170, Y: 890}); got != (cv.Point{X: 340, Y: 2225}) {
		t.Errorf("TranslatePoint = %v, want (340, 2225)", got)
	}

	layout := ct.TranslateLayout(DefaultLayout(ModeSingle))
	if want := cv.NewRegion(102, 1145, 990, 1485); layout.DropZone != want {
		t.Errorf("drop zone = %+v, want %+v", layout.DropZone, want)
	}
	if len(layout.DeckSlots) != DeckCount || layout.DeckConfirm != (cv.Point{X: 540, Y: 182}) {
		t.Errorf("deck targets = %v %v", layout.DeckSlots, layout.DeckConfirm)
	}

	tests := []struct {
		radius int
		want   int
	}{
		{0, 0},
		{2, 4},
		{5, 10},
	}
	for _, tt := range tests {
		if got := ct.TranslateRadius(tt.radius); got != tt.want {
			t.Errorf("TranslateRadius(%d) = %d, want %d", tt.radius, got, tt.want)
		}
	}

	// Downscaling keeps non-zero radii usable
	small := NewCoordinateTranslator(CoordinateConfig{SourceWidth: 540, SourceHeight: 960, TargetWidth: 100, TargetHeight: 100})
	if got := small.TranslateRadius(2); got != 1 {
		t.Errorf("downscaled radius = %d, want 1", got)
	}
}

func TestIdentityTranslator(t *testing.T) {
	ct := IdentityTranslator()
	p := cv.Point{X: 129, Y: 750}
	if got := ct.TranslatePoint(p); got != p {
		t.Errorf("identity moved %v to %v", p, got)
	}
	if got := ct.TranslateRadius(5); got != 5 {
		t.Errorf("identity radius = %d, want 5", got)
	}
	if err := ct.Validate(); err == nil {
		t.Error("identity translator has no resolution and should not validate")
	}
}
