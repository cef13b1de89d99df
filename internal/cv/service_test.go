package cv

import (
	"image"
	"os"
	"testing"

	"jordanella.com/card-battle-go/internal/logging"
)

type templateMap map[string]*Template

func (m templateMap) Template(name string) (*Template, error) {
	t, ok := m[name]
	if !ok {
		return nil, ErrAssetMissing
	}
	return t, nil
}

func TestFindInFrameSaveOption(t *testing.T) {
	tmpl := blockPattern(16, 16, 4, 41)
	frame := NewFrame(sceneWithTemplate(80, 60, tmpl, image.Pt(30, 20)))
	source := templateMap{"Combat": {Name: "Combat", Image: tmpl}}
	single := MatchConfig{Threshold: 0.8, MinScale: 1, MaxScale: 1, Steps: 1}

	tests := []struct {
		name     string
		saveAll  bool
		opts     []Option
		wantSave bool
	}{
		{"service default on", true, nil, true},
		{"option turns saving off", true, []Option{WithSaveResult(false)}, false},
		{"option turns saving on", false, []Option{WithSaveResult(true)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			vision := NewService(nil, source, logging.NewDiscardLogger()).
				WithDefaults(single).
				WithResults(dir, tt.saveAll)

			result, err := vision.FindInFrame(frame, "Combat", tt.opts...)
			if err != nil || result == nil {
				t.Fatalf("FindInFrame = %v, %v", result, err)
			}
			if result.X != 30 || result.Y != 20 {
				t.Errorf("match at (%d,%d), want (30,20)", result.X, result.Y)
			}

			entries, _ := os.ReadDir(dir)
			if saved := len(entries) == 1; saved != tt.wantSave {
				t.Errorf("saved = %v (%d files), want %v", saved, len(entries), tt.wantSave)
			}
		})
	}

	if frame.corr == nil {
		t.Error("service searches should keep the frame transform")
	}
}
