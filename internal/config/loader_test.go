package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/card-battle-go/internal/bot"
	"jordanella.com/card-battle-go/internal/cv"
)

func writeINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := LoadFromINI(writeINI(t, ""), "")
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	if s.Bot.Mode != bot.ModeSingle {
		t.Errorf("mode = %s, want single", s.Bot.Mode)
	}
	if s.Device.Serial != "emulator-5554" {
		t.Errorf("serial = %s", s.Device.Serial)
	}
	if s.Match.Threshold != 0.75 || s.AssetsDir != "modle" || s.ResultsDir != "modle_result" {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.Bot.BattlesPerDeck != 1000 || s.Bot.WaitTime != 10*time.Second {
		t.Errorf("unexpected bot defaults: %+v", s.Bot)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeINI(t, `
[Device]
serial = 127.0.0.1:16384
adbPath = /opt/adb

[Bot]
mode = double
threshold = 0.8
minScale = 0.5
maxScale = 1.5
battlesPerDeck = 3
maxBattles = 12
journalPath = journal.db
detectResolution = false
profile = 1080x2400

[Double]
waitTime = 25
maxCards = 40
dropZone = 10, 20, 110, 220
pacingMean = 3
pacingStdDev = 0.5
pacingMin = 2
pacingMax = 5

[Single]
maxCards = 5
`)

	s, err := LoadFromINI(path, "")
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	if s.Device.Serial != "127.0.0.1:16384" || s.Device.ADBPath != "/opt/adb" {
		t.Errorf("device = %+v", s.Device)
	}
	if s.Match.Threshold != 0.8 || s.Match.MinScale != 0.5 || s.Match.MaxScale != 1.5 {
		t.Errorf("match = %+v", s.Match)
	}
	if s.MaxBattles != 12 || s.JournalPath != "journal.db" || s.DetectResolution || s.Profile != "1080x2400" {
		t.Errorf("run settings = %+v", s)
	}

	c := s.Bot
	if c.Mode != bot.ModeDouble || c.BattlesPerDeck != 3 {
		t.Errorf("bot = %+v", c)
	}
	if c.WaitTime != 25*time.Second || c.MaxCards != 40 {
		t.Errorf("double section ignored: wait %v, cards %d", c.WaitTime, c.MaxCards)
	}
	if c.Layout.DropZone != cv.NewRegion(10, 20, 110, 220) {
		t.Errorf("drop zone = %+v", c.Layout.DropZone)
	}
	want := bot.Pacing{Mean: 3, StdDev: 0.5, MinSeconds: 2, MaxSeconds: 5}
	if c.Pacing != want {
		t.Errorf("pacing = %+v, want %+v", c.Pacing, want)
	}
}

func TestModeOverride(t *testing.T) {
	path := writeINI(t, "[Bot]\nmode = double\n[Defense]\npacingFixed = 1.5\n")

	s, err := LoadFromINI(path, "defense")
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}
	if s.Bot.Mode != bot.ModeDefense {
		t.Errorf("mode = %s, want defense", s.Bot.Mode)
	}
	if s.Bot.Pacing.Fixed != 1500*time.Millisecond {
		t.Errorf("pacing = %+v", s.Bot.Pacing)
	}
	if s.Bot.Layout.DropZone != cv.NewRegion(246, 570, 296, 607) {
		t.Errorf("defense drop zone = %+v", s.Bot.Layout.DropZone)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown mode", "[Bot]\nmode = arena\n", nil},
		{"inverted scale range", "[Bot]\nminScale = 2\nmaxScale = 1\n", cv.ErrInvalidScaleRange},
		{"zero min scale", "[Bot]\nminScale = 0\n", cv.ErrInvalidScaleRange},
		{"negative min scale", "[Bot]\nminScale = -0.5\nmaxScale = 1\n", cv.ErrInvalidScaleRange},
		{"bad drop zone", "[Single]\ndropZone = 1,2,3\n", nil},
		{"inverted drop zone", "[Single]\ndropZone = 100,100,10,10\n", nil},
		{"unknown profile", "[Bot]\nprofile = 1x1\n", nil},
		{"invalid cards", "[Single]\nmaxCards = 0\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromINI(writeINI(t, tt.content), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}

	if _, err := LoadFromINI(filepath.Join(t.TempDir(), "missing.ini"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveAndReload(t *testing.T) {
	s := NewDefaultSettings(bot.ModeSingle)
	s.Device.Serial = "emulator-5556"
	s.MaxBattles = 7
	s.Bot.MaxCards = 33

	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := SaveToINI(s, path); err != nil {
		t.Fatalf("SaveToINI failed: %v", err)
	}

	loaded, err := LoadFromINI(path, "")
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}
	if loaded.Device.Serial != "emulator-5556" || loaded.MaxBattles != 7 || loaded.Bot.MaxCards != 33 {
		t.Errorf("reloaded settings differ: %+v %+v", loaded, loaded.Bot)
	}
	if loaded.Bot.Pacing != s.Bot.Pacing {
		t.Errorf("pacing = %+v, want %+v", loaded.Bot.Pacing, s.Bot.Pacing)
	}

	// Switching mode picks up that mode's written defaults
	double, err := LoadFromINI(path, "double")
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}
	if double.Bot.WaitTime != 20*time.Second || double.Bot.Pacing.Fixed != 6*time.Second {
		t.Errorf("double defaults = %+v", double.Bot)
	}
}
