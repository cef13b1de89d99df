package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"jordanella.com/card-battle-go/internal/adb"
	"jordanella.com/card-battle-go/internal/bot"
	"jordanella.com/card-battle-go/internal/cv"
	"jordanella.com/card-battle-go/pkg/templates"
)

// DeviceSettings locate the emulator
type DeviceSettings struct {
	ADBPath        string // empty searches PATH and the usual install dirs
	Serial         string
	ScreenshotPath string // local copy of the capture
	RemotePath     string // capture path on the device
}

// Settings is everything read from Settings.ini
type Settings struct {
	Device DeviceSettings
	Bot    *bot.Config
	Match  cv.MatchConfig

	MaxBattles       int // 0 plays until interrupted
	AssetsDir        string
	TemplatesFile    string // optional YAML overrides, relative to AssetsDir
	ResultsDir       string
	SaveResults      bool
	LogLevel         string
	LogDir           string
	JournalPath      string // empty disables the battle journal
	DetectResolution bool
	Profile          string // device profile used when detection is off
}

// modeSections maps a mode to its INI section
var modeSections = map[bot.Mode]string{
	bot.ModeSingle:  "Single",
	bot.ModeDouble:  "Double",
	bot.ModeDefense: "Defense",
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings(mode bot.Mode) *Settings {
	return &Settings{
		Device: DeviceSettings{
			Serial:         "emulator-5554",
			ScreenshotPath: adb.DefaultLocalPath,
			RemotePath:     adb.DefaultRemotePath,
		},
		Bot:              bot.DefaultConfig(mode),
		Match:            cv.DefaultMatchConfig(),
		AssetsDir:        "modle",
		TemplatesFile:    templates.DefaultDefinition,
		ResultsDir:       "modle_result",
		SaveResults:      true,
		LogLevel:         "INFO",
		LogDir:           "logs",
		DetectResolution: true,
	}
}

// LoadFromINI loads settings from a Settings.ini file. A non-empty
// modeOverride replaces the configured mode. Missing keys keep the defaults
// of the selected mode.
func LoadFromINI(path string, modeOverride string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return fromINI(cfg, modeOverride)
}

func fromINI(cfg *ini.File, modeOverride string) (*Settings, error) {
	botSection := cfg.Section("Bot")

	modeName := botSection.Key("mode").MustString(string(bot.ModeSingle))
	if modeOverride != "" {
		modeName = modeOverride
	}
	mode, err := bot.ParseMode(modeName)
	if err != nil {
		return nil, err
	}

	s := NewDefaultSettings(mode)

	device := cfg.Section("Device")
	s.Device.ADBPath = device.Key("adbPath").MustString(s.Device.ADBPath)
	s.Device.Serial = device.Key("serial").MustString(s.Device.Serial)
	s.Device.ScreenshotPath = device.Key("screenshotPath").MustString(s.Device.ScreenshotPath)
	s.Device.RemotePath = device.Key("remotePath").MustString(s.Device.RemotePath)

	// Matching
	s.Match.Threshold = botSection.Key("threshold").MustFloat64(s.Match.Threshold)
	s.Match.MinScale = botSection.Key("minScale").MustFloat64(s.Match.MinScale)
	s.Match.MaxScale = botSection.Key("maxScale").MustFloat64(s.Match.MaxScale)
	if _, err := s.Match.Scales(); err != nil {
		return nil, err
	}

	// Paths and output
	s.AssetsDir = botSection.Key("assetsDir").MustString(s.AssetsDir)
	s.TemplatesFile = botSection.Key("templatesFile").MustString(s.TemplatesFile)
	s.ResultsDir = botSection.Key("resultsDir").MustString(s.ResultsDir)
	s.SaveResults = botSection.Key("saveResults").MustBool(s.SaveResults)
	s.LogLevel = botSection.Key("logLevel").MustString(s.LogLevel)
	s.LogDir = botSection.Key("logDir").MustString(s.LogDir)
	s.JournalPath = botSection.Key("journalPath").MustString(s.JournalPath)

	// Run
	s.MaxBattles = botSection.Key("maxBattles").MustInt(s.MaxBattles)
	s.Bot.BattlesPerDeck = botSection.Key("battlesPerDeck").MustInt(s.Bot.BattlesPerDeck)
	s.Bot.ReferenceWidth = botSection.Key("referenceWidth").MustInt(s.Bot.ReferenceWidth)
	s.Bot.ReferenceHeight = botSection.Key("referenceHeight").MustInt(s.Bot.ReferenceHeight)
	s.DetectResolution = botSection.Key("detectResolution").MustBool(s.DetectResolution)
	s.Profile = botSection.Key("profile").MustString(s.Profile)
	if s.Profile != "" {
		if _, ok := bot.LookupProfile(s.Profile); !ok {
			return nil, fmt.Errorf("unknown device profile %q", s.Profile)
		}
	}

	if err := applyModeSection(cfg.Section(modeSections[mode]), s.Bot); err != nil {
		return nil, fmt.Errorf("[%s]: %w", modeSections[mode], err)
	}

	if err := s.Bot.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyModeSection overrides the per-mode battle settings
func applyModeSection(section *ini.Section, c *bot.Config) error {
	c.WaitTime = seconds(section.Key("waitTime").MustFloat64(c.WaitTime.Seconds()))
	c.MaxCards = section.Key("maxCards").MustInt(c.MaxCards)

	if section.HasKey("dropZone") {
		zone, err := ParseRegion(section.Key("dropZone").String())
		if err != nil {
			return fmt.Errorf("dropZone: %w", err)
		}
		c.Layout.DropZone = zone
	}

	if section.HasKey("pacingFixed") {
		c.Pacing = bot.Pacing{Fixed: seconds(section.Key("pacingFixed").MustFloat64(0))}
	}
	if section.HasKey("pacingMean") {
		c.Pacing = bot.Pacing{
			Mean:       section.Key("pacingMean").MustFloat64(4),
			StdDev:     section.Key("pacingStdDev").MustFloat64(1.5),
			MinSeconds: section.Key("pacingMin").MustInt(1),
			MaxSeconds: section.Key("pacingMax").MustInt(10),
		}
	}
	return nil
}

// ParseRegion parses "x1,y1,x2,y2"
func ParseRegion(s string) (cv.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return cv.Region{}, fmt.Errorf("want x1,y1,x2,y2, got %q", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return cv.Region{}, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		v[i] = n
	}

	region := cv.NewRegion(v[0], v[1], v[2], v[3])
	return region, region.Validate()
}

// FormatRegion is the inverse of ParseRegion
func FormatRegion(r cv.Region) string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X1, r.Y1, r.X2, r.Y2)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// SaveToINI writes settings to an INI file
func SaveToINI(s *Settings, path string) error {
	cfg := ini.Empty()

	device := cfg.Section("Device")
	device.Key("adbPath").SetValue(s.Device.ADBPath)
	device.Key("serial").SetValue(s.Device.Serial)
	device.Key("screenshotPath").SetValue(s.Device.ScreenshotPath)
	device.Key("remotePath").SetValue(s.Device.RemotePath)

	section := cfg.Section("Bot")
	section.Key("mode").SetValue(string(s.Bot.Mode))
	section.Key("maxBattles").SetValue(strconv.Itoa(s.MaxBattles))
	section.Key("battlesPerDeck").SetValue(strconv.Itoa(s.Bot.BattlesPerDeck))
	section.Key("threshold").SetValue(formatFloat(s.Match.Threshold))
	section.Key("minScale").SetValue(formatFloat(s.Match.MinScale))
	section.Key("maxScale").SetValue(formatFloat(s.Match.MaxScale))
	section.Key("assetsDir").SetValue(s.AssetsDir)
	section.Key("templatesFile").SetValue(s.TemplatesFile)
	section.Key("resultsDir").SetValue(s.ResultsDir)
	section.Key("saveResults").SetValue(strconv.FormatBool(s.SaveResults))
	section.Key("logLevel").SetValue(s.LogLevel)
	section.Key("logDir").SetValue(s.LogDir)
	section.Key("journalPath").SetValue(s.JournalPath)
	section.Key("referenceWidth").SetValue(strconv.Itoa(s.Bot.ReferenceWidth))
	section.Key("referenceHeight").SetValue(strconv.Itoa(s.Bot.ReferenceHeight))
	section.Key("detectResolution").SetValue(strconv.FormatBool(s.DetectResolution))
	section.Key("profile").SetValue(s.Profile)

	// Every mode section gets its defaults, the active one the live values
	for _, mode := range []bot.Mode{bot.ModeSingle, bot.ModeDouble, bot.ModeDefense} {
		c := bot.DefaultConfig(mode)
		if mode == s.Bot.Mode {
			c = s.Bot
		}
		writeModeSection(cfg.Section(modeSections[mode]), c)
	}

	return cfg.SaveTo(path)
}

func writeModeSection(section *ini.Section, c *bot.Config) {
	section.Key("waitTime").SetValue(formatFloat(c.WaitTime.Seconds()))
	section.Key("maxCards").SetValue(strconv.Itoa(c.MaxCards))
	section.Key("dropZone").SetValue(FormatRegion(c.Layout.DropZone))

	if c.Pacing.Fixed > 0 {
		section.Key("pacingFixed").SetValue(formatFloat(c.Pacing.Fixed.Seconds()))
		return
	}
	section.Key("pacingMean").SetValue(formatFloat(c.Pacing.Mean))
	section.Key("pacingStdDev").SetValue(formatFloat(c.Pacing.StdDev))
	section.Key("pacingMin").SetValue(strconv.Itoa(c.Pacing.MinSeconds))
	section.Key("pacingMax").SetValue(strconv.Itoa(c.Pacing.MaxSeconds))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
