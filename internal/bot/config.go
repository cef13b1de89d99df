package bot

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"jordanella.com/card-battle-go/internal/cv"
)

// Mode selects the battle flavor
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeDouble  Mode = "double"
	ModeDefense Mode = "defense"
)

// ParseMode parses a mode name, case-insensitively
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSingle:
		return ModeSingle, nil
	case ModeDouble:
		return ModeDouble, nil
	case ModeDefense:
		return ModeDefense, nil
	default:
		return "", fmt.Errorf("unknown battle mode %q (want single, double or defense)", s)
	}
}

// Pacing is the pause after each played card. A non-zero Fixed wins;
// otherwise the pause is int(Normal(Mean, StdDev)) seconds clamped to
// [MinSeconds, MaxSeconds].
type Pacing struct {
	Fixed      time.Duration
	Mean       float64
	StdDev     float64
	MinSeconds int
	MaxSeconds int
}

// Next draws the next pause
func (p Pacing) Next(rng *rand.Rand) time.Duration {
	if p.Fixed > 0 {
		return p.Fixed
	}
	seconds := int(rng.NormFloat64()*p.StdDev + p.Mean)
	seconds = max(p.MinSeconds, min(p.MaxSeconds, seconds))
	return time.Duration(seconds) * time.Second
}

// Layout holds the fixed tap targets, in reference coordinates
type Layout struct {
	CardSlots   []cv.Point
	DropZone    cv.Region
	DeckMenu    cv.Point
	DeckSlots   []cv.Point
	DeckConfirm cv.Point
}

// Config holds per-mode battle settings. Coordinates in Layout are given in
// a ReferenceWidth x ReferenceHeight screen and scaled to the device.
type Config struct {
	Mode           Mode
	WaitTime       time.Duration // pause before playing the first card
	MaxCards       int           // card actions per battle
	BattlesPerDeck int           // battles before rotating to the next deck

	DefaultCheckEndAfter int     // cards before the end check, until a battle succeeds
	MinCheckEndAfter     int     // floor of the adaptive end check
	CheckEndRatio        float64 // share of the average card count

	CardRadius     int // jitter when selecting a card
	DropRadius     int // jitter when dropping a card
	TemplateRadius int // jitter when tapping a matched template
	MenuRadius     int // jitter on deck menu taps

	CardSelectDelay  time.Duration
	Pacing           Pacing
	QuickMatchSettle time.Duration
	BattleEndSettle  time.Duration
	Cooldown         time.Duration // after a successful battle
	HomeSettle       time.Duration // after tapping the single mode home marker
	DeckMenuSettle   time.Duration
	DeckSlotSettle   time.Duration
	DeckConfirmDelay time.Duration

	// Recovery taps for Reward and Return_to_game
	RewardClicks       int
	RecoveryClickDelay time.Duration

	ReferenceWidth  int
	ReferenceHeight int
	Layout          Layout
}

// Reference screen the default layout was measured on
const (
	ReferenceWidth  = 540
	ReferenceHeight = 960
	DeckCount       = 5
)

// DefaultLayout returns the tap targets for mode
func DefaultLayout(mode Mode) Layout {
	drop := cv.NewRegion(51, 458, 495, 594)
	if mode == ModeDefense {
		drop = cv.NewRegion(246, 570, 296, 607)
	}

	return Layout{
		CardSlots: []cv.Point{
			{X: 170, Y: 890},
			{X: 266, Y: 890},
			{X: 373, Y: 890},
			{X: 476, Y: 890},
		},
		DropZone: drop,
		DeckMenu: cv.Point{X: 129, Y: 750},
		DeckSlots: []cv.Point{
			{X: 105, Y: 143},
			{X: 172, Y: 143},
			{X: 238, Y: 143},
			{X: 303, Y: 143},
			{X: 369, Y: 143},
		},
		DeckConfirm: cv.Point{X: 270, Y: 73},
	}
}

// DefaultPacing returns the inter-card pause policy for mode
func DefaultPacing(mode Mode) Pacing {
	switch mode {
	case ModeDouble:
		return Pacing{Fixed: 6 * time.Second}
	case ModeDefense:
		return Pacing{Fixed: 2 * time.Second}
	default:
		return Pacing{Mean: 4, StdDev: 1.5, MinSeconds: 1, MaxSeconds: 10}
	}
}

// DefaultConfig returns the documented defaults for mode
func DefaultConfig(mode Mode) *Config {
	wait := 10 * time.Second
	if mode == ModeDouble {
		wait = 20 * time.Second
	}

	return &Config{
		Mode:           mode,
		WaitTime:       wait,
		MaxCards:       60,
		BattlesPerDeck: 1000,

		DefaultCheckEndAfter: 10,
		MinCheckEndAfter:     5,
		CheckEndRatio:        0.7,

		CardRadius:     2,
		DropRadius:     5,
		TemplateRadius: 5,
		MenuRadius:     2,

		CardSelectDelay:  500 * time.Millisecond,
		Pacing:           DefaultPacing(mode),
		QuickMatchSettle: 2 * time.Second,
		BattleEndSettle:  3 * time.Second,
		Cooldown:         8 * time.Second,
		HomeSettle:       3 * time.Second,
		DeckMenuSettle:   2 * time.Second,
		DeckSlotSettle:   2 * time.Second,
		DeckConfirmDelay: 3 * time.Second,

		RewardClicks:       6,
		RecoveryClickDelay: 4 * time.Second,

		ReferenceWidth:  ReferenceWidth,
		ReferenceHeight: ReferenceHeight,
		Layout:          DefaultLayout(mode),
	}
}

// Validate checks the configuration for values the battle loop cannot use
func (c *Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.MaxCards <= 0 {
		return fmt.Errorf("maxCards must be positive, got %d", c.MaxCards)
	}
	if c.BattlesPerDeck <= 0 {
		return fmt.Errorf("battlesPerDeck must be positive, got %d", c.BattlesPerDeck)
	}
	if c.WaitTime < 0 {
		return fmt.Errorf("waitTime cannot be negative")
	}
	if c.CheckEndRatio <= 0 || math.IsNaN(c.CheckEndRatio) {
		return fmt.Errorf("checkEndRatio must be positive, got %v", c.CheckEndRatio)
	}
	if c.CardRadius < 0 || c.DropRadius < 0 || c.TemplateRadius < 0 || c.MenuRadius < 0 {
		return fmt.Errorf("jitter radii cannot be negative")
	}
	if p := c.Pacing; p.Fixed <= 0 && (p.MinSeconds < 0 || p.MaxSeconds < p.MinSeconds) {
		return fmt.Errorf("invalid pacing clamp [%d, %d]", p.MinSeconds, p.MaxSeconds)
	}
	if len(c.Layout.CardSlots) == 0 {
		return fmt.Errorf("layout needs at least one card slot")
	}
	if len(c.Layout.DeckSlots) != DeckCount {
		return fmt.Errorf("layout needs %d deck slots, got %d", DeckCount, len(c.Layout.DeckSlots))
	}
	if err := c.Layout.DropZone.Validate(); err != nil {
		return fmt.Errorf("drop zone: %w", err)
	}
	if c.ReferenceWidth <= 0 || c.ReferenceHeight <= 0 {
		return fmt.Errorf("invalid reference resolution %dx%d", c.ReferenceWidth, c.ReferenceHeight)
	}
	return nil
}
