package actions

import (
	"context"
	"math/rand"
	"time"

	"jordanella.com/card-battle-go/internal/cv"
	"jordanella.com/card-battle-go/internal/logging"
)

// RetryBackoff is the fixed pause between template tap attempts
const RetryBackoff = time.Second

// Controller turns match results into jittered taps
type Controller struct {
	device   Tapper
	matcher  Matcher
	rng      *rand.Rand
	sleeper  Sleeper
	logger   *logging.Logger
	reporter *logging.ErrorReporter

	// lastFrame is the most recent capture, reused by calls that opt out of
	// a fresh capture
	lastFrame *cv.Frame
}

// NewController creates an action controller
func NewController(device Tapper, matcher Matcher, logger *logging.Logger) *Controller {
	return &Controller{
		device:  device,
		matcher: matcher,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleeper: ContextSleeper{},
		logger:  logger.Component("Actions"),
	}
}

// WithRand replaces the random source used for jitter
func (c *Controller) WithRand(rng *rand.Rand) *Controller {
	c.rng = rng
	return c
}

// WithSleeper replaces the pause implementation
func (c *Controller) WithSleeper(sleeper Sleeper) *Controller {
	c.sleeper = sleeper
	return c
}

// WithErrorReporter enables error categorization
func (c *Controller) WithErrorReporter(reporter *logging.ErrorReporter) *Controller {
	c.reporter = reporter
	return c
}

// Rand exposes the controller's random source so callers share one stream
func (c *Controller) Rand() *rand.Rand {
	return c.rng
}

// Sleep pauses through the controller's sleeper
func (c *Controller) Sleep(ctx context.Context, d time.Duration) error {
	return c.sleeper.Sleep(ctx, d)
}

// Jitter offsets x and y independently by a uniform integer in
// [-radius, radius]
func (c *Controller) Jitter(x, y, radius int) (int, int) {
	if radius <= 0 {
		return x, y
	}
	dx := c.rng.Intn(2*radius+1) - radius
	dy := c.rng.Intn(2*radius+1) - radius
	return x + dx, y + dy
}

// Tap taps near (x, y). Device errors are logged and returned; the tap is
// still considered issued.
func (c *Controller) Tap(x, y, radius int) error {
	tx, ty := c.Jitter(x, y, radius)
	c.logger.DebugWithContext("tap", map[string]interface{}{"x": tx, "y": ty})

	if err := c.device.Tap(tx, ty); err != nil {
		c.report(logging.ErrorCategoryDeviceChannel, "tap failed", err)
		return err
	}
	return nil
}

// TapPoint taps near (x, y) with the click count and delays of opts. It
// only fails when ctx is cancelled during a delay.
func (c *Controller) TapPoint(ctx context.Context, x, y int, opts TapOptions) error {
	if err := c.sleeper.Sleep(ctx, opts.DelayBefore); err != nil {
		return err
	}
	return c.tapBurst(ctx, x, y, opts)
}

// tapBurst taps ClickCount times at one jittered point, pausing DelayAfter
// between and after the taps
func (c *Controller) tapBurst(ctx context.Context, x, y int, opts TapOptions) error {
	tx, ty := c.Jitter(x, y, opts.JitterRadius)
	clicks := opts.ClickCount
	if clicks < 1 {
		clicks = 1
	}

	for i := 0; i < clicks; i++ {
		c.logger.DebugWithContext("tap", map[string]interface{}{"x": tx, "y": ty, "click": i + 1})
		if err := c.device.Tap(tx, ty); err != nil {
			c.report(logging.ErrorCategoryDeviceChannel, "tap failed", err)
		}
		if i < clicks-1 {
			if err := c.sleeper.Sleep(ctx, opts.DelayAfter); err != nil {
				return err
			}
		}
	}

	return c.sleeper.Sleep(ctx, opts.DelayAfter)
}

func (c *Controller) report(category logging.ErrorCategory, message string, err error) {
	if c.reporter != nil {
		c.reporter.ReportError(category, "Actions", message, err)
		return
	}
	c.logger.Error(message, err)
}
