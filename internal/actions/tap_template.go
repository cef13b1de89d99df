package actions

import (
	"context"
	"errors"
	"time"

	"jordanella.com/card-battle-go/internal/cv"
	"jordanella.com/card-battle-go/internal/logging"
)

// TapOptions controls a template tap
type TapOptions struct {
	RetryCount          int           // attempts in total, at least 1
	JitterRadius        int           // tap jitter in pixels
	OffsetX, OffsetY    int           // added to the match center
	RequireFreshCapture bool          // false reuses the previous capture
	ClickCount          int           // taps at the same point, at least 1
	DelayBefore         time.Duration // pause before the first tap
	DelayAfter          time.Duration // pause between and after taps

	// Per-call matcher overrides, zero keeps the template or service value
	Threshold          float64
	MinScale, MaxScale float64
}

// DefaultTapOptions returns a single fresh attempt with a 5px jitter
func DefaultTapOptions() TapOptions {
	return TapOptions{
		RetryCount:          1,
		JitterRadius:        5,
		RequireFreshCapture: true,
		ClickCount:          1,
	}
}

// Reuse returns a copy of opts that matches against the previous capture
func (o TapOptions) Reuse() TapOptions {
	o.RequireFreshCapture = false
	return o
}

func (o TapOptions) findOptions() []cv.Option {
	var opts []cv.Option
	if o.Threshold > 0 {
		opts = append(opts, cv.WithThreshold(o.Threshold))
	}
	if o.MinScale > 0 && o.MaxScale > 0 {
		opts = append(opts, cv.WithScaleRange(o.MinScale, o.MaxScale))
	}
	return opts
}

// TapTemplate finds the named template and taps its center plus offset.
// It returns whether a tap was issued. Failures are logged, never returned.
func (c *Controller) TapTemplate(ctx context.Context, name string, opts TapOptions) bool {
	attempts := opts.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.logger.Debugf("retrying %s (attempt %d/%d)", name, attempt+1, attempts)
			if err := c.sleeper.Sleep(ctx, RetryBackoff); err != nil {
				return false
			}
		}

		frame, ok := c.frame(opts.RequireFreshCapture)
		if !ok {
			continue
		}

		result, err := c.matcher.FindInFrame(frame, name, opts.findOptions()...)
		if err != nil {
			c.reportMatchError(name, err)
			continue
		}
		if result == nil {
			continue
		}

		cx, cy := result.Center()
		c.logger.InfoWithContext("template matched", map[string]interface{}{
			"template":   name,
			"confidence": result.Confidence,
			"scale":      result.Scale,
		})

		if err := c.sleeper.Sleep(ctx, opts.DelayBefore); err != nil {
			return false
		}
		if err := c.tapBurst(ctx, cx+opts.OffsetX, cy+opts.OffsetY, opts); err != nil {
			c.logger.Debugf("pause after tapping %s interrupted", name)
		}
		return true
	}

	c.logger.Infof("template %s not found after %d attempt(s)", name, attempts)
	return false
}

// frame returns a fresh capture or the previous one
func (c *Controller) frame(fresh bool) (*cv.Frame, bool) {
	if !fresh && c.lastFrame != nil {
		return c.lastFrame, true
	}

	frame, err := c.matcher.CaptureFrame()
	if err != nil {
		c.lastFrame = nil
		c.report(captureCategory(err), "capture failed", err)
		return nil, false
	}

	c.lastFrame = frame
	return frame, true
}

func (c *Controller) reportMatchError(name string, err error) {
	category := logging.ErrorCategoryReadError
	if errors.Is(err, cv.ErrAssetMissing) {
		category = logging.ErrorCategoryAssetMissing
	}
	c.report(category, "match "+name+" failed", err)
}

// captureCategory classifies a capture failure. A missing screenshot means
// the device channel did not deliver one.
func captureCategory(err error) logging.ErrorCategory {
	if errors.Is(err, cv.ErrReadError) {
		return logging.ErrorCategoryReadError
	}
	return logging.ErrorCategoryDeviceChannel
}
