package actions

import (
	"context"
	"time"

	"jordanella.com/card-battle-go/internal/cv"
)

// Tapper sends taps in device pixels. adb.Device satisfies it.
type Tapper interface {
	Tap(x, y int) error
}

// Matcher finds a named template in a frame. *cv.Service satisfies it.
type Matcher interface {
	CaptureFrame() (*cv.Frame, error)
	FindInFrame(frame *cv.Frame, templateName string, opts ...cv.Option) (*cv.MatchResult, error)
}

// Sleeper performs the timed pauses between actions
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case
	Sleep(ctx context.Context, d time.Duration) error
}

// ContextSleeper sleeps on a timer and wakes early on cancellation
type ContextSleeper struct{}

// Sleep implements Sleeper
func (ContextSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Seconds converts fractional seconds to a duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
