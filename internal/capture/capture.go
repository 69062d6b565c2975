package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"
)

// ErrUnavailable means the display or region could not be grabbed this tick.
// The pipeline substitutes the last-known-good colors and retries next tick.
var ErrUnavailable = errors.New("screen capture unavailable")

// DefaultTimeout bounds a single grab; the OS capture API can stall when a
// display is going to sleep or being reconfigured.
const DefaultTimeout = 250 * time.Millisecond

// Source grabs a raw pixel buffer of the configured screen region.
type Source interface {
	// Capture returns a freshly allocated RGBA buffer. It never aliases OS
	// capture storage past the call.
	Capture(ctx context.Context) (*image.RGBA, error)
}

// Screen captures a display (or an explicit sub-rectangle of the virtual
// screen) via the platform screenshot API.
type Screen struct {
	display int
	region  image.Rectangle // zero = whole display
	timeout time.Duration
}

// NewScreen captures display idx; a non-empty region overrides the display
// bounds. timeout <= 0 uses DefaultTimeout.
func NewScreen(display int, region image.Rectangle, timeout time.Duration) *Screen {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Screen{display: display, region: region, timeout: timeout}
}

func (s *Screen) Capture(ctx context.Context) (*image.RGBA, error) {
	bounds := s.region
	if bounds.Empty() {
		if s.display >= screenshot.NumActiveDisplays() {
			return nil, fmt.Errorf("%w: display %d not active", ErrUnavailable, s.display)
		}
		bounds = screenshot.GetDisplayBounds(s.display)
	}

	type result struct {
		img *image.RGBA
		err error
	}
	ch := make(chan result, 1)
	go func() {
		img, err := screenshot.CaptureRect(bounds)
		ch <- result{img, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, r.err)
		}
		return r.img, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: grab timed out after %v", ErrUnavailable, s.timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}
