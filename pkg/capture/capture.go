package capture

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/kbinani/screenshot"
	"github.com/nfnt/resize"
)

// Source produces raw frame bitmaps on demand.
type Source interface {
	// CaptureOnce grabs a single frame. Errors are transient:
	// the caller skips the cycle and carries on.
	CaptureOnce() (*Frame, error)
	// Size returns the produced frame dimensions.
	Size() (w, h int)
}

// Screen captures one physical display.
type Screen struct {
	display int
	bounds  image.Rectangle
	w, h    int
	seq     atomic.Uint64
}

// NewScreen opens the display with the given index.
// Fails when no display is attached, which is fatal at startup.
func NewScreen(display int, scale float64) (*Screen, error) {
	if screenshot.NumActiveDisplays() <= display {
		return nil, fmt.Errorf("capture: display %v is not available", display)
	}
	bounds := screenshot.GetDisplayBounds(display)
	w, h := bounds.Dx(), bounds.Dy()
	if scale > 0 && scale != 1 {
		w = int(float64(w) / scale)
		h = int(float64(h) / scale)
	}
	return &Screen{display: display, bounds: bounds, w: w, h: h}, nil
}

func (s *Screen) Size() (int, int) { return s.w, s.h }

func (s *Screen) CaptureOnce() (*Frame, error) {
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("capture: zero-sized grab")
	}
	if s.w != s.bounds.Dx() || s.h != s.bounds.Dy() {
		img = resize.Resize(uint(s.w), uint(s.h), img, resize.Bilinear).(*image.RGBA)
	}
	return FromRGBA(img, s.seq.Add(1), time.Now()), nil
}
