package display

import (
	"image"
	"sync"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
	"golang.org/x/image/draw"
)

// Soft blits frames into a fixed-size in-memory framebuffer, scaling
// when the source dimensions differ. It stands in for the SDL window
// when there is no video output to drive.
type Soft struct {
	mu     sync.Mutex
	buf    *image.RGBA
	scaler draw.Scaler
	shown  uint64
}

func NewSoft(w, h int) *Soft {
	return &Soft{
		buf:    image.NewRGBA(image.Rect(0, 0, w, h)),
		scaler: draw.ApproxBiLinear,
	}
}

func (s *Soft) Show(frame *capture.Frame) error {
	src := frame.RGBA()
	s.mu.Lock()
	defer s.mu.Unlock()
	if src.Bounds() == s.buf.Bounds() {
		draw.Copy(s.buf, image.Point{}, src, src.Bounds(), draw.Src, nil)
	} else {
		s.scaler.Scale(s.buf, s.buf.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	s.shown++
	return nil
}

func (s *Soft) ToggleFullscreen() {}
func (s *Soft) Close() error      { return nil }

// Framebuffer returns a copy of the current framebuffer contents.
func (s *Soft) Framebuffer() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.buf.Bounds())
	copy(out.Pix, s.buf.Pix)
	return out
}

// Shown reports how many frames have been blitted.
func (s *Soft) Shown() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}
